// Package preview reproduces the device's live signal pipeline on the
// host, so the editor can show what a draft would do before it is
// saved: calibration, response curve, mapping, and trigger combining
// applied to raw input samples.
//
// The transform is read-only and stateless. It mirrors the steps
// firmware runs per tick, except the DPAD layer, whose hysteresis
// needs state across samples and is previewed device-side instead.
package preview

import (
	"github.com/openpad/go-remap/protocol"
	"github.com/openpad/go-remap/settings"
)

// Calibration is the per-channel affine range calibration applied
// before the response curve. Raw values are mapped so Min becomes 0 and
// Max becomes 1, then clamped to [0,1].
type Calibration struct {
	Min [settings.AnalogCount]float32
	Max [settings.AnalogCount]float32
}

// IdentityCalibration returns the pass-through calibration.
func IdentityCalibration() Calibration {
	var c Calibration
	for i := range c.Max {
		c.Max[i] = 1
	}
	return c
}

// Output is one fully transformed sample.
type Output struct {
	// DigitalMask holds the mapped digital outputs, bit i for
	// destination i
	DigitalMask uint32

	// Analog holds the mapped, curved analog outputs per channel
	Analog [settings.AnalogCount]float32

	// TriggerLeft and TriggerRight are the combined logical trigger
	// outputs after the profile's TriggerPolicy
	TriggerLeft  float32
	TriggerRight float32
}

// Apply runs one raw sample through the draft's active profile.
func Apply(d *settings.Draft, cal Calibration, sample protocol.InputState) Output {
	profile := int(d.ActiveProfile)
	if profile >= settings.ProfileCount {
		profile = 0
	}

	// Stage 1+2: calibrate each channel, then shape it with the
	// profile's response curve.
	curve := d.StickCurves[profile]
	var curved [settings.AnalogCount]float32
	for ch := 0; ch < settings.AnalogCount; ch++ {
		curved[ch] = evalCurve(curve, ch, calibrate(cal, ch, sample.Analog[ch]))
	}

	var out Output

	// Stage 3: analog gather.
	for dest, src := range d.AnalogMappings[profile] {
		if src != settings.DisabledSource && int(src) < settings.AnalogCount {
			out.Analog[dest] = curved[src]
		}
	}

	// Stage 4: digital gather.
	for dest, src := range d.DigitalMappings[profile] {
		if src == settings.DisabledSource || int(src) >= settings.DigitalCount {
			continue
		}
		if sample.DigitalMask&(1<<src) != 0 {
			out.DigitalMask |= 1 << dest
		}
	}

	// Stage 5: trigger combine.
	out.TriggerLeft, out.TriggerRight = combineTriggers(
		d.TriggerPolicies[profile], out.DigitalMask, out.Analog[settings.AxisTrigger])

	return out
}

// calibrate applies the affine range calibration for one channel,
// clamped to [0,1]. A degenerate range yields 0.
func calibrate(cal Calibration, ch int, raw float32) float32 {
	span := cal.Max[ch] - cal.Min[ch]
	if span <= 0 {
		return 0
	}
	return clamp01((raw - cal.Min[ch]) / span)
}

// evalCurve interpolates one channel's piecewise-linear response curve:
// six control points from origin through the deadzones and the notch
// plateau to full range, taking the first pair that brackets the input.
func evalCurve(c settings.StickCurveParams, ch int, x float32) float32 {
	points := [6][2]float32{
		{0, 0},
		{c.DeadzoneLower[ch], 0},
		{c.NotchStartInput, c.Notch[ch]},
		{c.NotchEndInput, c.Notch[ch]},
		{c.DeadzoneUpper[ch], c.Range[ch]},
		{1, c.Range[ch]},
	}

	for k := 0; k < len(points)-1; k++ {
		x0, y0 := points[k][0], points[k][1]
		x1, y1 := points[k+1][0], points[k+1][1]
		if x < x0 || x > x1 {
			continue
		}
		if x1 == x0 {
			return y1
		}
		return y0 + (x-x0)*(y1-y0)/(x1-x0)
	}
	return c.Range[ch]
}

// combineTriggers folds the mapped digital trigger buttons and the
// curved analog trigger value into the two logical trigger outputs.
//
// The analog value, scaled by AnalogRangeMax and optionally clamped to
// the lightshield level, feeds the side selected by the routing flag.
// A pressed lightshield button replaces the analog value on that side
// with the lightshield constant. A pressed digital trigger always wins
// with the full-press constant on its own side.
func combineTriggers(policy settings.TriggerPolicy, digitalMask uint32, analogRaw float32) (left, right float32) {
	analog := analogRaw * policy.AnalogRangeMax
	if policy.Flags&settings.TriggerFlagClampLightshield != 0 && analog > policy.DigitalLightshield {
		analog = policy.DigitalLightshield
	}
	if digitalMask&(1<<settings.ButtonLightshield) != 0 {
		analog = policy.DigitalLightshield
	}

	if policy.Flags&settings.TriggerFlagAnalogLeft != 0 {
		left = analog
	} else {
		right = analog
	}

	if digitalMask&(1<<settings.ButtonL) != 0 {
		left = policy.DigitalFullPress
	}
	if digitalMask&(1<<settings.ButtonR) != 0 {
		right = policy.DigitalFullPress
	}
	return left, right
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
