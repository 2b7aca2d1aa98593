package mapping

import (
	"fmt"

	"github.com/openpad/go-remap/settings"
)

// Layout selects a factory mapping layout. The layouts share every
// binding except one swapped pair of face buttons.
type Layout int

const (
	// LayoutStandard maps every input to its own destination
	LayoutStandard Layout = iota

	// LayoutSwapped is LayoutStandard with the X and Z destinations
	// exchanged
	LayoutSwapped
)

// IsLockedButton reports whether a digital destination is locked.
// Locked destinations are fixed system buttons: their source always
// equals their own index, and no mutation may touch them.
func IsLockedButton(dest int) bool {
	return dest == settings.ButtonHome
}

// DefaultDigitalMapping returns the factory digital gather table for a
// layout.
func DefaultDigitalMapping(layout Layout) [settings.DigitalCount]byte {
	var m [settings.DigitalCount]byte
	for i := range m {
		m[i] = byte(i)
	}
	if layout == LayoutSwapped {
		m[settings.ButtonX], m[settings.ButtonZ] = m[settings.ButtonZ], m[settings.ButtonX]
	}
	return m
}

// DefaultAnalogMapping returns the factory analog gather table.
func DefaultAnalogMapping() [settings.AnalogCount]byte {
	var m [settings.AnalogCount]byte
	for i := range m {
		m[i] = byte(i)
	}
	return m
}

// DefaultDpadBinding returns a direction's factory source: the C-stick
// deflection for that direction, used while the layer modifier is held.
func DefaultDpadBinding(dir settings.Direction) settings.DigitalSource {
	switch dir {
	case settings.DirUp:
		return settings.DigitalSource{Kind: settings.SourceAnalogAtLeast, Index: settings.AxisCStickY, Threshold: 0.75, Hysteresis: 0.08}
	case settings.DirDown:
		return settings.DigitalSource{Kind: settings.SourceAnalogAtMost, Index: settings.AxisCStickY, Threshold: 0.25, Hysteresis: 0.08}
	case settings.DirLeft:
		return settings.DigitalSource{Kind: settings.SourceAnalogAtMost, Index: settings.AxisCStickX, Threshold: 0.25, Hysteresis: 0.08}
	case settings.DirRight:
		return settings.DigitalSource{Kind: settings.SourceAnalogAtLeast, Index: settings.AxisCStickX, Threshold: 0.75, Hysteresis: 0.08}
	default:
		return settings.NoSource()
	}
}

// DefaultDpadLayer returns the factory DPAD layer: every direction
// modifier-gated on its C-stick binding.
func DefaultDpadLayer() settings.DpadLayer {
	layer := settings.DpadLayer{
		Modifier: settings.DigitalSource{Kind: settings.SourceDigital, Index: settings.ButtonModifier},
	}
	for d := 0; d < 4; d++ {
		layer.Modes[d] = settings.DpadWithModifier
		layer.Bindings[d] = DefaultDpadBinding(settings.Direction(d))
	}
	return layer
}

// DefaultTriggerPolicy returns the factory trigger policy: full analog
// range routed right, full-press digital, no lightshield clamp.
func DefaultTriggerPolicy() settings.TriggerPolicy {
	return settings.TriggerPolicy{
		AnalogRangeMax:     1.0,
		DigitalFullPress:   1.0,
		DigitalLightshield: 0.3,
		Flags:              0,
	}
}

// DefaultStickCurve returns the factory response curve: near-linear
// with small deadzones and a degenerate center notch.
func DefaultStickCurve() settings.StickCurveParams {
	var c settings.StickCurveParams
	for i := 0; i < settings.AnalogCount; i++ {
		c.Range[i] = 1.0
		c.Notch[i] = 0.5
		c.DeadzoneLower[i] = 0.04
		c.DeadzoneUpper[i] = 0.96
	}
	c.NotchStartInput = 0.5
	c.NotchEndInput = 0.5
	return c
}

// CurvePreset names a stick-response preset applied to a whole profile.
type CurvePreset int

const (
	// CurveDefault is the factory curve
	CurveDefault CurvePreset = iota

	// CurveLinear disables deadzones and the notch entirely
	CurveLinear

	// CurveNotched widens the center notch for tilt-hold precision
	CurveNotched
)

// curveForPreset returns the parameter set for a preset.
func curveForPreset(preset CurvePreset) (settings.StickCurveParams, error) {
	switch preset {
	case CurveDefault:
		return DefaultStickCurve(), nil
	case CurveLinear:
		var c settings.StickCurveParams
		for i := 0; i < settings.AnalogCount; i++ {
			c.Range[i] = 1.0
			c.Notch[i] = 0.5
			c.DeadzoneLower[i] = 0.0
			c.DeadzoneUpper[i] = 1.0
		}
		c.NotchStartInput = 0.5
		c.NotchEndInput = 0.5
		return c, nil
	case CurveNotched:
		c := DefaultStickCurve()
		for i := 0; i < settings.AnalogCount; i++ {
			c.Notch[i] = 0.65
		}
		c.NotchStartInput = 0.55
		c.NotchEndInput = 0.75
		return c, nil
	default:
		return settings.StickCurveParams{}, fmt.Errorf("unknown curve preset %d", preset)
	}
}

// DefaultDraft returns a complete factory draft for a layout.
func DefaultDraft(layout Layout) *settings.Draft {
	d := &settings.Draft{}
	for p := 0; p < settings.ProfileCount; p++ {
		d.ProfileLabels[p] = fmt.Sprintf("Profile %d", p+1)
		d.DigitalMappings[p] = DefaultDigitalMapping(layout)
		d.AnalogMappings[p] = DefaultAnalogMapping()
		d.DpadLayers[p] = DefaultDpadLayer()
		d.TriggerPolicies[p] = DefaultTriggerPolicy()
		d.StickCurves[p] = DefaultStickCurve()
	}
	return d
}

// FactoryImage builds a complete factory settings blob with the given
// generation counter.
func FactoryImage(generation uint32) ([]byte, error) {
	return settings.New(generation, DefaultDraft(LayoutStandard))
}
