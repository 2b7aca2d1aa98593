package mapping

import (
	"fmt"

	"github.com/openpad/go-remap/settings"
)

// The mutation engine is pure: every function takes a draft, validates
// the request, and returns a new independent draft with the mutation
// applied. The input draft is never modified.

// SetDigital binds a digital source to a target in one profile.
//
// For a button target the mapping is written swap-on-write: if another
// non-locked destination currently holds src, it inherits the target's
// previous source. This keeps the gather table injective over
// non-disabled sources without a separate conflict pass. Binding src
// also resets any DPAD direction that was repurposing src, so a source
// never feeds two outputs silently.
//
// For a DPAD target the source is repurposed into the layer: the
// direction switches to DpadAlways on the given source and the source's
// ordinary mapping entry is disabled. Unbinding (src ==
// DisabledSource) restores the direction's modifier-gated C-stick
// default.
func SetDigital(d *settings.Draft, profile int, target Target, src byte) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	if src != settings.DisabledSource {
		if int(src) >= settings.DigitalCount {
			return nil, fmt.Errorf("digital source %d out of range", src)
		}
		if IsLockedButton(int(src)) {
			return nil, fmt.Errorf("source %d is a locked system button", src)
		}
	}

	out := d.Clone()
	switch target.Kind {
	case TargetButton:
		if err := setButtonMapping(out, profile, target.Button, src); err != nil {
			return nil, err
		}
	case TargetDpad:
		if err := setDpadBinding(out, profile, target.Direction, src); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid mapping target")
	}
	return out, nil
}

func setButtonMapping(d *settings.Draft, profile, dest int, src byte) error {
	if dest < 0 || dest >= settings.DigitalCount {
		return fmt.Errorf("digital destination %d out of range", dest)
	}
	if IsLockedButton(dest) {
		return fmt.Errorf("destination %d is locked", dest)
	}

	m := &d.DigitalMappings[profile]
	if src == settings.DisabledSource {
		m[dest] = settings.DisabledSource
		return nil
	}

	prev := m[dest]
	for other := range m {
		if other == dest || IsLockedButton(other) {
			continue
		}
		if m[other] == src {
			m[other] = prev
			break
		}
	}
	m[dest] = src

	// A DPAD direction holding this source would now alias the new
	// mapping output; put it back on its default.
	resetDpadUsesOf(d, profile, src)
	return nil
}

func setDpadBinding(d *settings.Draft, profile int, dir settings.Direction, src byte) error {
	if dir < settings.DirUp || dir > settings.DirRight {
		return fmt.Errorf("invalid dpad direction %d", dir)
	}

	layer := &d.DpadLayers[profile]
	if src == settings.DisabledSource {
		layer.Modes[dir] = settings.DpadWithModifier
		layer.Bindings[dir] = DefaultDpadBinding(dir)
		return nil
	}

	layer.Modes[dir] = settings.DpadAlways
	layer.Bindings[dir] = settings.DigitalSource{Kind: settings.SourceDigital, Index: src}

	// Repurpose: the source now feeds the DPAD layer, so its ordinary
	// mapping output is disabled.
	m := &d.DigitalMappings[profile]
	for dest := range m {
		if !IsLockedButton(dest) && m[dest] == src {
			m[dest] = settings.DisabledSource
		}
	}
	return nil
}

// resetDpadUsesOf restores the default binding for every direction
// currently repurposing the given digital source.
func resetDpadUsesOf(d *settings.Draft, profile int, src byte) {
	layer := &d.DpadLayers[profile]
	for dir := 0; dir < 4; dir++ {
		b := layer.Bindings[dir]
		if b.Kind == settings.SourceDigital && b.Index == src {
			layer.Modes[dir] = settings.DpadWithModifier
			layer.Bindings[dir] = DefaultDpadBinding(settings.Direction(dir))
		}
	}
}

// SetAnalog binds an analog source channel to a target in one profile,
// with the same swap-on-write rule as digital mappings.
//
// A trigger sub-target writes the trigger channel's mapping and
// additionally steers the policy's analog routing flag to the chosen
// logical trigger.
func SetAnalog(d *settings.Draft, profile int, target AnalogTarget, src byte) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	if src != settings.DisabledSource && int(src) >= settings.AnalogCount {
		return nil, fmt.Errorf("analog source %d out of range", src)
	}

	dest := target.Axis
	if target.Kind == TargetTrigger {
		dest = settings.AxisTrigger
	}
	if dest < 0 || dest >= settings.AnalogCount {
		return nil, fmt.Errorf("analog destination %d out of range", dest)
	}

	out := d.Clone()
	m := &out.AnalogMappings[profile]
	if src == settings.DisabledSource {
		m[dest] = settings.DisabledSource
	} else {
		prev := m[dest]
		for other := range m {
			if other != dest && m[other] == src {
				m[other] = prev
				break
			}
		}
		m[dest] = src
	}

	if target.Kind == TargetTrigger {
		policy := &out.TriggerPolicies[profile]
		if target.Side == TriggerLeft {
			policy.Flags |= settings.TriggerFlagAnalogLeft
		} else {
			policy.Flags &^= settings.TriggerFlagAnalogLeft
		}
	}
	return out, nil
}

// SetActiveProfile selects which profile the device activates.
func SetActiveProfile(d *settings.Draft, profile int) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	out := d.Clone()
	out.ActiveProfile = byte(profile)
	return out, nil
}

// RenameProfile sets a profile's label. Labels are non-empty and at
// most settings.LabelSize bytes once encoded.
func RenameProfile(d *settings.Draft, profile int, label string) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	if label == "" {
		return nil, fmt.Errorf("profile label cannot be empty")
	}
	if len(label) > settings.LabelSize {
		return nil, fmt.Errorf("profile label %q exceeds %d bytes", label, settings.LabelSize)
	}
	out := d.Clone()
	out.ProfileLabels[profile] = label
	return out, nil
}

// ClearAll disables every non-locked digital and analog destination in
// one profile. Locked destinations keep their fixed bindings.
func ClearAll(d *settings.Draft, profile int) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	out := d.Clone()
	for dest := range out.DigitalMappings[profile] {
		if !IsLockedButton(dest) {
			out.DigitalMappings[profile][dest] = settings.DisabledSource
		}
	}
	for dest := range out.AnalogMappings[profile] {
		out.AnalogMappings[profile][dest] = settings.DisabledSource
	}
	return out, nil
}

// ResetToDefault restores one profile's bindings (digital, analog and
// DPAD layer) to the factory layout. Trigger policy and curves are left
// as they are.
func ResetToDefault(d *settings.Draft, profile int, layout Layout) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	out := d.Clone()
	out.DigitalMappings[profile] = DefaultDigitalMapping(layout)
	out.AnalogMappings[profile] = DefaultAnalogMapping()
	out.DpadLayers[profile] = DefaultDpadLayer()
	return out, nil
}

// ApplyCurvePreset replaces one profile's stick-response parameters
// with a named preset.
func ApplyCurvePreset(d *settings.Draft, profile int, preset CurvePreset) (*settings.Draft, error) {
	if err := checkProfile(profile); err != nil {
		return nil, err
	}
	curve, err := curveForPreset(preset)
	if err != nil {
		return nil, err
	}
	out := d.Clone()
	out.StickCurves[profile] = curve
	return out, nil
}

func checkProfile(profile int) error {
	if profile < 0 || profile >= settings.ProfileCount {
		return fmt.Errorf("profile %d out of range", profile)
	}
	return nil
}
