package mapping

import (
	"fmt"

	"github.com/openpad/go-remap/settings"
)

// Severity classifies a validation issue.
type Severity int

const (
	// SeverityError blocks saving the draft
	SeverityError Severity = iota

	// SeverityWarning is advisory only
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Issue is one validation finding. Validation never fails fast: every
// problem in a draft is collected so the caller can show all of them at
// once.
type Issue struct {
	Severity Severity

	// Kind is the blob region the issue belongs to
	Kind settings.FieldKind

	// Profile is the profile index, or -1 for draft-wide issues
	Profile int

	Message string
}

func (i Issue) String() string {
	if i.Profile >= 0 {
		return fmt.Sprintf("%s: %s (profile %d): %s", i.Severity, i.Kind, i.Profile, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Kind, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// IssueMask folds error-severity issues into the bit layout the device
// reports from VALIDATE_STAGED: bit 0 for the header, bit 1+type for
// each TLV field. Warnings do not contribute.
func IssueMask(issues []Issue) uint32 {
	var mask uint32
	for _, i := range issues {
		if i.Severity == SeverityError {
			mask |= i.Kind.MaskBit()
		}
	}
	return mask
}

// Validate runs every structural and semantic check on a draft,
// independent of any device. Errors block saving; warnings (duplicate
// source advisories, raised for the active profile only) do not.
func Validate(d *settings.Draft) []Issue {
	var issues []Issue
	add := func(sev Severity, kind settings.FieldKind, profile int, format string, args ...interface{}) {
		issues = append(issues, Issue{
			Severity: sev,
			Kind:     kind,
			Profile:  profile,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if d.ActiveProfile >= settings.ProfileCount {
		add(SeverityError, settings.KindHeader, -1, "active profile %d out of range", d.ActiveProfile)
	}

	for p := 0; p < settings.ProfileCount; p++ {
		validateLabel(d.ProfileLabels[p], p, add)
		validateDigitalMap(&d.DigitalMappings[p], p, add)
		validateAnalogMap(&d.AnalogMappings[p], p, add)
		validateDpadLayer(&d.DpadLayers[p], p, add)
		validateTriggerPolicy(d.TriggerPolicies[p], p, add)
		validateStickCurve(d.StickCurves[p], p, add)
	}

	if int(d.ActiveProfile) < settings.ProfileCount {
		warnDuplicates(d, int(d.ActiveProfile), add)
	}

	return issues
}

type addFunc func(sev Severity, kind settings.FieldKind, profile int, format string, args ...interface{})

func validateLabel(label string, p int, add addFunc) {
	if label == "" {
		add(SeverityError, settings.KindProfileLabel, p, "label is empty")
	} else if len(label) > settings.LabelSize {
		add(SeverityError, settings.KindProfileLabel, p, "label %q exceeds %d bytes", label, settings.LabelSize)
	}
}

func validateDigitalMap(m *[settings.DigitalCount]byte, p int, add addFunc) {
	for dest, src := range m {
		if IsLockedButton(dest) {
			if int(src) != dest {
				add(SeverityError, settings.KindDigitalMap, p, "locked destination %d bound to source %d", dest, src)
			}
			continue
		}
		if src == settings.DisabledSource {
			continue
		}
		if int(src) >= settings.DigitalCount {
			add(SeverityError, settings.KindDigitalMap, p, "destination %d: source %d out of range", dest, src)
			continue
		}
		if IsLockedButton(int(src)) {
			add(SeverityError, settings.KindDigitalMap, p, "destination %d: source %d is a locked system button", dest, src)
		}
	}
}

func validateAnalogMap(m *[settings.AnalogCount]byte, p int, add addFunc) {
	for dest, src := range m {
		if src != settings.DisabledSource && int(src) >= settings.AnalogCount {
			add(SeverityError, settings.KindAnalogMap, p, "channel %d: source %d out of range", dest, src)
		}
	}
}

func validateDpadLayer(layer *settings.DpadLayer, p int, add addFunc) {
	for dir := 0; dir < 4; dir++ {
		if layer.Modes[dir] > settings.DpadAlways {
			add(SeverityError, settings.KindDpadLayer, p, "direction %s: invalid mode %d", settings.Direction(dir), layer.Modes[dir])
		}
		validateSource(layer.Bindings[dir], "direction "+settings.Direction(dir).String(), p, add)
	}
	validateSource(layer.Modifier, "modifier", p, add)
}

func validateSource(s settings.DigitalSource, what string, p int, add addFunc) {
	switch s.Kind {
	case settings.SourceNone:
	case settings.SourceDigital:
		if int(s.Index) >= settings.DigitalCount {
			add(SeverityError, settings.KindDpadLayer, p, "%s: digital input %d out of range", what, s.Index)
		}
	case settings.SourceAnalogAtLeast, settings.SourceAnalogAtMost:
		if int(s.Index) >= settings.AnalogCount {
			add(SeverityError, settings.KindDpadLayer, p, "%s: analog channel %d out of range", what, s.Index)
		}
		if s.Threshold < 0 || s.Threshold > 1 {
			add(SeverityError, settings.KindDpadLayer, p, "%s: threshold %g outside [0,1]", what, s.Threshold)
		}
		if s.Hysteresis < 0 || s.Hysteresis > 0.5 {
			add(SeverityError, settings.KindDpadLayer, p, "%s: hysteresis %g outside [0,0.5]", what, s.Hysteresis)
		}
	default:
		add(SeverityError, settings.KindDpadLayer, p, "%s: invalid source kind %d", what, s.Kind)
	}
}

func validateTriggerPolicy(t settings.TriggerPolicy, p int, add addFunc) {
	check := func(name string, v float32) {
		if v < 0 || v > 1 {
			add(SeverityError, settings.KindTriggerPolicy, p, "%s %g outside [0,1]", name, v)
		}
	}
	check("analog range max", t.AnalogRangeMax)
	check("digital full press", t.DigitalFullPress)
	check("digital lightshield", t.DigitalLightshield)
	if t.DigitalLightshield > t.DigitalFullPress {
		add(SeverityError, settings.KindTriggerPolicy, p, "lightshield %g exceeds full press %g", t.DigitalLightshield, t.DigitalFullPress)
	}
}

func validateStickCurve(c settings.StickCurveParams, p int, add addFunc) {
	for i := 0; i < settings.AnalogCount; i++ {
		for _, v := range []struct {
			name  string
			value float32
		}{
			{"range", c.Range[i]},
			{"notch", c.Notch[i]},
			{"lower deadzone", c.DeadzoneLower[i]},
			{"upper deadzone", c.DeadzoneUpper[i]},
		} {
			if v.value < 0 || v.value > 1 {
				add(SeverityError, settings.KindStickCurve, p, "channel %d: %s %g outside [0,1]", i, v.name, v.value)
			}
		}
		if c.DeadzoneLower[i] > c.DeadzoneUpper[i] {
			add(SeverityError, settings.KindStickCurve, p, "channel %d: lower deadzone %g exceeds upper %g", i, c.DeadzoneLower[i], c.DeadzoneUpper[i])
		}
	}
	if c.NotchStartInput < 0 || c.NotchStartInput > 1 || c.NotchEndInput < 0 || c.NotchEndInput > 1 {
		add(SeverityError, settings.KindStickCurve, p, "notch window [%g,%g] outside [0,1]", c.NotchStartInput, c.NotchEndInput)
	} else if c.NotchStartInput > c.NotchEndInput {
		add(SeverityError, settings.KindStickCurve, p, "notch start %g exceeds notch end %g", c.NotchStartInput, c.NotchEndInput)
	}
}

// warnDuplicates raises duplicate-source advisories for the active
// profile. The mutation engine keeps mappings injective, but imported
// files may not have gone through it.
func warnDuplicates(d *settings.Draft, p int, add addFunc) {
	seen := map[byte]int{}
	for dest, src := range d.DigitalMappings[p] {
		if src == settings.DisabledSource || IsLockedButton(dest) {
			continue
		}
		if first, dup := seen[src]; dup {
			add(SeverityWarning, settings.KindDigitalMap, p, "source %d bound to destinations %d and %d", src, first, dest)
			continue
		}
		seen[src] = dest
	}

	seenA := map[byte]int{}
	for dest, src := range d.AnalogMappings[p] {
		if src == settings.DisabledSource {
			continue
		}
		if first, dup := seenA[src]; dup {
			add(SeverityWarning, settings.KindAnalogMap, p, "source %d bound to channels %d and %d", src, first, dest)
			continue
		}
		seenA[src] = dest
	}
}
