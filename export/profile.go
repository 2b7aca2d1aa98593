package export

import (
	"encoding/json"
	"os"

	"github.com/openpad/go-remap/settings"
)

// ProfileFileType tags a single-profile JSON export.
const ProfileFileType = "go-remap/profile"

// ProfileFileVersion is the newest profile-file format this library
// writes and accepts.
const ProfileFileVersion = 1

// Mode names the mapping layout family a profile was authored for.
// Importing a profile into a draft of a different mode silently changes
// what the shared buttons do, so import requires the modes to match.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeSwapped  Mode = "swapped"
)

// Profile carries one profile's complete field set.
type Profile struct {
	Label   string                      `json:"label"`
	Digital [settings.DigitalCount]byte `json:"digital"`
	Analog  [settings.AnalogCount]byte  `json:"analog"`
	Dpad    settings.DpadLayer          `json:"dpad"`
	Trigger settings.TriggerPolicy      `json:"trigger"`
	Curve   settings.StickCurveParams   `json:"curve"`
}

type profileFile struct {
	Type    string  `json:"type"`
	Version int     `json:"version"`
	Mode    Mode    `json:"mode"`
	Profile Profile `json:"profile"`
}

// MarshalProfile extracts one profile from a draft into the JSON
// profile-file format.
func MarshalProfile(d *settings.Draft, profile int, mode Mode) ([]byte, error) {
	if profile < 0 || profile >= settings.ProfileCount {
		return nil, fileErrf("profile", "index %d out of range", profile)
	}

	return json.MarshalIndent(profileFile{
		Type:    ProfileFileType,
		Version: ProfileFileVersion,
		Mode:    mode,
		Profile: Profile{
			Label:   d.ProfileLabels[profile],
			Digital: d.DigitalMappings[profile],
			Analog:  d.AnalogMappings[profile],
			Dpad:    d.DpadLayers[profile],
			Trigger: d.TriggerPolicies[profile],
			Curve:   d.StickCurves[profile],
		},
	}, "", "  ")
}

// UnmarshalProfile parses a JSON profile file, verifying the envelope
// and that it was authored for wantMode.
//
// The returned fields are not range-checked here; after ApplyProfile
// the draft goes through the usual validation pass before any save.
func UnmarshalProfile(data []byte, wantMode Mode) (*Profile, error) {
	var f profileFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fileErrf("envelope", "not valid JSON: %v", err)
	}
	if f.Type != ProfileFileType {
		return nil, fileErrf("type", "%q, expected %q", f.Type, ProfileFileType)
	}
	if f.Version < 1 || f.Version > ProfileFileVersion {
		return nil, fileErrf("version", "%d, this library handles 1..%d", f.Version, ProfileFileVersion)
	}
	if f.Mode != wantMode {
		return nil, fileErrf("mode", "%q, draft uses %q", f.Mode, wantMode)
	}

	p := f.Profile
	return &p, nil
}

// ApplyProfile writes an imported profile's fields into one profile of
// a draft, returning a new draft. The input draft is never modified.
func ApplyProfile(d *settings.Draft, profile int, p *Profile) (*settings.Draft, error) {
	if profile < 0 || profile >= settings.ProfileCount {
		return nil, fileErrf("profile", "index %d out of range", profile)
	}

	out := d.Clone()
	out.ProfileLabels[profile] = p.Label
	out.DigitalMappings[profile] = p.Digital
	out.AnalogMappings[profile] = p.Analog
	out.DpadLayers[profile] = p.Dpad
	out.TriggerPolicies[profile] = p.Trigger
	out.StickCurves[profile] = p.Curve
	return out, nil
}

// WriteProfileFile writes one profile of a draft as a JSON profile
// file.
func WriteProfileFile(path string, d *settings.Draft, profile int, mode Mode) error {
	data, err := MarshalProfile(d, profile, mode)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadProfileFile reads a JSON profile file authored for wantMode.
func ReadProfileFile(path string, wantMode Mode) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalProfile(data, wantMode)
}
