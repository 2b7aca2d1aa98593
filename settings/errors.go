package settings

import "fmt"

// CodecError is a field-specific parse or build failure. The codec
// never repairs data silently: a malformed field always surfaces as a
// CodecError naming the field (and profile, where applicable).
type CodecError struct {
	// Kind is the blob region that failed
	Kind FieldKind

	// Profile is the profile instance, or -1 when not per-profile
	Profile int

	// Reason describes the failure
	Reason string
}

func (e *CodecError) Error() string {
	if e.Profile >= 0 {
		return fmt.Sprintf("settings %s (profile %d): %s", e.Kind, e.Profile, e.Reason)
	}
	return fmt.Sprintf("settings %s: %s", e.Kind, e.Reason)
}

func codecErrf(kind FieldKind, profile int, format string, args ...interface{}) *CodecError {
	return &CodecError{Kind: kind, Profile: profile, Reason: fmt.Sprintf(format, args...)}
}
