// Package mapping implements the draft mutation engine and draft
// validation for the configurator.
//
// Mappings are gather tables: mapping[destination] = source. Writes are
// swap-on-write: binding a source that another destination holds moves
// that destination onto the overwritten source, so the table stays
// injective over non-disabled sources without a conflict-resolution
// pass. Locked destinations (fixed system buttons) always map to
// themselves.
//
// The four DPAD-layer directions are addressable as virtual targets.
// They are not real mapping slots: binding one repurposes the source
// into the layer (mode DpadAlways) and disables its ordinary mapping
// output; unbinding restores the modifier-gated C-stick default.
//
// All mutation functions are pure: they validate, deep-copy the draft,
// and return the copy. Validate collects every problem in a draft into
// a list of Issues (errors block saving, warnings are advisory), and
// IssueMask folds errors into the device's VALIDATE_STAGED bit layout.
package mapping
