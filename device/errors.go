package device

import (
	"fmt"
)

// StateError indicates an operation issued in a session state that does
// not allow it, such as writing a blob before UnlockWrites.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// DesyncError indicates the byte stream from the device can no longer be
// framed: a corrupt frame, or a response whose sequence number does not
// match the request. The protocol has no resync marker, so the session
// drops to Disconnected and the transport must be reopened.
type DesyncError struct {
	Reason string
	Err    error
}

func (e *DesyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stream desynchronized: %s: %v", e.Reason, e.Err)
	}
	return "stream desynchronized: " + e.Reason
}

func (e *DesyncError) Unwrap() error {
	return e.Err
}

// IncompatibleDeviceError indicates the connected device reports
// capabilities this library cannot work with.
type IncompatibleDeviceError struct {
	Reason string
}

func (e *IncompatibleDeviceError) Error() string {
	return "incompatible device: " + e.Reason
}

// ValidationFailedError indicates a settings blob was rejected before
// commit, either by host-side validation or by the device's
// VALIDATE_STAGED check. Mask uses the VALIDATE_STAGED bit layout.
type ValidationFailedError struct {
	Mask     uint32
	Repaired bool
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("settings validation failed: invalid field mask 0x%08X", e.Mask)
}

// GenerationError indicates a commit returned a generation counter that
// is not newer than the document's base generation, which means another
// writer changed the slot underneath us.
type GenerationError struct {
	Base      uint32
	Committed uint32
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation conflict: committed generation %d is not newer than base %d",
		e.Committed, e.Base)
}
