package protocol

import (
	"errors"
	"fmt"
)

// FramingError indicates a malformed or corrupt wire frame: bad magic,
// unsupported protocol version, or a CRC mismatch. The stream has no
// resync marker, so a FramingError is fatal for the connection and is
// never retried.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return "framing: " + e.Reason
}

// DeviceError is an error reported by the device in a MsgError frame.
// It is distinct from a transport I/O failure: the connection stays
// usable after a DeviceError.
type DeviceError struct {
	// Cmd is the opcode of the rejected command
	Cmd byte

	// Code is the device error code
	Code byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected command 0x%02X: %s (0x%02X)", e.Cmd, errCodeName(e.Code), e.Code)
}

// IsUnsupported reports whether err is a DeviceError with ErrBadCommand,
// which older firmware returns for opcodes it does not know. Hosts use
// this for feature detection rather than treating it as a hard failure.
func IsUnsupported(err error) bool {
	var de *DeviceError
	return errors.As(err, &de) && de.Code == ErrBadCommand
}

// errCodeName returns a human-readable name for a device error code.
func errCodeName(code byte) string {
	switch code {
	case ErrBadCommand:
		return "unrecognized command"
	case ErrBadState:
		return "invalid session state"
	case ErrBadArgument:
		return "invalid argument"
	case ErrWritesLocked:
		return "writes locked"
	case ErrBusy:
		return "device busy"
	case ErrStagedInvalid:
		return "staged settings invalid"
	case ErrInternal:
		return "internal device fault"
	default:
		return fmt.Sprintf("unknown error code 0x%02X", code)
	}
}
