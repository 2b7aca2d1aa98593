package protocol

// ProtocolVersion is the wire protocol version implemented by this library.
// A device reporting any other version is incompatible; there is no
// negotiation on this transport.
const ProtocolVersion = 0x01

// Frame structure constants.
const (
	// FrameMagic is the frame start marker, "GCA1" in little-endian order
	FrameMagic = 0x31414347

	// HeaderSize is the fixed frame header size in bytes:
	// MAGIC(4) + VERSION(1) + TYPE(1) + LEN(2) + SEQ(4) + CRC(4)
	HeaderSize = 16

	// MaxPayloadSize is the largest payload a frame may carry
	MaxPayloadSize = 0xFFFF
)

// Frame message types.
const (
	// MsgRequest carries a host command
	MsgRequest = 0x01

	// MsgResponse carries a successful command response
	MsgResponse = 0x02

	// MsgError carries a device error report for a failed command
	MsgError = 0x03
)

// Command opcodes. Slotted commands carry the slot byte at payload
// offset 1, immediately after the opcode.
const (
	// CmdGetInfo queries device capabilities; valid without a session
	CmdGetInfo = 0x01

	// CmdBeginSession starts a session and clears staged buffers
	CmdBeginSession = 0x02

	// CmdUnlockWrites arms destructive commands (commit, reset)
	CmdUnlockWrites = 0x03

	// CmdReadBlob reads a window of a slot's active settings blob
	CmdReadBlob = 0x10

	// CmdWriteBlobBegin opens a staged write of the given total size
	CmdWriteBlobBegin = 0x11

	// CmdWriteBlobChunk transfers one window of a staged write
	CmdWriteBlobChunk = 0x12

	// CmdWriteBlobEnd closes a staged write
	CmdWriteBlobEnd = 0x13

	// CmdValidateStaged asks the device to validate its staged blob
	CmdValidateStaged = 0x14

	// CmdCommitStaged atomically promotes staged to active
	CmdCommitStaged = 0x15

	// CmdResetDefaults restores a slot's factory settings
	CmdResetDefaults = 0x16

	// CmdFactoryReset restores every slot's factory settings
	CmdFactoryReset = 0x17

	// CmdReboot restarts the device; no response is sent
	CmdReboot = 0x18

	// CmdGetInputState samples the live input pipeline
	CmdGetInputState = 0x20
)

// Device error codes carried in MsgError frames.
const (
	// ErrBadCommand indicates an unrecognized opcode. Hosts use this
	// code for feature detection against older firmware.
	ErrBadCommand = 0x01

	// ErrBadState indicates the command is not valid in the device's
	// current session state
	ErrBadState = 0x02

	// ErrBadArgument indicates an out-of-range slot, offset or length
	ErrBadArgument = 0x03

	// ErrWritesLocked indicates a destructive command issued before
	// UNLOCK_WRITES
	ErrWritesLocked = 0x04

	// ErrBusy indicates the device cannot service the command right now
	ErrBusy = 0x05

	// ErrStagedInvalid indicates a commit of a staged blob that failed
	// validation
	ErrStagedInvalid = 0x06

	// ErrInternal indicates a device-side storage or firmware fault
	ErrInternal = 0x07
)

// MaskHeader is the VALIDATE_STAGED mask bit flagging a bad blob header
// (magic, version, size or CRC). Each TLV field type t occupies bit 1+t.
const MaskHeader = 1 << 0

// Response data sizes.
const (
	// GetInfoResponseSize is the data size for a GET_INFO response
	GetInfoResponseSize = 11

	// ValidateResponseSize is the data size for a VALIDATE_STAGED response
	ValidateResponseSize = 5

	// CommitResponseSize is the data size for a COMMIT_STAGED response
	CommitResponseSize = 4

	// ResetDefaultsResponseSize is the data size for a RESET_DEFAULTS response
	ResetDefaultsResponseSize = 4

	// FactoryResetResponseSize is the data size for a FACTORY_RESET response
	FactoryResetResponseSize = 8

	// InputStateResponseSize is the data size for a GET_INPUT_STATE response
	InputStateResponseSize = 24

	// AnalogChannels is the number of analog channels in an input sample
	AnalogChannels = 5
)

// Slot numbers for the device's two configuration banks.
const (
	// SlotPrimary is the bank loaded at power-on
	SlotPrimary = 0

	// SlotSecondary is the alternate bank
	SlotSecondary = 1

	// SlotCount is the number of banks a current device exposes
	SlotCount = 2
)
