package protocol

import (
	"encoding/binary"
	"fmt"
)

// Command payload builders. A command payload is the body of a
// MsgRequest frame: the opcode at offset 0, the slot byte at offset 1
// for slotted commands, then the command-specific fields in
// little-endian order.

// BuildGetInfoCmd constructs a GET_INFO command payload.
// GET_INFO is the only command valid before a session begins.
func BuildGetInfoCmd() []byte {
	return []byte{CmdGetInfo}
}

// BuildBeginSessionCmd constructs a BEGIN_SESSION command payload.
// Beginning a session discards any device-side staged buffers and
// returns the device to the writes-locked state.
func BuildBeginSessionCmd() []byte {
	return []byte{CmdBeginSession}
}

// BuildUnlockWritesCmd constructs an UNLOCK_WRITES command payload.
func BuildUnlockWritesCmd() []byte {
	return []byte{CmdUnlockWrites}
}

// BuildReadBlobCmd constructs a READ_BLOB command payload.
//
// Payload structure:
//
//	[CMD][SLOT][OFFSET(4)][LEN(4)]
func BuildReadBlobCmd(slot byte, offset, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, fmt.Errorf("read length cannot be zero")
	}

	payload := make([]byte, 10)
	payload[0] = CmdReadBlob
	payload[1] = slot
	binary.LittleEndian.PutUint32(payload[2:6], offset)
	binary.LittleEndian.PutUint32(payload[6:10], length)
	return payload, nil
}

// BuildWriteBlobBeginCmd constructs a WRITE_BLOB_BEGIN command payload.
//
// Payload structure:
//
//	[CMD][SLOT][TOTAL_SIZE(4)]
func BuildWriteBlobBeginCmd(slot byte, totalSize uint32) ([]byte, error) {
	if totalSize == 0 {
		return nil, fmt.Errorf("total size cannot be zero")
	}

	payload := make([]byte, 6)
	payload[0] = CmdWriteBlobBegin
	payload[1] = slot
	binary.LittleEndian.PutUint32(payload[2:6], totalSize)
	return payload, nil
}

// BuildWriteBlobChunkCmd constructs a WRITE_BLOB_CHUNK command payload.
//
// Payload structure:
//
//	[CMD][SLOT][OFFSET(4)][LEN(4)][DATA...]
func BuildWriteBlobChunkCmd(slot byte, offset uint32, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("chunk data cannot be empty")
	}
	if len(data) > MaxPayloadSize-10 {
		return nil, fmt.Errorf("chunk length %d exceeds maximum %d bytes", len(data), MaxPayloadSize-10)
	}

	payload := make([]byte, 10+len(data))
	payload[0] = CmdWriteBlobChunk
	payload[1] = slot
	binary.LittleEndian.PutUint32(payload[2:6], offset)
	binary.LittleEndian.PutUint32(payload[6:10], uint32(len(data)))
	copy(payload[10:], data)
	return payload, nil
}

// BuildWriteBlobEndCmd constructs a WRITE_BLOB_END command payload.
func BuildWriteBlobEndCmd(slot byte) []byte {
	return []byte{CmdWriteBlobEnd, slot}
}

// BuildValidateStagedCmd constructs a VALIDATE_STAGED command payload.
func BuildValidateStagedCmd(slot byte) []byte {
	return []byte{CmdValidateStaged, slot}
}

// BuildCommitStagedCmd constructs a COMMIT_STAGED command payload.
func BuildCommitStagedCmd(slot byte) []byte {
	return []byte{CmdCommitStaged, slot}
}

// BuildResetDefaultsCmd constructs a RESET_DEFAULTS command payload.
func BuildResetDefaultsCmd(slot byte) []byte {
	return []byte{CmdResetDefaults, slot}
}

// BuildFactoryResetCmd constructs a FACTORY_RESET command payload.
func BuildFactoryResetCmd() []byte {
	return []byte{CmdFactoryReset}
}

// BuildRebootCmd constructs a REBOOT command payload.
// The device restarts without answering; the ensuing connection loss is
// the expected outcome, not a failure.
func BuildRebootCmd() []byte {
	return []byte{CmdReboot}
}

// BuildGetInputStateCmd constructs a GET_INPUT_STATE command payload.
func BuildGetInputStateCmd() []byte {
	return []byte{CmdGetInputState}
}
