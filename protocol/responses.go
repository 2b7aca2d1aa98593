package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Response payload parsers. A response payload is the body of a
// MsgResponse frame: the echoed opcode at offset 0, then the
// command-specific data. A MsgError frame instead carries
// [CMD][ERROR_CODE], parsed by ParseErrorPayload.

// ParseResponsePayload splits a MsgResponse payload into the echoed
// opcode and its data, verifying the echo matches the issued command.
func ParseResponsePayload(payload []byte, wantCmd byte) ([]byte, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("empty response payload")
	}
	if payload[0] != wantCmd {
		return nil, fmt.Errorf("response for command 0x%02X, expected 0x%02X", payload[0], wantCmd)
	}
	return payload[1:], nil
}

// ParseErrorPayload decodes a MsgError payload into a DeviceError.
func ParseErrorPayload(payload []byte) (*DeviceError, error) {
	if len(payload) != 2 {
		return nil, fmt.Errorf("invalid error payload length: got %d bytes, expected 2", len(payload))
	}
	return &DeviceError{Cmd: payload[0], Code: payload[1]}, nil
}

// ParseGetInfoResponse parses the GET_INFO response data.
//
// Data format (GetInfoResponseSize bytes):
//
//	[SCHEMA_ID(2)][BLOB_SIZE(4)][MAX_CHUNK(2)][SLOTS(1)][FW_MAJOR(1)][FW_MINOR(1)]
func ParseGetInfoResponse(data []byte) (*DeviceInfo, error) {
	if len(data) != GetInfoResponseSize {
		return nil, fmt.Errorf("invalid data length for GET_INFO response: got %d bytes, expected %d", len(data), GetInfoResponseSize)
	}

	return &DeviceInfo{
		SchemaID:      binary.LittleEndian.Uint16(data[0:2]),
		BlobSize:      binary.LittleEndian.Uint32(data[2:6]),
		MaxChunk:      binary.LittleEndian.Uint16(data[6:8]),
		SlotCount:     data[8],
		FirmwareMajor: data[9],
		FirmwareMinor: data[10],
	}, nil
}

// ParseValidateResponse parses the VALIDATE_STAGED response data.
//
// Data format (ValidateResponseSize bytes):
//
//	[INVALID_MASK(4)][REPAIRED(1)]
func ParseValidateResponse(data []byte) (*ValidationReport, error) {
	if len(data) != ValidateResponseSize {
		return nil, fmt.Errorf("invalid data length for VALIDATE_STAGED response: got %d bytes, expected %d", len(data), ValidateResponseSize)
	}

	return &ValidationReport{
		InvalidMask: binary.LittleEndian.Uint32(data[0:4]),
		Repaired:    data[4] != 0,
	}, nil
}

// ParseCommitResponse parses the COMMIT_STAGED response data.
// Returns the slot's new generation counter.
//
// Data format (CommitResponseSize bytes):
//
//	[GENERATION(4)]
func ParseCommitResponse(data []byte) (uint32, error) {
	if len(data) != CommitResponseSize {
		return 0, fmt.Errorf("invalid data length for COMMIT_STAGED response: got %d bytes, expected %d", len(data), CommitResponseSize)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseResetDefaultsResponse parses the RESET_DEFAULTS response data.
// Returns the slot's new generation counter.
func ParseResetDefaultsResponse(data []byte) (uint32, error) {
	if len(data) != ResetDefaultsResponseSize {
		return 0, fmt.Errorf("invalid data length for RESET_DEFAULTS response: got %d bytes, expected %d", len(data), ResetDefaultsResponseSize)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseFactoryResetResponse parses the FACTORY_RESET response data.
// Returns the new generation counter for each slot.
//
// Data format (FactoryResetResponseSize bytes):
//
//	[GENERATION_SLOT0(4)][GENERATION_SLOT1(4)]
func ParseFactoryResetResponse(data []byte) (gen0, gen1 uint32, err error) {
	if len(data) != FactoryResetResponseSize {
		return 0, 0, fmt.Errorf("invalid data length for FACTORY_RESET response: got %d bytes, expected %d", len(data), FactoryResetResponseSize)
	}
	return binary.LittleEndian.Uint32(data[0:4]), binary.LittleEndian.Uint32(data[4:8]), nil
}

// ParseInputStateResponse parses the GET_INPUT_STATE response data.
//
// Data format (InputStateResponseSize bytes):
//
//	[DIGITAL_MASK(4)][ANALOG_0(f32)]...[ANALOG_4(f32)]
func ParseInputStateResponse(data []byte) (*InputState, error) {
	if len(data) != InputStateResponseSize {
		return nil, fmt.Errorf("invalid data length for GET_INPUT_STATE response: got %d bytes, expected %d", len(data), InputStateResponseSize)
	}

	state := &InputState{
		DigitalMask: binary.LittleEndian.Uint32(data[0:4]),
	}
	for i := 0; i < AnalogChannels; i++ {
		bits := binary.LittleEndian.Uint32(data[4+4*i : 8+4*i])
		state.Analog[i] = math.Float32frombits(bits)
	}
	return state, nil
}
