package protocol

// DeviceInfo describes a connected adapter's capabilities.
// Returned by the GET_INFO command.
type DeviceInfo struct {
	// SchemaID identifies the settings-blob layout the firmware speaks
	SchemaID uint16

	// BlobSize is the fixed size of one settings blob in bytes
	BlobSize uint32

	// MaxChunk is the largest READ_BLOB/WRITE_BLOB_CHUNK window
	MaxChunk uint16

	// SlotCount is the number of configuration banks (1 or 2)
	SlotCount byte

	// FirmwareMajor and FirmwareMinor identify the firmware release
	FirmwareMajor byte
	FirmwareMinor byte
}

// ValidationReport is the device's verdict on a staged settings blob.
// Returned by the VALIDATE_STAGED command.
type ValidationReport struct {
	// InvalidMask flags the parts of the blob that failed validation:
	// bit 0 is the header, bit 1+t is the TLV field with type t.
	// Zero means the staged blob is acceptable.
	InvalidMask uint32

	// Repaired is set when the device normalized recoverable fields
	// while validating. The host must re-read the slot after commit to
	// pick the repaired values up.
	Repaired bool
}

// OK reports whether the staged blob passed validation unmodified.
func (r ValidationReport) OK() bool {
	return r.InvalidMask == 0
}

// InputState is one raw sample of the adapter's inputs, before any
// mapping is applied. Returned by the GET_INPUT_STATE command.
type InputState struct {
	// DigitalMask holds one bit per physical digital input
	DigitalMask uint32

	// Analog holds the raw analog channels, each normalized to [0,1]
	Analog [AnalogChannels]float32
}
