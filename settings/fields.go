package settings

// Blob geometry.
const (
	// BlobSize is the fixed total size of a settings blob
	BlobSize = 1024

	// BlobMagic is the header magic string
	BlobMagic = "CTRLCFG1"

	// VersionMajor is the only supported major schema version
	VersionMajor = 1

	// VersionMinor is the minor schema version this package emits.
	// Minor 2 introduced per-direction DPAD modes; older blobs are
	// readable through the legacy shim in Parse.
	VersionMinor = 2

	// HeaderSize is the fixed blob header size in bytes
	HeaderSize = 32

	// crcOffset is where the trailing CRC-32 lives
	crcOffset = BlobSize - 4
)

// Header field offsets.
const (
	offMagic         = 0
	offVersionMajor  = 8
	offVersionMinor  = 9
	offHeaderSize    = 10
	offGeneration    = 12
	offActiveProfile = 16
	offFlags         = 17
)

// FieldKind identifies one logical region of the blob. KindHeader
// covers the fixed header; the remaining kinds are TLV fields whose
// numeric value doubles as the on-wire TLV type code.
type FieldKind int

const (
	KindHeader FieldKind = iota
	KindProfileLabel
	KindDigitalMap
	KindAnalogMap
	KindDpadLayer
	KindTriggerPolicy
	KindStickCurve

	kindCount
)

// tlvKinds enumerates the TLV fields in blob order.
var tlvKinds = [...]FieldKind{
	KindProfileLabel,
	KindDigitalMap,
	KindAnalogMap,
	KindDpadLayer,
	KindTriggerPolicy,
	KindStickCurve,
}

func (k FieldKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindProfileLabel:
		return "profile label"
	case KindDigitalMap:
		return "digital mapping"
	case KindAnalogMap:
		return "analog mapping"
	case KindDpadLayer:
		return "dpad layer"
	case KindTriggerPolicy:
		return "trigger policy"
	case KindStickCurve:
		return "stick curve"
	default:
		return "invalid field"
	}
}

// TypeCode returns the on-wire TLV type for a field kind.
// KindHeader has no TLV type and returns 0.
func (k FieldKind) TypeCode() uint16 {
	if k <= KindHeader || k >= kindCount {
		return 0
	}
	return uint16(k)
}

// MaskBit returns the field's bit in a VALIDATE_STAGED invalid mask:
// bit 0 for the header, bit 1+type for a TLV field.
func (k FieldKind) MaskBit() uint32 {
	if k == KindHeader {
		return 1 << 0
	}
	return 1 << (1 + uint32(k.TypeCode()))
}

// sourceWireSize is the encoded size of one DigitalSource:
// kind(1) + index(1) + threshold(4) + hysteresis(4).
const sourceWireSize = 10

// FieldDesc describes one TLV field: Count instances (one per profile),
// each at Offset0 + i*Stride, each starting with a [type u16][length
// u16] tag that must match Type and Length exactly.
type FieldDesc struct {
	Type    uint16
	Length  uint16
	Count   int
	Stride  int
	Offset0 int
}

// instanceOffset returns the tag offset of instance i.
func (d FieldDesc) instanceOffset(i int) int {
	return d.Offset0 + i*d.Stride
}

// The descriptor table is the single source of truth for the TLV
// layout; parse and build both walk it, so they cannot drift apart.
// Strides are tag size (4) plus payload length, and each field's
// Offset0 is the previous field's end.
var fieldTable = map[FieldKind]FieldDesc{
	KindProfileLabel: {
		Type:    1,
		Length:  LabelSize,
		Count:   ProfileCount,
		Stride:  4 + LabelSize,
		Offset0: 32,
	},
	KindDigitalMap: {
		Type:    2,
		Length:  DigitalCount,
		Count:   ProfileCount,
		Stride:  4 + DigitalCount,
		Offset0: 112,
	},
	KindAnalogMap: {
		Type:    3,
		Length:  AnalogCount,
		Count:   ProfileCount,
		Stride:  4 + AnalogCount,
		Offset0: 192,
	},
	KindDpadLayer: {
		Type:    4,
		Length:  4 + 5*sourceWireSize,
		Count:   ProfileCount,
		Stride:  4 + 4 + 5*sourceWireSize,
		Offset0: 228,
	},
	KindTriggerPolicy: {
		Type:    5,
		Length:  13,
		Count:   ProfileCount,
		Stride:  4 + 13,
		Offset0: 460,
	},
	KindStickCurve: {
		Type:    6,
		Length:  4*4*AnalogCount + 8,
		Count:   ProfileCount,
		Stride:  4 + 4*4*AnalogCount + 8,
		Offset0: 528,
	},
}

// Descriptor returns the TLV descriptor for a field kind.
// It panics for KindHeader or an out-of-range kind: the descriptor
// table is compile-time data and asking for a non-TLV entry is a
// programmer error.
func Descriptor(k FieldKind) FieldDesc {
	d, ok := fieldTable[k]
	if !ok {
		panic("settings: no TLV descriptor for " + k.String())
	}
	return d
}
