package settings

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
)

// Parse decodes a settings blob into a Document.
//
// Every TLV tag must match the descriptor table exactly; a mismatch
// fails with a CodecError naming the field and profile. The trailing
// CRC-32 is recomputed as a diagnostic only: a mismatch sets
// Header.CRCValid to false but does not abort, so corrupt dumps remain
// inspectable. Callers decide whether to trust a corrupt-but-parseable
// blob.
func Parse(blob []byte) (*Document, error) {
	if len(blob) != BlobSize {
		return nil, codecErrf(KindHeader, -1, "invalid blob size: got %d bytes, expected %d", len(blob), BlobSize)
	}

	doc := &Document{raw: append([]byte(nil), blob...)}
	if err := parseHeader(blob, &doc.Header); err != nil {
		return nil, err
	}
	doc.Draft.ActiveProfile = doc.Header.ActiveProfile

	for _, kind := range tlvKinds {
		desc := fieldTable[kind]
		for i := 0; i < desc.Count; i++ {
			payload, err := tlvPayload(blob, kind, desc, i)
			if err != nil {
				return nil, err
			}
			if err := decodeField(kind, i, payload, &doc.Draft); err != nil {
				return nil, err
			}
		}
	}

	// Blobs older than minor 2 stored a single DPAD mode byte and left
	// the three per-direction bytes zero. Mirror the legacy mode across
	// all four directions on read; Build always emits the current
	// layout.
	if doc.Header.VersionMinor < 2 {
		for p := range doc.Draft.DpadLayers {
			layer := &doc.Draft.DpadLayers[p]
			if layer.Modes[1] == 0 && layer.Modes[2] == 0 && layer.Modes[3] == 0 {
				layer.Modes[1] = layer.Modes[0]
				layer.Modes[2] = layer.Modes[0]
				layer.Modes[3] = layer.Modes[0]
			}
		}
	}

	return doc, nil
}

func parseHeader(blob []byte, h *Header) error {
	magic := blob[offMagic : offMagic+len(BlobMagic)]
	if !bytes.Equal(magic, []byte(BlobMagic)) {
		return codecErrf(KindHeader, -1, "bad magic %q", magic)
	}
	h.Magic = string(magic)

	h.VersionMajor = blob[offVersionMajor]
	h.VersionMinor = blob[offVersionMinor]
	if h.VersionMajor != VersionMajor {
		return codecErrf(KindHeader, -1, "unsupported schema version %d.%d", h.VersionMajor, h.VersionMinor)
	}

	h.HeaderSize = binary.LittleEndian.Uint16(blob[offHeaderSize:])
	if h.HeaderSize != HeaderSize {
		return codecErrf(KindHeader, -1, "unexpected header size %d, expected %d", h.HeaderSize, HeaderSize)
	}

	h.Generation = binary.LittleEndian.Uint32(blob[offGeneration:])
	h.ActiveProfile = blob[offActiveProfile]
	if h.ActiveProfile >= ProfileCount {
		return codecErrf(KindHeader, -1, "active profile %d out of range", h.ActiveProfile)
	}
	h.Flags = blob[offFlags]

	h.StoredCRC = binary.LittleEndian.Uint32(blob[crcOffset:])
	h.ComputedCRC = crc32.ChecksumIEEE(blob[:crcOffset])
	h.CRCValid = h.StoredCRC == h.ComputedCRC
	return nil
}

// tlvPayload validates instance i's tag against the descriptor and
// returns its payload bytes.
func tlvPayload(blob []byte, kind FieldKind, desc FieldDesc, i int) ([]byte, error) {
	off := desc.instanceOffset(i)
	typ := binary.LittleEndian.Uint16(blob[off:])
	length := binary.LittleEndian.Uint16(blob[off+2:])
	if typ != desc.Type || length != desc.Length {
		return nil, codecErrf(kind, i, "tag mismatch: got type %d length %d, expected type %d length %d",
			typ, length, desc.Type, desc.Length)
	}
	return blob[off+4 : off+4+int(desc.Length)], nil
}

func decodeField(kind FieldKind, profile int, payload []byte, draft *Draft) error {
	switch kind {
	case KindProfileLabel:
		draft.ProfileLabels[profile] = decodeLabel(payload)
	case KindDigitalMap:
		copy(draft.DigitalMappings[profile][:], payload)
	case KindAnalogMap:
		copy(draft.AnalogMappings[profile][:], payload)
	case KindDpadLayer:
		return decodeDpadLayer(profile, payload, &draft.DpadLayers[profile])
	case KindTriggerPolicy:
		p := &draft.TriggerPolicies[profile]
		p.AnalogRangeMax = getFloat32(payload[0:])
		p.DigitalFullPress = getFloat32(payload[4:])
		p.DigitalLightshield = getFloat32(payload[8:])
		p.Flags = payload[12]
	case KindStickCurve:
		decodeStickCurve(payload, &draft.StickCurves[profile])
	}
	return nil
}

func decodeLabel(payload []byte) string {
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		payload = payload[:i]
	}
	return string(payload)
}

func decodeDpadLayer(profile int, payload []byte, layer *DpadLayer) error {
	for d := 0; d < 4; d++ {
		mode := payload[d]
		if mode > byte(DpadAlways) {
			return codecErrf(KindDpadLayer, profile, "invalid mode %d for direction %s", mode, Direction(d))
		}
		layer.Modes[d] = DpadMode(mode)
	}

	off := 4
	for d := 0; d < 4; d++ {
		src, err := decodeSource(profile, payload[off:off+sourceWireSize])
		if err != nil {
			return err
		}
		layer.Bindings[d] = src
		off += sourceWireSize
	}
	mod, err := decodeSource(profile, payload[off:off+sourceWireSize])
	if err != nil {
		return err
	}
	layer.Modifier = mod
	return nil
}

func decodeSource(profile int, b []byte) (DigitalSource, error) {
	if b[0] > byte(SourceAnalogAtMost) {
		return DigitalSource{}, codecErrf(KindDpadLayer, profile, "invalid source kind %d", b[0])
	}
	return DigitalSource{
		Kind:       SourceKind(b[0]),
		Index:      b[1],
		Threshold:  getFloat32(b[2:]),
		Hysteresis: getFloat32(b[6:]),
	}, nil
}

func decodeStickCurve(payload []byte, c *StickCurveParams) {
	off := 0
	for _, arr := range []*[AnalogCount]float32{&c.Range, &c.Notch, &c.DeadzoneLower, &c.DeadzoneUpper} {
		for i := 0; i < AnalogCount; i++ {
			arr[i] = getFloat32(payload[off:])
			off += 4
		}
	}
	c.NotchStartInput = getFloat32(payload[off:])
	c.NotchEndInput = getFloat32(payload[off+4:])
}

// New builds a blob from scratch: a fresh header with the given
// generation counter, the draft's fields, zeroed unmodeled bytes and a
// valid trailing CRC. Used for factory images and tests; editing flows
// should Build from a device-read base instead to preserve unmodeled
// bytes.
func New(generation uint32, draft *Draft) ([]byte, error) {
	base := make([]byte, BlobSize)
	copy(base[offMagic:], BlobMagic)
	base[offVersionMajor] = VersionMajor
	base[offVersionMinor] = VersionMinor
	binary.LittleEndian.PutUint16(base[offHeaderSize:], HeaderSize)
	binary.LittleEndian.PutUint32(base[offGeneration:], generation)
	return Build(base, draft)
}

// Build serializes a draft into a fresh blob, starting from base.
//
// The base blob is copied first and only the modeled regions are
// overwritten, so bytes this package does not model round-trip
// untouched. The active-profile header byte, every TLV field and the
// trailing CRC-32 are rewritten. The emitted blob always uses the
// current minor layout.
func Build(base []byte, draft *Draft) ([]byte, error) {
	if len(base) != BlobSize {
		return nil, codecErrf(KindHeader, -1, "invalid base blob size: got %d bytes, expected %d", len(base), BlobSize)
	}
	if draft.ActiveProfile >= ProfileCount {
		return nil, codecErrf(KindHeader, -1, "active profile %d out of range", draft.ActiveProfile)
	}
	for p, label := range draft.ProfileLabels {
		if len(label) > LabelSize {
			return nil, codecErrf(KindProfileLabel, p, "label %q exceeds %d bytes", label, LabelSize)
		}
	}

	out := append([]byte(nil), base...)
	out[offVersionMinor] = VersionMinor
	out[offActiveProfile] = draft.ActiveProfile

	for _, kind := range tlvKinds {
		desc := fieldTable[kind]
		for i := 0; i < desc.Count; i++ {
			off := desc.instanceOffset(i)
			binary.LittleEndian.PutUint16(out[off:], desc.Type)
			binary.LittleEndian.PutUint16(out[off+2:], desc.Length)
			encodeField(kind, i, out[off+4:off+4+int(desc.Length)], draft)
		}
	}

	binary.LittleEndian.PutUint32(out[crcOffset:], crc32.ChecksumIEEE(out[:crcOffset]))
	return out, nil
}

// encodeField writes one field instance into dst, which is exactly the
// descriptor length. A payload that does not fill the descriptor length
// would mean the descriptor table and the encoders have drifted apart,
// which is a programmer error; the fixed-size writes below fail loudly
// (panic on out-of-bounds) rather than emit a short field.
func encodeField(kind FieldKind, profile int, dst []byte, draft *Draft) {
	switch kind {
	case KindProfileLabel:
		for i := range dst {
			dst[i] = 0
		}
		copy(dst, draft.ProfileLabels[profile])
	case KindDigitalMap:
		copy(dst, draft.DigitalMappings[profile][:])
	case KindAnalogMap:
		copy(dst, draft.AnalogMappings[profile][:])
	case KindDpadLayer:
		layer := &draft.DpadLayers[profile]
		for d := 0; d < 4; d++ {
			dst[d] = byte(layer.Modes[d])
		}
		off := 4
		for d := 0; d < 4; d++ {
			encodeSource(dst[off:], layer.Bindings[d])
			off += sourceWireSize
		}
		encodeSource(dst[off:], layer.Modifier)
	case KindTriggerPolicy:
		p := draft.TriggerPolicies[profile]
		putFloat32(dst[0:], p.AnalogRangeMax)
		putFloat32(dst[4:], p.DigitalFullPress)
		putFloat32(dst[8:], p.DigitalLightshield)
		dst[12] = p.Flags
	case KindStickCurve:
		c := draft.StickCurves[profile]
		off := 0
		for _, arr := range [][AnalogCount]float32{c.Range, c.Notch, c.DeadzoneLower, c.DeadzoneUpper} {
			for i := 0; i < AnalogCount; i++ {
				putFloat32(dst[off:], arr[i])
				off += 4
			}
		}
		putFloat32(dst[off:], c.NotchStartInput)
		putFloat32(dst[off+4:], c.NotchEndInput)
	}
}

func encodeSource(dst []byte, s DigitalSource) {
	dst[0] = byte(s.Kind)
	dst[1] = s.Index
	putFloat32(dst[2:], s.Threshold)
	putFloat32(dst[6:], s.Hysteresis)
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
