package settings

// Profile and input-space dimensions. These are fixed by the settings
// schema; the descriptor table and the draft arrays are sized by them
// at compile time, so a draft can never carry a wrong-length list.
const (
	// ProfileCount is the number of configuration profiles per slot
	ProfileCount = 4

	// DigitalCount is the number of digital inputs and destinations
	DigitalCount = 16

	// AnalogCount is the number of analog channels
	AnalogCount = 5

	// DisabledSource is the sentinel marking an unbound destination
	DisabledSource = 0xFF

	// LabelSize is the on-wire size of a profile label (NUL padded)
	LabelSize = 16
)

// Digital destination/input indices. The mapping tables are gather
// tables, so the same index space names both a physical input and a
// logical destination.
const (
	ButtonA = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonZ
	ButtonL
	ButtonR
	ButtonStart
	ButtonDpadUp
	ButtonDpadDown
	ButtonDpadLeft
	ButtonDpadRight
	ButtonLightshield
	ButtonModifier
	ButtonSpare
	ButtonHome // fixed system button, locked
)

// Analog channel indices.
const (
	AxisStickX = iota
	AxisStickY
	AxisCStickX
	AxisCStickY
	AxisTrigger
)

// SourceKind discriminates the DigitalSource variants.
type SourceKind byte

const (
	// SourceNone is an unbound source
	SourceNone SourceKind = 0

	// SourceDigital reads one physical digital input
	SourceDigital SourceKind = 1

	// SourceAnalogAtLeast fires while an analog channel is at or above
	// a threshold, with hysteresis on release
	SourceAnalogAtLeast SourceKind = 2

	// SourceAnalogAtMost fires while an analog channel is at or below
	// a threshold, with hysteresis on release
	SourceAnalogAtMost SourceKind = 3
)

// DigitalSource is a tagged digital-signal selector: nothing, a physical
// button, or an analog channel compared against a threshold.
type DigitalSource struct {
	Kind SourceKind

	// Index is a digital input for SourceDigital, an analog channel for
	// the analog kinds, and ignored for SourceNone.
	Index byte

	// Threshold in [0,1] and Hysteresis in [0,0.5] apply to the analog
	// kinds only.
	Threshold  float32
	Hysteresis float32
}

// NoSource returns the unbound DigitalSource.
func NoSource() DigitalSource {
	return DigitalSource{Kind: SourceNone}
}

// Direction indexes the four DPAD layer directions.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "invalid"
	}
}

// DpadMode selects how one DPAD layer direction produces output.
type DpadMode byte

const (
	// DpadDisabled produces no output
	DpadDisabled DpadMode = 0

	// DpadWithModifier produces output only while the layer's modifier
	// source is active
	DpadWithModifier DpadMode = 1

	// DpadAlways produces output whenever the bound source is active
	DpadAlways DpadMode = 2
)

// DpadLayer is the modifier-gated secondary remapping layer: four
// independent directions sharing one modifier source.
type DpadLayer struct {
	// Modes holds each direction's mode, indexed by Direction
	Modes [4]DpadMode

	// Bindings holds each direction's bound source, indexed by Direction
	Bindings [4]DigitalSource

	// Modifier gates every direction whose mode is DpadWithModifier
	Modifier DigitalSource
}

// TriggerPolicy flag bits.
const (
	// TriggerFlagAnalogLeft routes the analog trigger value to the left
	// logical trigger instead of the right
	TriggerFlagAnalogLeft byte = 1 << 0

	// TriggerFlagClampLightshield clamps the analog trigger value to
	// the lightshield threshold
	TriggerFlagClampLightshield byte = 1 << 1
)

// TriggerPolicy controls how digital and analog trigger signals combine
// into the two logical trigger outputs.
type TriggerPolicy struct {
	// AnalogRangeMax scales the curved analog trigger value, in [0,1]
	AnalogRangeMax float32

	// DigitalFullPress is the output for a pressed digital trigger, in [0,1]
	DigitalFullPress float32

	// DigitalLightshield is the output for a pressed lightshield
	// button, in [0,1] and at most DigitalFullPress
	DigitalLightshield float32

	// Flags is a bitset of TriggerFlag values
	Flags byte
}

// StickCurveParams describes the piecewise-linear response curve, with
// one entry per analog channel plus two shared notch positions.
//
// The curve for channel c interpolates linearly between six control
// points (input, output):
//
//	(0, 0)
//	(DeadzoneLower[c], 0)
//	(NotchStartInput, Notch[c])
//	(NotchEndInput,   Notch[c])
//	(DeadzoneUpper[c], Range[c])
//	(1, Range[c])
type StickCurveParams struct {
	Range         [AnalogCount]float32
	Notch         [AnalogCount]float32
	DeadzoneLower [AnalogCount]float32
	DeadzoneUpper [AnalogCount]float32

	NotchStartInput float32
	NotchEndInput   float32
}

// Draft is the host-side editable representation of a parsed blob.
//
// Every field is a fixed-size value type, so assignment is a deep copy:
// two drafts never alias, and undo/compare/cancel need no rollback
// bookkeeping.
type Draft struct {
	ActiveProfile byte

	ProfileLabels [ProfileCount]string

	// DigitalMappings and AnalogMappings are gather tables:
	// mapping[profile][destination] = source index, or DisabledSource.
	DigitalMappings [ProfileCount][DigitalCount]byte
	AnalogMappings  [ProfileCount][AnalogCount]byte

	DpadLayers      [ProfileCount]DpadLayer
	TriggerPolicies [ProfileCount]TriggerPolicy
	StickCurves     [ProfileCount]StickCurveParams
}

// Clone returns an independent deep copy of the draft.
func (d *Draft) Clone() *Draft {
	c := *d
	return &c
}

// Header is the decoded fixed-offset blob header.
type Header struct {
	// Magic is the 8-byte magic string ("CTRLCFG1")
	Magic string

	VersionMajor byte
	VersionMinor byte

	// HeaderSize is the stored header size in bytes
	HeaderSize uint16

	// Generation is the slot's commit counter, owned by the device
	Generation uint32

	ActiveProfile byte
	Flags         byte

	// StoredCRC is the trailing CRC-32 read from the blob and
	// ComputedCRC the one recomputed over the preceding bytes.
	// CRCValid records whether they agree. Parsing never aborts on a
	// mismatch; every consumer must check CRCValid explicitly before
	// trusting the blob.
	StoredCRC   uint32
	ComputedCRC uint32
	CRCValid    bool
}

// Document is a parsed settings blob: the decoded header, the editable
// draft, and the original bytes for copy-then-patch re-encoding.
type Document struct {
	Header Header
	Draft  Draft

	raw []byte
}

// Clone returns an independent deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.raw = append([]byte(nil), d.raw...)
	return &c
}

// Encode serializes the document's draft back into blob bytes, starting
// from the originally parsed blob so unmodeled bytes round-trip.
func (d *Document) Encode() ([]byte, error) {
	return Build(d.raw, &d.Draft)
}
