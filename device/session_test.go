package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/openpad/go-remap/mapping"
	"github.com/openpad/go-remap/protocol"
	"github.com/openpad/go-remap/settings"
)

// fakeAdapter emulates the device side of the protocol: it decodes
// request frames, runs a real state machine over staged and active
// blobs, and validates staged settings the same way firmware does.
type fakeAdapter struct {
	rx bytes.Buffer // host -> device, pending frames
	tx bytes.Buffer // device -> host

	sessionOpen bool
	unlocked    bool

	active     [protocol.SlotCount][]byte
	generation [protocol.SlotCount]uint32
	staged     [protocol.SlotCount][]byte
	stagedOpen [protocol.SlotCount]bool
	stagedDone [protocol.SlotCount]bool

	digitalMask uint32
	analog      [protocol.AnalogChannels]float32

	supportsInput bool
	seqSkew       uint32 // added to every echoed sequence number
	maxChunk      uint16
	readTimeout   time.Duration

	reads, writes int
}

func newFakeAdapter(t *testing.T) *fakeAdapter {
	t.Helper()

	f := &fakeAdapter{
		supportsInput: true,
		maxChunk:      64,
		digitalMask:   1 << 2,
		analog:        [protocol.AnalogChannels]float32{0.5, 0.5, 0.5, 0.5, 0},
	}
	for slot := 0; slot < protocol.SlotCount; slot++ {
		blob, err := mapping.FactoryImage(1)
		if err != nil {
			t.Fatalf("FactoryImage() error = %v", err)
		}
		f.active[slot] = blob
		f.generation[slot] = 1
	}
	return f
}

func (f *fakeAdapter) SetReadTimeout(d time.Duration) error {
	f.readTimeout = d
	return nil
}

func (f *fakeAdapter) Read(p []byte) (int, error) {
	f.reads++
	if f.tx.Len() == 0 {
		return 0, fmt.Errorf("no pending response")
	}
	return f.tx.Read(p)
}

func (f *fakeAdapter) Write(p []byte) (int, error) {
	f.writes++
	f.rx.Write(p)

	for {
		frame, consumed, err := protocol.TryDecodeFrame(f.rx.Bytes())
		if err != nil {
			return 0, fmt.Errorf("fake adapter: %w", err)
		}
		if frame == nil {
			return len(p), nil
		}
		f.rx.Next(consumed)
		f.handle(frame)
	}
}

func (f *fakeAdapter) respond(seq uint32, cmd byte, data []byte) {
	payload := append([]byte{cmd}, data...)
	frame, err := protocol.EncodeFrame(protocol.MsgResponse, seq+f.seqSkew, payload)
	if err != nil {
		panic(err)
	}
	f.tx.Write(frame)
}

func (f *fakeAdapter) fail(seq uint32, cmd, code byte) {
	frame, err := protocol.EncodeFrame(protocol.MsgError, seq+f.seqSkew, []byte{cmd, code})
	if err != nil {
		panic(err)
	}
	f.tx.Write(frame)
}

func (f *fakeAdapter) handle(frame *protocol.Frame) {
	cmd := frame.Payload[0]
	seq := frame.Seq

	switch cmd {
	case protocol.CmdGetInfo:
		data := make([]byte, protocol.GetInfoResponseSize)
		binary.LittleEndian.PutUint16(data[0:2], 1)
		binary.LittleEndian.PutUint32(data[2:6], settings.BlobSize)
		binary.LittleEndian.PutUint16(data[6:8], f.maxChunk)
		data[8] = protocol.SlotCount
		data[9] = 1
		data[10] = 2
		f.respond(seq, cmd, data)

	case protocol.CmdBeginSession:
		f.sessionOpen = true
		f.unlocked = false
		for slot := range f.staged {
			f.staged[slot] = nil
			f.stagedOpen[slot] = false
			f.stagedDone[slot] = false
		}
		f.respond(seq, cmd, nil)

	case protocol.CmdUnlockWrites:
		if !f.sessionOpen {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		f.unlocked = true
		f.respond(seq, cmd, nil)

	case protocol.CmdReadBlob:
		if !f.sessionOpen {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		slot := frame.Payload[1]
		offset := binary.LittleEndian.Uint32(frame.Payload[2:6])
		length := binary.LittleEndian.Uint32(frame.Payload[6:10])
		if int(slot) >= protocol.SlotCount || int(offset)+int(length) > len(f.active[slot]) {
			f.fail(seq, cmd, protocol.ErrBadArgument)
			return
		}
		f.respond(seq, cmd, f.active[slot][offset:offset+length])

	case protocol.CmdWriteBlobBegin:
		slot, ok := f.checkWrite(seq, cmd, frame.Payload[1])
		if !ok {
			return
		}
		size := binary.LittleEndian.Uint32(frame.Payload[2:6])
		if size != settings.BlobSize {
			f.fail(seq, cmd, protocol.ErrBadArgument)
			return
		}
		f.staged[slot] = make([]byte, size)
		f.stagedOpen[slot] = true
		f.stagedDone[slot] = false
		f.respond(seq, cmd, nil)

	case protocol.CmdWriteBlobChunk:
		slot, ok := f.checkWrite(seq, cmd, frame.Payload[1])
		if !ok {
			return
		}
		if !f.stagedOpen[slot] {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		offset := binary.LittleEndian.Uint32(frame.Payload[2:6])
		length := binary.LittleEndian.Uint32(frame.Payload[6:10])
		if int(offset)+int(length) > len(f.staged[slot]) {
			f.fail(seq, cmd, protocol.ErrBadArgument)
			return
		}
		copy(f.staged[slot][offset:], frame.Payload[10:10+length])
		f.respond(seq, cmd, nil)

	case protocol.CmdWriteBlobEnd:
		slot, ok := f.checkWrite(seq, cmd, frame.Payload[1])
		if !ok {
			return
		}
		if !f.stagedOpen[slot] {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		f.stagedOpen[slot] = false
		f.stagedDone[slot] = true
		f.respond(seq, cmd, nil)

	case protocol.CmdValidateStaged:
		if !f.sessionOpen {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		slot := frame.Payload[1]
		if int(slot) >= protocol.SlotCount || !f.stagedDone[slot] {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		data := make([]byte, protocol.ValidateResponseSize)
		binary.LittleEndian.PutUint32(data[0:4], f.stagedMask(slot))
		f.respond(seq, cmd, data)

	case protocol.CmdCommitStaged:
		slot, ok := f.checkWrite(seq, cmd, frame.Payload[1])
		if !ok {
			return
		}
		if !f.stagedDone[slot] {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		if f.stagedMask(slot) != 0 {
			f.fail(seq, cmd, protocol.ErrStagedInvalid)
			return
		}
		doc, err := settings.Parse(f.staged[slot])
		if err != nil {
			f.fail(seq, cmd, protocol.ErrInternal)
			return
		}
		f.generation[slot]++
		blob, err := settings.New(f.generation[slot], &doc.Draft)
		if err != nil {
			f.fail(seq, cmd, protocol.ErrInternal)
			return
		}
		f.active[slot] = blob
		f.stagedDone[slot] = false
		data := make([]byte, protocol.CommitResponseSize)
		binary.LittleEndian.PutUint32(data, f.generation[slot])
		f.respond(seq, cmd, data)

	case protocol.CmdResetDefaults:
		slot, ok := f.checkWrite(seq, cmd, frame.Payload[1])
		if !ok {
			return
		}
		f.generation[slot]++
		blob, err := mapping.FactoryImage(f.generation[slot])
		if err != nil {
			f.fail(seq, cmd, protocol.ErrInternal)
			return
		}
		f.active[slot] = blob
		data := make([]byte, protocol.ResetDefaultsResponseSize)
		binary.LittleEndian.PutUint32(data, f.generation[slot])
		f.respond(seq, cmd, data)

	case protocol.CmdFactoryReset:
		if _, ok := f.checkWrite(seq, cmd, 0); !ok {
			return
		}
		data := make([]byte, protocol.FactoryResetResponseSize)
		for slot := 0; slot < protocol.SlotCount; slot++ {
			f.generation[slot]++
			blob, err := mapping.FactoryImage(f.generation[slot])
			if err != nil {
				f.fail(seq, cmd, protocol.ErrInternal)
				return
			}
			f.active[slot] = blob
			binary.LittleEndian.PutUint32(data[slot*4:], f.generation[slot])
		}
		f.respond(seq, cmd, data)

	case protocol.CmdReboot:
		// No response; the device restarts.
		f.sessionOpen = false
		f.unlocked = false
		f.tx.Reset()

	case protocol.CmdGetInputState:
		if !f.supportsInput {
			f.fail(seq, cmd, protocol.ErrBadCommand)
			return
		}
		if !f.sessionOpen {
			f.fail(seq, cmd, protocol.ErrBadState)
			return
		}
		data := make([]byte, protocol.InputStateResponseSize)
		binary.LittleEndian.PutUint32(data[0:4], f.digitalMask)
		for i, v := range f.analog {
			binary.LittleEndian.PutUint32(data[4+4*i:], math.Float32bits(v))
		}
		f.respond(seq, cmd, data)

	default:
		f.fail(seq, cmd, protocol.ErrBadCommand)
	}
}

func (f *fakeAdapter) checkWrite(seq uint32, cmd, slot byte) (byte, bool) {
	if !f.sessionOpen {
		f.fail(seq, cmd, protocol.ErrBadState)
		return 0, false
	}
	if !f.unlocked {
		f.fail(seq, cmd, protocol.ErrWritesLocked)
		return 0, false
	}
	if int(slot) >= protocol.SlotCount {
		f.fail(seq, cmd, protocol.ErrBadArgument)
		return 0, false
	}
	return slot, true
}

// stagedMask validates a staged blob the way firmware does: structural
// header checks, then the field-level draft rules.
func (f *fakeAdapter) stagedMask(slot byte) uint32 {
	doc, err := settings.Parse(f.staged[slot])
	if err != nil {
		return protocol.MaskHeader
	}
	if !doc.Header.CRCValid {
		return protocol.MaskHeader
	}
	return mapping.IssueMask(mapping.Validate(&doc.Draft))
}

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *mockLogger) Debug(msg string, kv ...interface{}) { l.debugMsgs = append(l.debugMsgs, msg) }
func (l *mockLogger) Info(msg string, kv ...interface{})  { l.infoMsgs = append(l.infoMsgs, msg) }
func (l *mockLogger) Error(msg string, kv ...interface{}) { l.errorMsgs = append(l.errorMsgs, msg) }

// openSession returns a session advanced to the requested state.
func openSession(t *testing.T, f *fakeAdapter, target State, opts ...Option) *Session {
	t.Helper()

	s := NewSession(f, opts...)
	ctx := context.Background()

	if target >= StateConnected {
		if _, err := s.Connect(ctx); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
	}
	if target >= StateSessionLocked {
		if err := s.BeginSession(ctx); err != nil {
			t.Fatalf("BeginSession() error = %v", err)
		}
	}
	if target >= StateSessionUnlocked {
		if err := s.UnlockWrites(ctx); err != nil {
			t.Fatalf("UnlockWrites() error = %v", err)
		}
	}
	return s
}

func TestConnect(t *testing.T) {
	f := newFakeAdapter(t)
	s := NewSession(f, WithReadTimeout(750*time.Millisecond))

	info, err := s.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if info.BlobSize != settings.BlobSize {
		t.Errorf("BlobSize = %d, want %d", info.BlobSize, settings.BlobSize)
	}
	if info.MaxChunk != 64 {
		t.Errorf("MaxChunk = %d, want 64", info.MaxChunk)
	}
	if s.State() != StateConnected {
		t.Errorf("State() = %v, want StateConnected", s.State())
	}
	if f.readTimeout != 750*time.Millisecond {
		t.Errorf("transport read timeout = %v, want 750ms", f.readTimeout)
	}

	if _, err := s.Connect(context.Background()); err == nil {
		t.Error("second Connect() did not fail")
	}
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		state State
		op    func(*Session) error
	}{
		{"begin session before connect", StateDisconnected, func(s *Session) error {
			return s.BeginSession(ctx)
		}},
		{"unlock before session", StateConnected, func(s *Session) error {
			return s.UnlockWrites(ctx)
		}},
		{"read blob before session", StateConnected, func(s *Session) error {
			_, err := s.ReadBlob(ctx, protocol.SlotPrimary)
			return err
		}},
		{"write blob while locked", StateSessionLocked, func(s *Session) error {
			return s.WriteBlob(ctx, protocol.SlotPrimary, make([]byte, settings.BlobSize))
		}},
		{"commit while locked", StateSessionLocked, func(s *Session) error {
			_, err := s.CommitStaged(ctx, protocol.SlotPrimary)
			return err
		}},
		{"factory reset while locked", StateSessionLocked, func(s *Session) error {
			_, _, err := s.FactoryReset(ctx)
			return err
		}},
		{"input state before session", StateConnected, func(s *Session) error {
			_, err := s.ReadInputState(ctx)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openSession(t, newFakeAdapter(t), tt.state)
			err := tt.op(s)
			var stateErr *StateError
			if !errors.As(err, &stateErr) {
				t.Fatalf("error = %v, want *StateError", err)
			}
			if stateErr.State != tt.state {
				t.Errorf("StateError.State = %v, want %v", stateErr.State, tt.state)
			}
		})
	}
}

func TestReadDocument(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)

	doc, err := s.ReadDocument(context.Background(), protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if !doc.Header.CRCValid {
		t.Error("factory blob read back with invalid CRC")
	}
	if doc.Header.Generation != 1 {
		t.Errorf("Generation = %d, want 1", doc.Header.Generation)
	}
	if doc.Draft.ProfileLabels[0] != "Profile 1" {
		t.Errorf("label = %q, want %q", doc.Draft.ProfileLabels[0], "Profile 1")
	}
	if issues := mapping.Validate(&doc.Draft); mapping.HasErrors(issues) {
		t.Errorf("factory draft has validation errors: %v", issues)
	}
}

func TestChunkedRead(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked, WithChunkSize(100))

	writesBefore := f.writes
	blob, err := s.ReadBlob(context.Background(), protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadBlob() error = %v", err)
	}
	if !bytes.Equal(blob, f.active[protocol.SlotPrimary]) {
		t.Error("read blob differs from the device's active blob")
	}

	// The device caps chunks at 64 bytes, so a 1024-byte blob takes 16
	// round trips regardless of the larger host-side setting.
	if got := f.writes - writesBefore; got != 16 {
		t.Errorf("read used %d round trips, want 16", got)
	}
}

func TestSaveDocumentRoundTrip(t *testing.T) {
	f := newFakeAdapter(t)

	var phases []string
	s := openSession(t, f, StateSessionUnlocked, WithProgressCallback(func(p Progress) {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}))
	ctx := context.Background()

	doc, err := s.ReadDocument(ctx, protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}

	edited, err := mapping.SetDigital(&doc.Draft, 0, mapping.ButtonTarget(settings.ButtonA), settings.ButtonB)
	if err != nil {
		t.Fatalf("SetDigital() error = %v", err)
	}
	doc.Draft = *edited

	generation, err := s.SaveDocument(ctx, protocol.SlotPrimary, doc)
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	if generation != 2 {
		t.Errorf("generation = %d, want 2", generation)
	}
	if doc.Header.Generation != 2 {
		t.Errorf("document generation = %d, want 2", doc.Header.Generation)
	}

	back, err := s.ReadDocument(ctx, protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadDocument() after save error = %v", err)
	}
	if back.Draft.DigitalMappings[0][settings.ButtonA] != settings.ButtonB {
		t.Error("saved mapping not present after read-back")
	}
	if back.Header.Generation != 2 {
		t.Errorf("read-back generation = %d, want 2", back.Header.Generation)
	}

	want := []string{PhaseReading, PhaseWriting, PhaseValidating, PhaseCommitting, PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
}

func TestSaveDocumentHostValidation(t *testing.T) {
	f := newFakeAdapter(t)
	logger := &mockLogger{}
	s := openSession(t, f, StateSessionUnlocked, WithLogger(logger))
	ctx := context.Background()

	doc, err := s.ReadDocument(ctx, protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	doc.Draft.DpadLayers[0].Bindings[settings.DirUp].Threshold = 2.5

	writesBefore := f.writes
	_, err = s.SaveDocument(ctx, protocol.SlotPrimary, doc)

	var vErr *ValidationFailedError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationFailedError", err)
	}
	if vErr.Mask&settings.KindDpadLayer.MaskBit() == 0 {
		t.Errorf("mask = %#x, missing dpad layer bit", vErr.Mask)
	}
	if f.writes != writesBefore {
		t.Error("rejected draft still reached the device")
	}
	if len(logger.errorMsgs) == 0 {
		t.Error("rejected draft logged nothing")
	}
}

// The device runs the same field checks on a staged blob; with host
// validation off, the bad draft must be caught by VALIDATE_STAGED and
// never committed.
func TestSaveDocumentDeviceValidation(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionUnlocked, WithHostValidation(false))
	ctx := context.Background()

	doc, err := s.ReadDocument(ctx, protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	doc.Draft.DpadLayers[0].Bindings[settings.DirUp].Threshold = 2.5

	_, err = s.SaveDocument(ctx, protocol.SlotPrimary, doc)

	var vErr *ValidationFailedError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationFailedError", err)
	}
	if vErr.Mask&settings.KindDpadLayer.MaskBit() == 0 {
		t.Errorf("mask = %#x, missing dpad layer bit", vErr.Mask)
	}
	if f.generation[protocol.SlotPrimary] != 1 {
		t.Errorf("generation = %d after rejected save, want 1", f.generation[protocol.SlotPrimary])
	}
	if s.State() != StateSessionUnlocked {
		t.Errorf("State() = %v after device rejection, want session to stay usable", s.State())
	}
}

func TestDeviceErrorKeepsSession(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)
	ctx := context.Background()

	cmd, err := protocol.BuildReadBlobCmd(9, 0, 16)
	if err != nil {
		t.Fatalf("BuildReadBlobCmd() error = %v", err)
	}
	s.mu.Lock()
	_, err = s.roundTrip(ctx, cmd)
	s.mu.Unlock()

	var devErr *protocol.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("error = %v, want *protocol.DeviceError", err)
	}
	if devErr.Code != protocol.ErrBadArgument {
		t.Errorf("Code = %#x, want ErrBadArgument", devErr.Code)
	}

	// The connection survives a device rejection.
	if s.State() != StateSessionLocked {
		t.Fatalf("State() = %v, want StateSessionLocked", s.State())
	}
	if _, err := s.ReadBlob(ctx, protocol.SlotPrimary); err != nil {
		t.Errorf("ReadBlob() after device error = %v", err)
	}
}

func TestDesyncOnSequenceMismatch(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)
	f.seqSkew = 5

	_, err := s.ReadBlob(context.Background(), protocol.SlotPrimary)
	var desync *DesyncError
	if !errors.As(err, &desync) {
		t.Fatalf("error = %v, want *DesyncError", err)
	}
	if s.State() != StateDisconnected {
		t.Errorf("State() = %v after desync, want StateDisconnected", s.State())
	}

	// Everything after a desync is rejected until the transport is
	// reopened.
	if err := s.BeginSession(context.Background()); err == nil {
		t.Error("BeginSession() succeeded on a desynchronized session")
	}
}

func TestDesyncOnCorruptFrame(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)

	// Queue a response, then flip one payload bit before the host reads
	// it.
	cmd, _ := protocol.BuildReadBlobCmd(protocol.SlotPrimary, 0, 16)
	frame, _ := protocol.EncodeFrame(protocol.MsgRequest, 99, cmd)
	if _, err := f.Write(frame); err != nil {
		t.Fatalf("fake write error = %v", err)
	}
	corrupted := f.tx.Bytes()
	corrupted[protocol.HeaderSize] ^= 0x01

	s.mu.Lock()
	_, err := s.readFrame(context.Background())
	s.mu.Unlock()

	var desync *DesyncError
	if !errors.As(err, &desync) {
		t.Fatalf("error = %v, want *DesyncError", err)
	}
	var framing *protocol.FramingError
	if !errors.As(err, &framing) {
		t.Errorf("DesyncError does not wrap the FramingError: %v", err)
	}
	if s.State() != StateDisconnected {
		t.Errorf("State() = %v, want StateDisconnected", s.State())
	}
}

func TestResetDefaults(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionUnlocked)
	ctx := context.Background()

	doc, _ := s.ReadDocument(ctx, protocol.SlotPrimary)
	edited, err := mapping.ClearAll(&doc.Draft, 0)
	if err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	doc.Draft = *edited
	if _, err := s.SaveDocument(ctx, protocol.SlotPrimary, doc); err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}

	generation, err := s.ResetDefaults(ctx, protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ResetDefaults() error = %v", err)
	}
	if generation != 3 {
		t.Errorf("generation = %d, want 3", generation)
	}

	back, err := s.ReadDocument(ctx, protocol.SlotPrimary)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if back.Draft.DigitalMappings[0] != mapping.DefaultDigitalMapping(mapping.LayoutStandard) {
		t.Error("slot not restored to factory mapping")
	}
}

func TestFactoryReset(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionUnlocked)

	gen0, gen1, err := s.FactoryReset(context.Background())
	if err != nil {
		t.Fatalf("FactoryReset() error = %v", err)
	}
	if gen0 != 2 || gen1 != 2 {
		t.Errorf("generations = %d, %d, want 2, 2", gen0, gen1)
	}
}

func TestReboot(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionUnlocked)

	if err := s.Reboot(context.Background()); err != nil {
		t.Fatalf("Reboot() error = %v", err)
	}
	if s.State() != StateDisconnected {
		t.Errorf("State() = %v after reboot, want StateDisconnected", s.State())
	}
	if f.sessionOpen {
		t.Error("device session still open after reboot")
	}
}

func TestReadInputState(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)

	state, err := s.ReadInputState(context.Background())
	if err != nil {
		t.Fatalf("ReadInputState() error = %v", err)
	}
	if state.DigitalMask != f.digitalMask {
		t.Errorf("DigitalMask = %#x, want %#x", state.DigitalMask, f.digitalMask)
	}
	if state.Analog != f.analog {
		t.Errorf("Analog = %v, want %v", state.Analog, f.analog)
	}
}

func TestInputStateFeatureDetection(t *testing.T) {
	f := newFakeAdapter(t)
	f.supportsInput = false
	s := openSession(t, f, StateSessionLocked)

	_, err := s.ReadInputState(context.Background())
	if err == nil {
		t.Fatal("ReadInputState() succeeded on firmware without the command")
	}
	if !protocol.IsUnsupported(err) {
		t.Errorf("IsUnsupported() = false for %v", err)
	}
	if s.State() != StateSessionLocked {
		t.Errorf("State() = %v, unsupported command must not drop the session", s.State())
	}
}

func TestInputPoller(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)

	samples := make(chan protocol.InputState, 16)
	p := NewInputPoller(s, func(st protocol.InputState) {
		select {
		case samples <- st:
		default:
		}
	}, WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case st := <-samples:
		if st.DigitalMask != f.digitalMask {
			t.Errorf("sample DigitalMask = %#x, want %#x", st.DigitalMask, f.digitalMask)
		}
	case <-time.After(time.Second):
		t.Fatal("no sample within 1s")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil on cancellation", err)
	}
}

func TestInputPollerSkipsBusyTicks(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)

	// Hold the session as a long transfer would.
	s.mu.Lock()
	state, ok, err := s.tryReadInputState(context.Background())
	s.mu.Unlock()

	if err != nil {
		t.Fatalf("tryReadInputState() error = %v", err)
	}
	if ok || state != nil {
		t.Error("busy session still produced a sample")
	}
}

func TestInputPollerStopsWhenUnsupported(t *testing.T) {
	f := newFakeAdapter(t)
	f.supportsInput = false
	s := openSession(t, f, StateSessionLocked)

	p := NewInputPoller(s, func(protocol.InputState) {
		t.Error("sample delivered by unsupported firmware")
	}, WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.Run(ctx)
	if err == nil {
		t.Fatal("Run() returned nil for unsupported firmware")
	}
	if !protocol.IsUnsupported(err) {
		t.Errorf("IsUnsupported() = false for %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	f := newFakeAdapter(t)
	s := openSession(t, f, StateSessionLocked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.ReadBlob(ctx, protocol.SlotPrimary); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadBlob() error = %v, want context.Canceled", err)
	}
}
