package device

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/openpad/go-remap/mapping"
	"github.com/openpad/go-remap/protocol"
	"github.com/openpad/go-remap/settings"
)

// State is the host-side session state. It mirrors the device's own
// state machine so illegal requests are rejected before they reach the
// wire.
type State int

const (
	// StateDisconnected means no handshake has completed, or the stream
	// desynchronized and the transport must be reopened
	StateDisconnected State = iota

	// StateConnected means GET_INFO succeeded but no session is open
	StateConnected

	// StateSessionLocked means a session is open with writes still locked
	StateSessionLocked

	// StateSessionUnlocked means destructive commands are armed
	StateSessionUnlocked
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateSessionLocked:
		return "session (writes locked)"
	case StateSessionUnlocked:
		return "session (writes unlocked)"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// readTimeoutSetter is implemented by transports with read deadlines,
// including go.bug.st/serial ports.
type readTimeoutSetter interface {
	SetReadTimeout(time.Duration) error
}

// Session drives the configurator protocol over one device transport.
// It owns the request/response cycle: at most one command is in flight
// at a time, and every public operation is safe for concurrent use.
type Session struct {
	device io.ReadWriter
	config Config

	mu    sync.Mutex
	state State
	seq   uint32
	rx    []byte
	info  *protocol.DeviceInfo
}

// NewSession creates a Session over an open transport. The transport
// must implement io.ReadWriter; see the transport package for openers.
//
// Example:
//
//	port, _ := transport.OpenSerial("/dev/ttyACM0")
//	sess := device.NewSession(port,
//	    device.WithProgressCallback(progressFunc),
//	    device.WithReadTimeout(2*time.Second),
//	)
func NewSession(dev io.ReadWriter, opts ...Option) *Session {
	if dev == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		device: dev,
		config: cfg,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns the capabilities reported by the device at Connect, or
// nil before a successful Connect.
func (s *Session) Info() *protocol.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Connect performs the GET_INFO handshake and verifies the device is
// compatible. It is the only operation valid on a fresh session.
func (s *Session) Connect(ctx context.Context) (*protocol.DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDisconnected {
		return nil, &StateError{Op: "connect", State: s.state}
	}

	if t, ok := s.device.(readTimeoutSetter); ok && s.config.ReadTimeout > 0 {
		if err := t.SetReadTimeout(s.config.ReadTimeout); err != nil {
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}

	data, err := s.roundTrip(ctx, protocol.BuildGetInfoCmd())
	if err != nil {
		return nil, err
	}
	info, err := protocol.ParseGetInfoResponse(data)
	if err != nil {
		return nil, err
	}

	if info.BlobSize != settings.BlobSize {
		return nil, &IncompatibleDeviceError{
			Reason: fmt.Sprintf("blob size %d, this library handles %d", info.BlobSize, settings.BlobSize),
		}
	}
	if info.MaxChunk == 0 {
		return nil, &IncompatibleDeviceError{Reason: "device reports zero max chunk size"}
	}

	s.logDebug("connected",
		"schema_id", info.SchemaID,
		"fw", fmt.Sprintf("%d.%d", info.FirmwareMajor, info.FirmwareMinor),
		"slots", info.SlotCount,
		"max_chunk", info.MaxChunk,
	)

	s.info = info
	s.state = StateConnected
	return info, nil
}

// BeginSession opens a configuration session. The device discards any
// staged buffers and returns to the writes-locked state, so BeginSession
// also serves as a reset from an unlocked session.
func (s *Session) BeginSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return &StateError{Op: "begin session", State: s.state}
	}

	if _, err := s.roundTrip(ctx, protocol.BuildBeginSessionCmd()); err != nil {
		return err
	}
	s.state = StateSessionLocked
	return nil
}

// UnlockWrites arms destructive commands for the current session.
func (s *Session) UnlockWrites(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSessionLocked && s.state != StateSessionUnlocked {
		return &StateError{Op: "unlock writes", State: s.state}
	}

	if _, err := s.roundTrip(ctx, protocol.BuildUnlockWritesCmd()); err != nil {
		return err
	}
	s.state = StateSessionUnlocked
	return nil
}

// ReadBlob downloads a slot's active settings blob in chunks sized to
// the device's reported maximum.
func (s *Session) ReadBlob(ctx context.Context, slot byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSessionLocked && s.state != StateSessionUnlocked {
		return nil, &StateError{Op: "read blob", State: s.state}
	}

	start := time.Now()
	total := int(s.info.BlobSize)
	chunk := s.chunkSize()
	blob := make([]byte, 0, total)

	for offset := 0; offset < total; {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		n := total - offset
		if n > chunk {
			n = chunk
		}

		cmd, err := protocol.BuildReadBlobCmd(slot, uint32(offset), uint32(n))
		if err != nil {
			return nil, err
		}
		data, err := s.roundTrip(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("read blob at offset %d: %w", offset, err)
		}
		if len(data) != n {
			return nil, fmt.Errorf("read blob at offset %d: got %d bytes, expected %d", offset, len(data), n)
		}

		blob = append(blob, data...)
		offset += n

		s.reportProgress(Progress{
			Phase:      PhaseReading,
			BytesDone:  offset,
			BytesTotal: total,
			Percentage: float64(offset) / float64(total) * 100,
			Elapsed:    time.Since(start),
		})
	}

	return blob, nil
}

// ReadDocument downloads and parses a slot's active settings blob.
// The returned document's CRCValid flag must be checked before the
// draft is trusted for editing.
func (s *Session) ReadDocument(ctx context.Context, slot byte) (*settings.Document, error) {
	blob, err := s.ReadBlob(ctx, slot)
	if err != nil {
		return nil, err
	}
	return settings.Parse(blob)
}

// WriteBlob stages a complete settings blob on the device. The staged
// data replaces nothing until CommitStaged.
func (s *Session) WriteBlob(ctx context.Context, slot byte, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeBlobLocked(ctx, slot, blob, time.Now())
}

func (s *Session) writeBlobLocked(ctx context.Context, slot byte, blob []byte, start time.Time) error {
	if s.state != StateSessionUnlocked {
		return &StateError{Op: "write blob", State: s.state}
	}
	if len(blob) != int(s.info.BlobSize) {
		return fmt.Errorf("blob is %d bytes, device expects %d", len(blob), s.info.BlobSize)
	}

	cmd, err := protocol.BuildWriteBlobBeginCmd(slot, uint32(len(blob)))
	if err != nil {
		return err
	}
	if _, err := s.roundTrip(ctx, cmd); err != nil {
		return fmt.Errorf("begin staged write: %w", err)
	}

	chunk := s.chunkSize()
	for offset := 0; offset < len(blob); {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		end := offset + chunk
		if end > len(blob) {
			end = len(blob)
		}

		cmd, err := protocol.BuildWriteBlobChunkCmd(slot, uint32(offset), blob[offset:end])
		if err != nil {
			return err
		}
		if _, err := s.roundTrip(ctx, cmd); err != nil {
			return fmt.Errorf("write chunk at offset %d: %w", offset, err)
		}
		offset = end

		s.reportProgress(Progress{
			Phase:      PhaseWriting,
			BytesDone:  offset,
			BytesTotal: len(blob),
			Percentage: float64(offset) / float64(len(blob)) * 100,
			Elapsed:    time.Since(start),
		})
	}

	if _, err := s.roundTrip(ctx, protocol.BuildWriteBlobEndCmd(slot)); err != nil {
		return fmt.Errorf("end staged write: %w", err)
	}
	return nil
}

// ValidateStaged asks the device to validate the blob staged in a slot.
func (s *Session) ValidateStaged(ctx context.Context, slot byte) (*protocol.ValidationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateStagedLocked(ctx, slot)
}

func (s *Session) validateStagedLocked(ctx context.Context, slot byte) (*protocol.ValidationReport, error) {
	if s.state != StateSessionLocked && s.state != StateSessionUnlocked {
		return nil, &StateError{Op: "validate staged", State: s.state}
	}

	data, err := s.roundTrip(ctx, protocol.BuildValidateStagedCmd(slot))
	if err != nil {
		return nil, err
	}
	return protocol.ParseValidateResponse(data)
}

// CommitStaged atomically promotes a slot's staged blob to active.
// Returns the slot's new generation counter.
func (s *Session) CommitStaged(ctx context.Context, slot byte) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitStagedLocked(ctx, slot)
}

func (s *Session) commitStagedLocked(ctx context.Context, slot byte) (uint32, error) {
	if s.state != StateSessionUnlocked {
		return 0, &StateError{Op: "commit staged", State: s.state}
	}

	data, err := s.roundTrip(ctx, protocol.BuildCommitStagedCmd(slot))
	if err != nil {
		return 0, err
	}
	return protocol.ParseCommitResponse(data)
}

// SaveDocument runs the full save sequence for an edited document:
// host-side validation, staged write, device-side validation, commit,
// and a generation check against the document's base generation. On
// success the document's generation is advanced to the committed value
// and returned.
//
// A failure before CommitStaged leaves the slot's active blob
// untouched.
func (s *Session) SaveDocument(ctx context.Context, slot byte, doc *settings.Document) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSessionUnlocked {
		return 0, &StateError{Op: "save document", State: s.state}
	}
	// Re-encoding would stamp a fresh CRC over whatever the corrupt blob
	// held in its unmodeled regions, so a bad parse is refused here.
	if !doc.Header.CRCValid {
		return 0, fmt.Errorf("document parsed with a CRC mismatch, refusing to save")
	}

	if s.config.HostValidation {
		if issues := mapping.Validate(&doc.Draft); mapping.HasErrors(issues) {
			for _, issue := range issues {
				s.logError("draft rejected", "issue", issue.String())
			}
			return 0, &ValidationFailedError{Mask: mapping.IssueMask(issues)}
		}
	}

	blob, err := doc.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode settings: %w", err)
	}

	start := time.Now()
	if err := s.writeBlobLocked(ctx, slot, blob, start); err != nil {
		return 0, err
	}

	s.reportProgress(Progress{
		Phase:      PhaseValidating,
		BytesDone:  len(blob),
		BytesTotal: len(blob),
		Percentage: 100,
		Elapsed:    time.Since(start),
	})
	report, err := s.validateStagedLocked(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("validate staged: %w", err)
	}
	if !report.OK() {
		return 0, &ValidationFailedError{Mask: report.InvalidMask, Repaired: report.Repaired}
	}

	s.reportProgress(Progress{
		Phase:      PhaseCommitting,
		BytesDone:  len(blob),
		BytesTotal: len(blob),
		Percentage: 100,
		Elapsed:    time.Since(start),
	})
	generation, err := s.commitStagedLocked(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("commit staged: %w", err)
	}
	if generation <= doc.Header.Generation {
		return 0, &GenerationError{Base: doc.Header.Generation, Committed: generation}
	}

	doc.Header.Generation = generation
	s.reportProgress(Progress{
		Phase:      PhaseComplete,
		BytesDone:  len(blob),
		BytesTotal: len(blob),
		Percentage: 100,
		Elapsed:    time.Since(start),
	})
	s.logInfo("settings saved", "slot", slot, "generation", generation, "elapsed", time.Since(start).String())

	return generation, nil
}

// ResetDefaults restores one slot to factory settings. Returns the
// slot's new generation counter.
func (s *Session) ResetDefaults(ctx context.Context, slot byte) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSessionUnlocked {
		return 0, &StateError{Op: "reset defaults", State: s.state}
	}

	data, err := s.roundTrip(ctx, protocol.BuildResetDefaultsCmd(slot))
	if err != nil {
		return 0, err
	}
	return protocol.ParseResetDefaultsResponse(data)
}

// FactoryReset restores every slot to factory settings. Returns the new
// generation counter for each slot.
func (s *Session) FactoryReset(ctx context.Context) (gen0, gen1 uint32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSessionUnlocked {
		return 0, 0, &StateError{Op: "factory reset", State: s.state}
	}

	data, err := s.roundTrip(ctx, protocol.BuildFactoryResetCmd())
	if err != nil {
		return 0, 0, err
	}
	return protocol.ParseFactoryResetResponse(data)
}

// Reboot restarts the device. The device sends no response; the session
// drops to Disconnected and the transport must be reopened.
func (s *Session) Reboot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return &StateError{Op: "reboot", State: s.state}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	frame, err := protocol.EncodeFrame(protocol.MsgRequest, s.nextSeq(), protocol.BuildRebootCmd())
	if err != nil {
		return err
	}
	// Fire-and-forget: the device restarts without answering.
	_, _ = s.device.Write(frame)

	s.state = StateDisconnected
	s.info = nil
	s.rx = nil
	return nil
}

// ReadInputState samples the device's live input pipeline. Older
// firmware answers ErrBadCommand; protocol.IsUnsupported identifies
// that case for feature detection.
func (s *Session) ReadInputState(ctx context.Context) (*protocol.InputState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readInputStateLocked(ctx)
}

// tryReadInputState samples the input pipeline only if no other request
// is in flight. It returns ok=false, with no error, when the session is
// busy.
func (s *Session) tryReadInputState(ctx context.Context) (state *protocol.InputState, ok bool, err error) {
	if !s.mu.TryLock() {
		return nil, false, nil
	}
	defer s.mu.Unlock()

	st, err := s.readInputStateLocked(ctx)
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}

func (s *Session) readInputStateLocked(ctx context.Context) (*protocol.InputState, error) {
	if s.state != StateSessionLocked && s.state != StateSessionUnlocked {
		return nil, &StateError{Op: "read input state", State: s.state}
	}

	data, err := s.roundTrip(ctx, protocol.BuildGetInputStateCmd())
	if err != nil {
		return nil, err
	}
	return protocol.ParseInputStateResponse(data)
}

// chunkSize returns the effective transfer chunk size: the device's
// reported maximum, further capped by WithChunkSize.
func (s *Session) chunkSize() int {
	size := int(s.info.MaxChunk)
	if s.config.ChunkSize > 0 && s.config.ChunkSize < size {
		size = s.config.ChunkSize
	}
	return size
}

func (s *Session) nextSeq() uint32 {
	s.seq++
	return s.seq
}

// roundTrip sends one command and waits for the matching response
// frame. Callers must hold s.mu.
//
// A MsgError frame becomes a *protocol.DeviceError; the session state is
// unchanged, the connection stays usable. A framing failure or sequence
// mismatch becomes a *DesyncError and drops the session to Disconnected.
func (s *Session) roundTrip(ctx context.Context, cmd []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cancelled: %w", err)
	}

	seq := s.nextSeq()
	frame, err := protocol.EncodeFrame(protocol.MsgRequest, seq, cmd)
	if err != nil {
		return nil, err
	}
	if _, err := s.device.Write(frame); err != nil {
		return nil, fmt.Errorf("write command 0x%02X: %w", cmd[0], err)
	}
	if s.config.CommandDelay > 0 {
		time.Sleep(s.config.CommandDelay)
	}

	resp, err := s.readFrame(ctx)
	if err != nil {
		return nil, err
	}

	if resp.Seq != seq {
		s.desync()
		return nil, &DesyncError{
			Reason: fmt.Sprintf("response sequence %d for request %d", resp.Seq, seq),
		}
	}

	switch resp.Type {
	case protocol.MsgError:
		devErr, err := protocol.ParseErrorPayload(resp.Payload)
		if err != nil {
			s.desync()
			return nil, &DesyncError{Reason: "malformed error frame", Err: err}
		}
		s.logDebug("device error", "cmd", fmt.Sprintf("0x%02X", devErr.Cmd), "code", devErr.Code)
		return nil, devErr
	case protocol.MsgResponse:
		return protocol.ParseResponsePayload(resp.Payload, cmd[0])
	default:
		s.desync()
		return nil, &DesyncError{
			Reason: fmt.Sprintf("unexpected frame type 0x%02X", resp.Type),
		}
	}
}

// readFrame accumulates transport bytes until one complete frame
// decodes. Callers must hold s.mu.
func (s *Session) readFrame(ctx context.Context) (*protocol.Frame, error) {
	buf := make([]byte, 4096)
	for {
		if frame, consumed, err := protocol.TryDecodeFrame(s.rx); err != nil {
			s.desync()
			return nil, &DesyncError{Reason: "corrupt frame", Err: err}
		} else if frame != nil {
			s.rx = append(s.rx[:0], s.rx[consumed:]...)
			return frame, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		n, err := s.device.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("read response: timed out")
		}
		s.rx = append(s.rx, buf[:n]...)
	}
}

// desync drops the session after an unrecoverable stream failure.
func (s *Session) desync() {
	s.logError("stream desynchronized, dropping connection")
	s.state = StateDisconnected
	s.info = nil
	s.rx = nil
}

// reportProgress calls the progress callback if configured.
func (s *Session) reportProgress(progress Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
