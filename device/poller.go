package device

import (
	"context"
	"errors"
	"time"

	"github.com/openpad/go-remap/protocol"
)

// DefaultPollInterval is the live-preview sampling rate, roughly 60Hz.
const DefaultPollInterval = 16 * time.Millisecond

// InputPoller samples the device's live input state at a fixed rate for
// preview displays. Ticks that land while another request is in flight
// are skipped, never queued, so a long blob transfer cannot build up a
// backlog of stale samples.
type InputPoller struct {
	session  *Session
	interval time.Duration
	onSample func(protocol.InputState)
}

// PollerOption configures an InputPoller.
type PollerOption func(*InputPoller)

// WithPollInterval sets the sampling interval. Default is
// DefaultPollInterval.
func WithPollInterval(interval time.Duration) PollerOption {
	return func(p *InputPoller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// NewInputPoller creates a poller over an established session. onSample
// is called from the polling goroutine for every successful sample.
func NewInputPoller(session *Session, onSample func(protocol.InputState), opts ...PollerOption) *InputPoller {
	if session == nil {
		panic("session cannot be nil")
	}
	if onSample == nil {
		panic("onSample cannot be nil")
	}

	p := &InputPoller{
		session:  session,
		interval: DefaultPollInterval,
		onSample: onSample,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until the context is cancelled or the session fails.
// It returns nil on cancellation.
//
// A device that answers GET_INPUT_STATE with ErrBadCommand does not
// support live preview; Run returns the DeviceError immediately and
// callers can detect the case with protocol.IsUnsupported. ErrBusy
// ticks are skipped. Any other error stops the poller.
func (p *InputPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		state, ok, err := p.session.tryReadInputState(ctx)
		if err != nil {
			var devErr *protocol.DeviceError
			if errors.As(err, &devErr) && devErr.Code == protocol.ErrBusy {
				continue
			}
			return err
		}
		if !ok {
			// Another request holds the session; drop this tick.
			continue
		}

		p.onSample(*state)
	}
}
