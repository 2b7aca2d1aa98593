// Package device drives configuration sessions with a controller
// adapter over any io.ReadWriter transport.
//
// Session mirrors the device's state machine on the host side:
// Connect performs the GET_INFO handshake, BeginSession opens a
// configuration session with writes locked, and UnlockWrites arms the
// destructive commands (commit, reset, factory reset). Operations
// issued in the wrong state fail with a StateError before touching the
// wire.
//
// The transport carries at most one request at a time. A corrupt frame
// or a sequence mismatch is unrecoverable; the session drops to
// Disconnected with a DesyncError and the transport must be reopened.
// Device-reported errors (protocol.DeviceError) leave the session
// usable.
//
// SaveDocument is the high-level save path: validate the draft on the
// host, stage the encoded blob in chunks, have the device validate it,
// commit, and verify the generation counter advanced. InputPoller
// samples the live input pipeline at a fixed rate for preview displays,
// skipping ticks while other requests are in flight.
package device
