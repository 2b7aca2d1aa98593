package device

import "time"

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during chunked transfers (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadTimeout is applied to transports that support read deadlines
	ReadTimeout time.Duration

	// CommandDelay is an extra pause after each command write, for
	// transports whose device side needs settling time
	CommandDelay time.Duration

	// ChunkSize caps the data size per transfer chunk. Zero means use
	// the maximum the device reports in GET_INFO.
	ChunkSize int

	// HostValidation runs the mapping validator before SaveDocument
	// stages anything on the device
	HostValidation bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadTimeout:    2 * time.Second,
		HostValidation: true,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithProgressCallback sets a callback to track transfer progress.
//
// Example:
//
//	sess := device.NewSession(port,
//	    device.WithProgressCallback(func(p device.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReadTimeout sets the read deadline applied to transports that
// support one.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithCommandDelay sets an extra pause after each command write.
func WithCommandDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.CommandDelay = delay
		}
	}
}

// WithChunkSize caps the data size per transfer chunk. The effective
// size is still limited by what the device reports in GET_INFO.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithHostValidation enables or disables host-side draft validation in
// SaveDocument. Default is true.
func WithHostValidation(enabled bool) Option {
	return func(c *Config) {
		c.HostValidation = enabled
	}
}
