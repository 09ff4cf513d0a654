package webclient

import "time"

type Client string

const (
	ClientNetHTTP Client = "nethttp"
)

// Config controls construction of a WebClient backend.
type Config struct {
	Client Client `yaml:"client"`

	// Timeout bounds a whole request including reading the body. Zero means
	// DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent on every request unless the request sets its own.
	UserAgent string `yaml:"user_agent"`

	// MaxBodyBytes caps the response body; larger bodies fail with
	// ErrBodyTooLarge. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

const (
	DefaultTimeout      = 15 * time.Second
	DefaultUserAgent    = "hyperdocs"
	DefaultMaxBodyBytes = 16 << 20
)

func (c Config) withDefaults() Config {
	if c.Client == "" {
		c.Client = ClientNetHTTP
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}
