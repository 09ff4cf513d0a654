package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// InitialVersion is the starting version for all documents (default: 1).
	InitialVersion int

	// Owner and Repo name the single repository the server hosts.
	Owner string
	Repo  string

	// Token, when set, must be sent as a bearer token on contents requests.
	Token string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:           9999,
		InitialVersion: 1,
		Owner:          "acme",
		Repo:           "handbook",
	}
}
