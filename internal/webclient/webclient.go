package webclient

import (
	"context"
)

// WebClient executes outbound HTTP requests for the content sources and the
// notification backends.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
