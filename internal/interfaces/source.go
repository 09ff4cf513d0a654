package interfaces

import (
	"context"

	"github.com/hyperdocs/hyperdocs/internal/model"
)

// ContentSource reads documentation files from a repository. Paths are
// relative to the repository's docs/ directory; cred is the optional access
// token for private repositories.
type ContentSource interface {
	// ListDirectory lists the entries of docs/ (or a sub directory of it) in
	// the order the host returns them.
	ListDirectory(ctx context.Context, repo model.RepoRef, dir, cred string) ([]model.Entry, error)

	// ReadFile returns the decoded contents of a file below docs/.
	ReadFile(ctx context.Context, repo model.RepoRef, path, cred string) ([]byte, error)
}
