package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperdocs/hyperdocs/internal/interfaces"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrSiteNotFound = interfaces.ErrSiteNotFound
	ErrBlogNotFound = interfaces.ErrBlogNotFound
	ErrSlugTaken    = errors.New("slug already taken")
	ErrInvalid      = errors.New("invalid record")
)

// Registry stores sites, their navigation and their blogs in SQLite.
type Registry struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

var _ interfaces.SiteStore = (*Registry)(nil)

// Open opens the SQLite database at path with the pragmas the registry
// expects. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open registry db %s: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping registry db %s: %w", path, err)
	}
	return db, nil
}

// NewRegistry returns a Registry and runs the embedded schema.
func NewRegistry(db *sql.DB, logger logging.Logger) (*Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Registry{db: db, logger: logger, now: time.Now}, nil
}

// normalizeSlug makes a slug safe and simple.
func normalizeSlug(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		out = uuid.New().String()[:8]
	}
	return out
}

func newID() string {
	return uuid.New().String()
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *Registry) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
