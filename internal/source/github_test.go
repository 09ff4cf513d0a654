package source_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
	"github.com/hyperdocs/hyperdocs/internal/source"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

var acme = model.RepoRef{Host: "github.com", Owner: "acme", Name: "docs", URL: "https://github.com/acme/docs"}

// wrap64 encodes s the way the contents API does, with a newline every 60
// characters.
func wrap64(s string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(s))
	var b strings.Builder
	for len(enc) > 60 {
		b.WriteString(enc[:60])
		b.WriteByte('\n')
		enc = enc[60:]
	}
	b.WriteString(enc)
	b.WriteByte('\n')
	return b.String()
}

func newGitHub(t *testing.T, h http.Handler, timeout time.Duration) *source.GitHub {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	hc := ts.Client()
	hc.Timeout = timeout
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.NopLogger{}, hc)
	require.NoError(t, err)

	gh, err := source.NewGitHub(source.Config{APIBaseURL: ts.URL}, wc, logging.NopLogger{})
	require.NoError(t, err)
	return gh
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ─── ReadFile ──────────────────────────────────────────────────────────

func TestGitHub_ReadFile_DecodesBase64(t *testing.T) {
	t.Parallel()
	content := strings.Repeat("Intro text that is long enough to wrap. ", 5) + "\n## Setup\n"
	var gotPath, gotAuth, gotAccept string
	gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		writeJSON(w, map[string]any{"type": "file", "encoding": "base64", "content": wrap64(content)})
	}), 5*time.Second)

	data, err := gh.ReadFile(context.Background(), acme, "intro.md", "tok")
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, "/repos/acme/docs/contents/docs/intro.md", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
}

func TestGitHub_ReadFile_NoCredentialSendsNoAuthorization(t *testing.T) {
	t.Parallel()
	var hadAuth bool
	gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		writeJSON(w, map[string]any{"type": "file", "encoding": "base64", "content": wrap64("x")})
	}), 5*time.Second)

	_, err := gh.ReadFile(context.Background(), acme, "intro.md", "")
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestGitHub_ReadFile_StatusClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, source.ErrNotFound},
		{http.StatusUnauthorized, source.ErrTransport},
		{http.StatusForbidden, source.ErrTransport},
		{http.StatusInternalServerError, source.ErrTransport},
		{http.StatusBadGateway, source.ErrTransport},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}), 5*time.Second)

			_, err := gh.ReadFile(context.Background(), acme, "intro.md", "")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGitHub_ReadFile_DirectoryIsNotFound(t *testing.T) {
	t.Parallel()
	gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]string{{"name": "a.md", "path": "docs/guide/a.md", "type": "file"}})
	}), 5*time.Second)

	_, err := gh.ReadFile(context.Background(), acme, "guide", "")
	require.ErrorIs(t, err, source.ErrNotFound)
}

func TestGitHub_ReadFile_TimeoutIsTransport(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), 50*time.Millisecond)

	_, err := gh.ReadFile(context.Background(), acme, "intro.md", "")
	require.ErrorIs(t, err, source.ErrTransport)
	assert.True(t, webclient.IsTimeout(err))
}

func TestGitHub_ReadFile_LargeFileUsesDownloadURL(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/repos/acme/docs/contents/docs/big.md", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"type": "file", "encoding": "none", "content": "", "download_url": srvURL + "/raw/big.md"})
	})
	mux.HandleFunc("/raw/big.md", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# Big\n"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	srvURL = ts.URL

	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, nil, ts.Client())
	require.NoError(t, err)
	gh, err := source.NewGitHub(source.Config{APIBaseURL: ts.URL}, wc, nil)
	require.NoError(t, err)

	data, err := gh.ReadFile(context.Background(), acme, "big.md", "")
	require.NoError(t, err)
	assert.Equal(t, "# Big\n", string(data))
}

func TestGitHub_ReadFile_RejectsTraversal(t *testing.T) {
	t.Parallel()
	called := false
	gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}), 5*time.Second)

	_, err := gh.ReadFile(context.Background(), acme, "../secrets.md", "")
	require.ErrorIs(t, err, source.ErrNotFound)
	assert.False(t, called)
}

// ─── ListDirectory ─────────────────────────────────────────────────────

func TestGitHub_ListDirectory_PreservesOrder(t *testing.T) {
	t.Parallel()
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		writeJSON(w, []map[string]string{
			{"name": "zeta.md", "path": "docs/zeta.md", "type": "file"},
			{"name": "index.md", "path": "docs/index.md", "type": "file"},
			{"name": "assets", "path": "docs/assets", "type": "dir"},
			{"name": "link", "path": "docs/link", "type": "symlink"},
			{"name": "alpha.md", "path": "docs/alpha.md", "type": "file"},
		})
	}))
	t.Cleanup(ts.Close)
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, nil, ts.Client())
	require.NoError(t, err)
	gh, err := source.NewGitHub(source.Config{APIBaseURL: ts.URL, Branch: "main"}, wc, nil)
	require.NoError(t, err)

	entries, err := gh.ListDirectory(context.Background(), acme, "", "")
	require.NoError(t, err)
	assert.Equal(t, "/repos/acme/docs/contents/docs", gotPath)
	assert.Equal(t, "ref=main", gotQuery)
	assert.Equal(t, []model.Entry{
		{Name: "zeta.md", Path: "docs/zeta.md", Type: model.EntryFile},
		{Name: "index.md", Path: "docs/index.md", Type: model.EntryFile},
		{Name: "assets", Path: "docs/assets", Type: model.EntryDir},
		{Name: "alpha.md", Path: "docs/alpha.md", Type: model.EntryFile},
	}, entries)
}

func TestGitHub_ListDirectory_ObjectIsNotFound(t *testing.T) {
	t.Parallel()
	gh := newGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"type": "file", "encoding": "base64", "content": wrap64("x")})
	}), 5*time.Second)

	_, err := gh.ListDirectory(context.Background(), acme, "", "")
	require.ErrorIs(t, err, source.ErrNotFound)
}

func TestGitHub_ListDirectory_MissingDocsIsNotFound(t *testing.T) {
	t.Parallel()
	gh := newGitHub(t, http.NotFoundHandler(), 5*time.Second)

	_, err := gh.ListDirectory(context.Background(), acme, "", "")
	require.ErrorIs(t, err, source.ErrNotFound)
}

// ─── Registry ──────────────────────────────────────────────────────────

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()
	wc, err := webclient.New(webclient.Config{}, nil)
	require.NoError(t, err)

	src, err := source.New(source.Config{}, wc, nil)
	require.NoError(t, err)
	assert.IsType(t, &source.GitHub{}, src)

	src, err = source.New(source.Config{Backend: source.BackendGit}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &source.Git{}, src)

	src, err = source.New(source.Config{Backend: source.BackendLocal, LocalRoot: t.TempDir()}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &source.Local{}, src)

	_, err = source.New(source.Config{Backend: "svn"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestNew_GitHubWithoutClientFails(t *testing.T) {
	t.Parallel()
	_, err := source.New(source.Config{Backend: source.BackendGitHub}, nil, nil)
	require.Error(t, err)
}
