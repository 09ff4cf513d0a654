package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperdocs/hyperdocs/internal/cli"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
)

// ─── Parsing ───────────────────────────────────────────────────────────

func TestParse_DefaultsToServe(t *testing.T) {
	kctx, c, err := cli.Parse([]string{"--listen", ":9000"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if kctx.Command() != "serve" {
		t.Fatalf("expected serve, got %q", kctx.Command())
	}
	if c.Serve.Listen != ":9000" {
		t.Fatalf("expected listen :9000, got %q", c.Serve.Listen)
	}
	if c.EnvFile != ".env" {
		t.Fatalf("expected default env file .env, got %q", c.EnvFile)
	}
}

func TestParse_RenderArgs(t *testing.T) {
	kctx, c, err := cli.Parse([]string{"-c", "hyperdocs.yaml", "render", "acme", "docs/intro", "--html"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.HasPrefix(kctx.Command(), "render") {
		t.Fatalf("expected render, got %q", kctx.Command())
	}
	if c.Render.Site != "acme" || c.Render.Page != "docs/intro" || !c.Render.HTML {
		t.Fatalf("unexpected render args: %+v", c.Render)
	}
	if !strings.HasSuffix(c.Config, "hyperdocs.yaml") {
		t.Fatalf("expected config path to end in hyperdocs.yaml, got %q", c.Config)
	}
}

func TestParse_SitesCreate(t *testing.T) {
	_, c, err := cli.Parse([]string{"sites", "create", "--name", "Acme", "--repo", "https://github.com/acme/handbook", "--sidebar", "intro,setup"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Join(c.Sites.Create.Sidebar, "|") != "intro|setup" {
		t.Fatalf("unexpected sidebar: %v", c.Sites.Create.Sidebar)
	}

	if _, _, err := cli.Parse([]string{"sites", "create", "--repo", "https://github.com/acme/handbook"}); err == nil {
		t.Fatal("expected an error without --name")
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	if _, _, err := cli.Parse([]string{"--nope"}); err == nil {
		t.Fatal("expected an error for an unknown flag")
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		in      string
		want    fetcher.Page
		wantErr bool
	}{
		{"", fetcher.Page{Site: "acme", Kind: fetcher.PageHome}, false},
		{"docs", fetcher.Page{Site: "acme", Kind: fetcher.PageIndex}, false},
		{"/docs/", fetcher.Page{Site: "acme", Kind: fetcher.PageIndex}, false},
		{"docs/intro", fetcher.Page{Site: "acme", Kind: fetcher.PageDocs, Slug: "intro"}, false},
		{"blog/launch", fetcher.Page{Site: "acme", Kind: fetcher.PageBlog, Slug: "launch"}, false},
		{"docs/a/b", fetcher.Page{}, true},
		{"pricing", fetcher.Page{}, true},
	}
	for _, tc := range cases {
		got, err := cli.ParsePage("acme", tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected an error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

// ─── Commands ──────────────────────────────────────────────────────────

type workspace struct {
	dir    string
	config string
	env    string
}

// newWorkspace writes a config file pointing the local backend at a
// repository acme/handbook with two documents.
func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "sites", "acme", "handbook", "docs")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"index.md": "Welcome.\n",
		"intro.md": "Hello.\n\n## Concepts\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(docs, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	cfg := "log_level: warn\n" +
		"storage_root: " + filepath.Join(dir, "state") + "\n" +
		"source:\n" +
		"  backend: local\n" +
		"  local_root: " + filepath.Join(dir, "sites") + "\n"
	path := filepath.Join(dir, "hyperdocs.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return workspace{dir: dir, config: path, env: filepath.Join(dir, "missing.env")}
}

func (w workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config", w.config, "--env-file", w.env}, args...)
	err := cli.Run(full, &cli.Globals{Out: &out, Err: &errOut})
	return out.String(), err
}

func TestRun_CreateSiteThenRender(t *testing.T) {
	w := newWorkspace(t)

	out, err := w.run(t, "sites", "create", "--name", "Acme", "--repo", "https://github.com/acme/handbook", "--token", "secret")
	if err != nil {
		t.Fatalf("sites create: %v", err)
	}
	if strings.Contains(out, "secret") {
		t.Fatalf("access token leaked into output: %s", out)
	}
	var site struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal([]byte(out), &site); err != nil {
		t.Fatalf("decode site: %v\n%s", err, out)
	}
	if site.Slug != "acme" {
		t.Fatalf("expected slug acme, got %q", site.Slug)
	}

	out, err = w.run(t, "sites", "list")
	if err != nil {
		t.Fatalf("sites list: %v", err)
	}
	if !strings.Contains(out, "acme") || !strings.Contains(out, "https://github.com/acme/handbook") {
		t.Fatalf("unexpected listing: %s", out)
	}

	out, err = w.run(t, "render", "acme", "docs/intro")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var payload struct {
		File       string   `json:"file"`
		Code       string   `json:"code"`
		Navigation []string `json:"navigation"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode payload: %v\n%s", err, out)
	}
	if payload.File != "intro" || payload.Code == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	out, err = w.run(t, "render", "acme", "docs/intro", "--html")
	if err != nil {
		t.Fatalf("render --html: %v", err)
	}
	if !strings.Contains(out, "Concepts") || !strings.Contains(out, "<h1") {
		t.Fatalf("expected rendered headings, got %s", out)
	}
}

func TestRun_RenderMissingPageFails(t *testing.T) {
	w := newWorkspace(t)
	if _, err := w.run(t, "sites", "create", "--name", "Acme", "--repo", "https://github.com/acme/handbook"); err != nil {
		t.Fatalf("sites create: %v", err)
	}

	_, err := w.run(t, "render", "acme", "docs/missing")
	if err == nil {
		t.Fatal("expected an error for a missing document")
	}
	if !strings.Contains(err.Error(), "not_found") {
		t.Fatalf("expected a not_found failure, got %v", err)
	}
}

func TestRun_WarmSite(t *testing.T) {
	w := newWorkspace(t)
	if _, err := w.run(t, "sites", "create", "--name", "Acme", "--repo", "https://github.com/acme/handbook"); err != nil {
		t.Fatalf("sites create: %v", err)
	}

	out, err := w.run(t, "warm", "acme")
	if err != nil {
		t.Fatalf("warm: %v\n%s", err, out)
	}
	if !strings.Contains(out, " 0 failed") || !strings.Contains(out, "acme/docs/intro") {
		t.Fatalf("unexpected warm output: %s", out)
	}

	if _, err := w.run(t, "warm", "nobody"); err == nil {
		t.Fatal("expected an error for an unknown site")
	}
}

func TestRun_EnvFileFeedsConfiguration(t *testing.T) {
	w := newWorkspace(t)
	// Drop local_root from the config file so only the dotenv file supplies it.
	cfg := "log_level: warn\n" +
		"storage_root: " + filepath.Join(w.dir, "state") + "\n" +
		"source:\n" +
		"  backend: local\n"
	if err := os.WriteFile(w.config, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	w.env = filepath.Join(w.dir, "test.env")
	env := "HYPERDOCS_SOURCE_LOCAL_ROOT=" + filepath.Join(w.dir, "sites") + "\n"
	if err := os.WriteFile(w.env, []byte(env), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("HYPERDOCS_SOURCE_LOCAL_ROOT") })

	if _, err := w.run(t, "sites", "create", "--name", "Acme", "--repo", "https://github.com/acme/handbook"); err != nil {
		t.Fatalf("sites create: %v", err)
	}
	if _, err := w.run(t, "render", "acme", "docs/intro"); err != nil {
		t.Fatalf("render with dotenv local_root: %v", err)
	}
}
