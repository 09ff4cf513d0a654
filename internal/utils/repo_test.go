package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		in        string
		wantOwner string
		wantName  string
		wantURL   string
	}{
		{"acme/docs", "acme", "docs", "https://github.com/acme/docs"},
		{"https://github.com/acme/docs", "acme", "docs", "https://github.com/acme/docs"},
		{"https://GitHub.com/acme/docs.git", "acme", "docs", "https://github.com/acme/docs"},
		{"https://github.com/acme/docs/tree/main/docs/intro.md", "acme", "docs", "https://github.com/acme/docs"},
		{"github.com/acme/docs/", "acme", "docs", "https://github.com/acme/docs"},
		{"git@github.com:acme/docs.git", "acme", "docs", "https://github.com/acme/docs"},
		{"https://例え.テスト/acme/docs", "acme", "docs", "https://xn--r8jz45g.xn--zckzah/acme/docs"},
		{"http://localhost:9999/acme/docs", "acme", "docs", "https://localhost:9999/acme/docs"},
	}

	for _, tt := range tests {
		got, err := ParseRepoURL(tt.in)
		if err != nil {
			t.Fatalf("ParseRepoURL(%q) error: %v", tt.in, err)
		}
		if got.Owner != tt.wantOwner || got.Name != tt.wantName {
			t.Errorf("ParseRepoURL(%q) = %s/%s, want %s/%s", tt.in, got.Owner, got.Name, tt.wantOwner, tt.wantName)
		}
		if got.URL != tt.wantURL {
			t.Errorf("ParseRepoURL(%q).URL = %q, want %q", tt.in, got.URL, tt.wantURL)
		}
	}
}

func TestParseRepoURL_Invalid(t *testing.T) {
	if _, err := ParseRepoURL("   "); !errors.Is(err, ErrEmptyRepoURL) {
		t.Fatalf("expected ErrEmptyRepoURL, got %v", err)
	}
	for _, in := range []string{
		"https://github.com/",
		"https://github.com/acme",
		"acme",
		"https://github.com/../..",
		"acme/..",
		"../handbook",
		"https://github.com/acme/%2e%2e",
		"https://github.com/acme/..git",
		`acme/hand\book`,
	} {
		if _, err := ParseRepoURL(in); !errors.Is(err, ErrInvalidRepoURL) {
			t.Errorf("ParseRepoURL(%q): expected ErrInvalidRepoURL, got %v", in, err)
		}
	}
}

func TestBlobURL(t *testing.T) {
	repo, err := ParseRepoURL("acme/docs")
	if err != nil {
		t.Fatal(err)
	}
	got := BlobURL(repo, "", "docs/setup.md")
	if got != "https://github.com/acme/docs/blob/master/docs/setup.md" {
		t.Fatalf("unexpected blob url %q", got)
	}
}

func TestTitleFromSlug(t *testing.T) {
	cases := map[string]string{
		"setup":           "Setup",
		"getting-started": "Getting Started",
		"faq--misc":       "Faq Misc",
		"iOS-setup":       "IOS Setup",
		"using-GraphQL":   "Using GraphQL",
		"v2-API":          "V2 API",
	}
	for in, want := range cases {
		if got := TitleFromSlug(in); got != want {
			t.Errorf("TitleFromSlug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := TitleFromSlug("api_reference"); strings.Contains(got, " ") {
		t.Errorf("underscores should not split words, got %q", got)
	}
}

func TestStripMarkdownExt(t *testing.T) {
	if got, ok := StripMarkdownExt("intro.md"); !ok || got != "intro" {
		t.Fatalf("unexpected %q %v", got, ok)
	}
	if got, ok := StripMarkdownExt("README.MD"); !ok || got != "README" {
		t.Fatalf("unexpected %q %v", got, ok)
	}
	if got, ok := StripMarkdownExt("image.png"); ok || got != "image.png" {
		t.Fatalf("unexpected %q %v", got, ok)
	}
}
