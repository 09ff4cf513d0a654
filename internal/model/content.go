package model

// DocsRoot is the directory inside a repository that holds the documentation.
const DocsRoot = "docs"

// MarkdownExt is the extension of documentation pages.
const MarkdownExt = ".md"

// IndexSlug is the file slug of a site's docs home page.
const IndexSlug = "index"

// RepoRef identifies a repository on a source host.
type RepoRef struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
	// URL is the canonical web URL, e.g. https://github.com/owner/name.
	URL string `json:"url"`
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is one item of a remote directory listing.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Type EntryType `json:"type"`
}

// Document is a single fetched markdown file. It is never persisted.
type Document struct {
	// Name is the file slug without extension.
	Name    string
	Path    string
	Content []byte
}
