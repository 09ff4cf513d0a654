// Package bundle compiles markdown with embedded component tags into an
// opaque program and evaluates such programs against a component registry.
//
// Compilation never resolves components; it only records their names and
// props. Binding happens in Evaluate, so one compiled page can be rendered
// with different component sets.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// Bundle is the compiled form of one markdown document.
type Bundle struct {
	// Code is the serialized program. Treat it as opaque and hand it to
	// Evaluate.
	Code        string
	Frontmatter map[string]any
	// Components lists the component names the program references, sorted.
	Components []string
}

// CompileError reports malformed source. Line and Column are 1-based and
// refer to the original input, front matter included.
type CompileError struct {
	Line   int
	Column int
	Msg    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Compiler is safe for concurrent use.
type Compiler struct {
	md goldmark.Markdown
}

func NewCompiler() *Compiler {
	return &Compiler{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

var defaultCompiler = NewCompiler()

// Compile compiles src with the default compiler.
func Compile(src []byte) (*Bundle, error) {
	return defaultCompiler.Compile(src)
}

// Compile parses optional YAML front matter and compiles the remaining body.
func (c *Compiler) Compile(src []byte) (*Bundle, error) {
	return c.compile(src, "")
}

// CompileTitled compiles src with a "# title" heading inserted after any
// front matter. Error positions still refer to src.
func (c *Compiler) CompileTitled(src []byte, title string) (*Bundle, error) {
	return c.compile(src, title)
}

func (c *Compiler) compile(src []byte, title string) (*Bundle, error) {
	fm, body, lineOffset, err := SplitFrontmatter(src)
	if err != nil {
		return nil, err
	}
	if title != "" {
		prefixed := make([]byte, 0, len(title)+len(body)+8)
		prefixed = append(prefixed, "# "...)
		prefixed = append(prefixed, escapeInline(title)...)
		prefixed = append(prefixed, "\n\n"...)
		body = append(prefixed, body...)
		lineOffset -= 2
	}

	root, err := c.parse(body, lineOffset)
	if err != nil {
		return nil, err
	}

	code, err := json.Marshal(Program{Version: ProgramVersion, Root: root})
	if err != nil {
		return nil, fmt.Errorf("encode program: %w", err)
	}

	return &Bundle{
		Code:        string(code),
		Frontmatter: fm,
		Components:  componentNames(root),
	}, nil
}

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// SplitFrontmatter separates a leading YAML front matter block from the
// markdown body. lineOffset is the number of lines consumed by the block.
// Documents without front matter come back unchanged with an empty map.
func SplitFrontmatter(src []byte) (fm map[string]any, body []byte, lineOffset int, err error) {
	fm = map[string]any{}
	if !bytes.HasPrefix(bytes.TrimPrefix(src, []byte("\ufeff")), []byte("---")) {
		return fm, src, 0, nil
	}
	body, ferr := frontmatter.Parse(bytes.NewReader(src), &fm, yamlFormat)
	if ferr != nil {
		return nil, nil, 0, &CompileError{Line: 1, Column: 1, Msg: "front matter: " + ferr.Error()}
	}
	if fm == nil {
		fm = map[string]any{}
	}
	consumed := len(src) - len(body)
	if consumed < 0 {
		consumed = 0
	}
	return fm, body, bytes.Count(src[:consumed], []byte("\n")), nil
}

// escapeInline backslash-escapes characters that would turn plain text into
// markup.
func escapeInline(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("\\`*_{}[]<>()#+!|~&", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func componentNames(root *Node) []string {
	seen := map[string]struct{}{}
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Kind == KindComponent {
			seen[n.Name] = struct{}{}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
