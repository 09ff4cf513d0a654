// Package toc derives a document outline from markdown headings and renders
// it as a nested HTML list.
package toc

import (
	"html"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/hyperdocs/hyperdocs/internal/model"
)

// Options bounds which heading levels enter the outline.
type Options struct {
	MinDepth int `yaml:"min_depth"`
	MaxDepth int `yaml:"max_depth"`
}

func DefaultOptions() Options {
	return Options{MinDepth: 1, MaxDepth: 6}
}

// Result is the outline of a document and its rendered fragment.
type Result struct {
	Outline []*model.Heading
	HTML    string
}

// Extractor is safe for concurrent use.
type Extractor struct {
	opts Options
	md   goldmark.Markdown
}

func New(opts Options) *Extractor {
	if opts.MinDepth < 1 {
		opts.MinDepth = 1
	}
	if opts.MaxDepth < opts.MinDepth || opts.MaxDepth > 6 {
		opts.MaxDepth = 6
	}
	return &Extractor{
		opts: opts,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

var defaultExtractor = New(DefaultOptions())

// Extract builds the outline of src with the default options.
func Extract(src []byte) Result {
	return defaultExtractor.Extract(src)
}

// Extract builds the outline of src. Headings inside fenced code are ignored
// and anchors are unique within the document.
func (e *Extractor) Extract(src []byte) Result {
	return e.ExtractTitled(src, "")
}

// ExtractTitled is Extract for a document rendered below a "# title"
// heading that src itself does not contain. The title claims its anchor
// first but stays out of the outline.
func (e *Extractor) ExtractTitled(src []byte, title string) Result {
	root := e.md.Parser().Parse(text.NewReader(src))
	slugger := NewSlugger()
	if t := strings.TrimSpace(title); t != "" {
		slugger.Slug(t)
	}

	var flat []*model.Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		txt := strings.TrimSpace(inlineText(h, src))
		if txt == "" {
			return gmast.WalkSkipChildren, nil
		}
		// Every heading takes an anchor, in or out of range, so the
		// sequence matches the ids the bundler assigns.
		anchor := slugger.Slug(txt)
		if h.Level >= e.opts.MinDepth && h.Level <= e.opts.MaxDepth {
			flat = append(flat, &model.Heading{Text: txt, Depth: h.Level, Anchor: anchor})
		}
		return gmast.WalkSkipChildren, nil
	})

	outline := Nest(flat)
	return Result{Outline: outline, HTML: Render(outline)}
}

// Nest arranges a flat heading sequence into a tree. A heading deeper than
// the previous one becomes its child; a shallower one closes open levels.
func Nest(flat []*model.Heading) []*model.Heading {
	var roots []*model.Heading
	var stack []*model.Heading
	for _, h := range flat {
		h.Children = nil
		for len(stack) > 0 && stack[len(stack)-1].Depth >= h.Depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, h)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, h)
		}
		stack = append(stack, h)
	}
	return roots
}

// Render emits <ul><li><a href="#anchor">text</a>…</li></ul>. An empty
// outline renders as the empty string.
func Render(outline []*model.Heading) string {
	if len(outline) == 0 {
		return ""
	}
	var b strings.Builder
	renderList(&b, outline)
	return b.String()
}

func renderList(b *strings.Builder, hs []*model.Heading) {
	b.WriteString("<ul>")
	for _, h := range hs {
		b.WriteString(`<li><a href="#`)
		b.WriteString(html.EscapeString(h.Anchor))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(h.Text))
		b.WriteString("</a>")
		if len(h.Children) > 0 {
			renderList(b, h.Children)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}

// inlineText concatenates the literal text of n's inline descendants.
func inlineText(n gmast.Node, src []byte) string {
	var b strings.Builder
	var walk func(gmast.Node)
	walk = func(n gmast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *gmast.Text:
				b.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *gmast.String:
				b.Write(v.Value)
			case *gmast.AutoLink:
				b.Write(v.Label(src))
			case *gmast.RawHTML, *gmast.Image:
				// inline tags and images contribute no text
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}
