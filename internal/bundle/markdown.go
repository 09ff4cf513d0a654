package bundle

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// mdContext carries what is needed to convert one goldmark tree and locate
// errors in it.
type mdContext struct {
	p       *parser
	src     []byte
	line    int
	indent  int
	colBase int
}

func (p *parser) appendMarkdown(parent *Node, seg segment, dedent bool) error {
	return p.appendMarkdownAt(parent, seg, dedent, 0)
}

// appendMarkdownAt compiles seg with goldmark and appends the result to
// parent. Markdown nested in components is dedented first, so indentation
// inside a tag never turns prose into a code block.
func (p *parser) appendMarkdownAt(parent *Node, seg segment, dedent bool, colBase int) error {
	buf, indent := seg.buf, 0
	if dedent {
		buf, indent = dedentBlock(buf)
	}
	doc := p.c.md.Parser().Parse(gmtext.NewReader(buf))
	mc := &mdContext{p: p, src: buf, line: seg.line, indent: indent, colBase: colBase}
	return mc.children(doc, parent)
}

// children converts the children of n into out. Inline tags arrive as
// separate raw HTML nodes and are paired up here.
func (mc *mdContext) children(n gmast.Node, out *Node) error {
	type open struct {
		node *Node
		name string
		off  int
	}
	stack := []open{{node: out}}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		top := stack[len(stack)-1].node

		raw, isRaw := c.(*gmast.RawHTML)
		if !isRaw {
			if err := mc.convert(c, top); err != nil {
				return err
			}
			continue
		}

		content := rawContent(raw, mc.src)
		start := 0
		if raw.Segments.Len() > 0 {
			start = raw.Segments.At(0).Start
		}
		t, ok, perr := parseTag(content, 0)
		if perr != nil {
			return mc.errorAt(start+perr.off, perr.msg)
		}
		if !ok {
			top.appendChild(text(string(content)))
			continue
		}
		switch t.kind {
		case tagComment:
		case tagSelfClose:
			if t.name != "" {
				top.appendChild(tagNode(t))
			}
		case tagOpen:
			node := tagNode(t)
			if t.name == "" {
				node = &Node{Kind: KindRoot}
			} else {
				top.appendChild(node)
			}
			stack = append(stack, open{node: node, name: t.name, off: start})
		case tagClose:
			if len(stack) == 1 {
				return mc.errorAt(start, fmt.Sprintf("unexpected closing tag %s", displayName(t.name)))
			}
			o := stack[len(stack)-1]
			if o.name != t.name {
				return mc.errorAt(start, fmt.Sprintf("expected closing tag %s but found %s", displayName(o.name), displayName(t.name)))
			}
			stack = stack[:len(stack)-1]
			if o.name == "" {
				for _, ch := range o.node.Children {
					stack[len(stack)-1].node.appendChild(ch)
				}
			}
		}
	}

	if len(stack) > 1 {
		o := stack[len(stack)-1]
		if o.name == "" {
			return mc.errorAt(o.off, "unclosed fragment <>")
		}
		return mc.errorAt(o.off, fmt.Sprintf("unclosed tag <%s>", o.name))
	}
	return nil
}

// convert appends the program form of n to out.
func (mc *mdContext) convert(n gmast.Node, out *Node) error {
	src := mc.src
	switch v := n.(type) {
	case *gmast.Paragraph:
		return mc.wrap("p", v, out)
	case *gmast.TextBlock:
		return mc.children(v, out)
	case *gmast.Heading:
		h := element("h" + strconv.Itoa(v.Level))
		if err := mc.children(v, h); err != nil {
			return err
		}
		if t := strings.TrimSpace(plainText(h)); t != "" {
			h.Attrs = append(h.Attrs, strAttr("id", mc.p.slugger.Slug(t)))
		}
		out.appendChild(h)
	case *gmast.ThematicBreak:
		out.appendChild(element("hr"))
	case *gmast.FencedCodeBlock:
		lang := ""
		if v.Info != nil {
			lang = string(v.Language(src))
		}
		out.appendChild(codeBlock(lang, linesText(v, src)))
	case *gmast.CodeBlock:
		out.appendChild(codeBlock("", linesText(v, src)))
	case *gmast.Blockquote:
		return mc.wrap("blockquote", v, out)
	case *gmast.List:
		if v.IsOrdered() {
			ol := element("ol")
			if v.Start != 1 {
				ol.Attrs = append(ol.Attrs, strAttr("start", strconv.Itoa(v.Start)))
			}
			if err := mc.children(v, ol); err != nil {
				return err
			}
			out.appendChild(ol)
			return nil
		}
		return mc.wrap("ul", v, out)
	case *gmast.ListItem:
		return mc.wrap("li", v, out)
	case *gmast.HTMLBlock:
		var b bytes.Buffer
		b.WriteString(linesText(v, src))
		if v.HasClosure() {
			b.Write(v.ClosureLine.Value(src))
		}
		out.appendChild(&Node{Kind: KindRaw, Text: b.String()})
	case *gmast.Text:
		out.appendChild(text(string(unescape(v.Segment.Value(src)))))
		switch {
		case v.HardLineBreak():
			out.appendChild(element("br"))
		case v.SoftLineBreak():
			out.appendChild(text("\n"))
		}
	case *gmast.String:
		if v.IsCode() {
			out.appendChild(text(string(v.Value)))
		} else {
			out.appendChild(text(string(unescape(v.Value))))
		}
	case *gmast.CodeSpan:
		code := element("code")
		var b bytes.Buffer
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *gmast.Text:
				b.Write(t.Segment.Value(src))
			case *gmast.String:
				b.Write(t.Value)
			}
		}
		code.appendChild(text(b.String()))
		out.appendChild(code)
	case *gmast.Emphasis:
		if v.Level == 2 {
			return mc.wrap("strong", v, out)
		}
		return mc.wrap("em", v, out)
	case *gmast.Link:
		a := element("a", strAttr("href", string(unescape(v.Destination))))
		if len(v.Title) > 0 {
			a.Attrs = append(a.Attrs, strAttr("title", string(unescape(v.Title))))
		}
		if err := mc.children(v, a); err != nil {
			return err
		}
		out.appendChild(a)
	case *gmast.Image:
		holder := &Node{Kind: KindRoot}
		if err := mc.children(v, holder); err != nil {
			return err
		}
		img := element("img", strAttr("src", string(unescape(v.Destination))), strAttr("alt", plainText(holder)))
		if len(v.Title) > 0 {
			img.Attrs = append(img.Attrs, strAttr("title", string(unescape(v.Title))))
		}
		out.appendChild(img)
	case *gmast.AutoLink:
		href := string(v.URL(src))
		if v.AutoLinkType == gmast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(v.URL(src)), []byte("mailto:")) {
			href = "mailto:" + href
		}
		a := element("a", strAttr("href", href))
		a.appendChild(text(string(v.Label(src))))
		out.appendChild(a)
	case *gmast.RawHTML:
		// Reached only outside children(); keep it literal.
		out.appendChild(text(string(rawContent(v, src))))
	case *east.Table:
		return mc.table(v, out)
	case *east.Strikethrough:
		return mc.wrap("del", v, out)
	case *east.TaskCheckBox:
		box := element("input", strAttr("type", "checkbox"), Attr{Name: "disabled", Kind: AttrBool})
		if v.IsChecked {
			box.Attrs = append(box.Attrs, Attr{Name: "checked", Kind: AttrBool})
		}
		out.appendChild(box)
		out.appendChild(text(" "))
	default:
		return mc.children(n, out)
	}
	return nil
}

func (mc *mdContext) wrap(name string, n gmast.Node, out *Node) error {
	el := element(name)
	if err := mc.children(n, el); err != nil {
		return err
	}
	out.appendChild(el)
	return nil
}

func (mc *mdContext) table(t *east.Table, out *Node) error {
	table := element("table")
	var body *Node
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		tr := element("tr")
		cellTag := "td"
		if _, ok := r.(*east.TableHeader); ok {
			cellTag = "th"
		}
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cell := element(cellTag)
			if tc, ok := c.(*east.TableCell); ok && tc.Alignment != east.AlignNone {
				cell.Attrs = append(cell.Attrs, strAttr("align", tc.Alignment.String()))
			}
			if err := mc.children(c, cell); err != nil {
				return err
			}
			tr.Children = append(tr.Children, cell)
		}
		if cellTag == "th" {
			head := element("thead")
			head.Children = append(head.Children, tr)
			table.Children = append(table.Children, head)
			continue
		}
		if body == nil {
			body = element("tbody")
			table.Children = append(table.Children, body)
		}
		body.Children = append(body.Children, tr)
	}
	out.appendChild(table)
	return nil
}

// errorAt maps an offset in the (dedented) segment back to the document.
func (mc *mdContext) errorAt(off int, msg string) *CompileError {
	if off > len(mc.src) {
		off = len(mc.src)
	}
	before := mc.src[:off]
	line := bytes.Count(before, []byte("\n"))
	col := off - (bytes.LastIndexByte(before, '\n') + 1) + mc.indent
	if line == 0 {
		col += mc.colBase
	}
	return &CompileError{
		Line:   mc.line + line + 1 + mc.p.lineOffset,
		Column: col + 1,
		Msg:    msg,
	}
}

func codeBlock(lang, body string) *Node {
	pre := element("pre")
	code := element("code")
	if lang != "" {
		pre.Attrs = append(pre.Attrs, strAttr("language", lang))
		code.Attrs = append(code.Attrs, strAttr("className", "language-"+lang))
	}
	code.appendChild(text(body))
	pre.Children = append(pre.Children, code)
	return pre
}

func linesText(n gmast.Node, src []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func rawContent(n *gmast.RawHTML, src []byte) []byte {
	var b bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		b.Write(seg.Value(src))
	}
	return b.Bytes()
}

func unescape(b []byte) []byte {
	return util.UnescapePunctuations(util.ResolveEntityNames(util.ResolveNumericReferences(b)))
}

// dedentBlock removes the indentation shared by all non-blank lines.
func dedentBlock(b []byte) ([]byte, int) {
	lines := bytes.SplitAfter(b, []byte("\n"))
	common := -1
	for _, l := range lines {
		if len(bytes.TrimSpace(l)) == 0 {
			continue
		}
		n := len(l) - len(bytes.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return b, 0
	}
	var out bytes.Buffer
	for _, l := range lines {
		if len(l) >= common && len(bytes.TrimSpace(l[:common])) == 0 {
			out.Write(l[common:])
		} else {
			out.Write(bytes.TrimLeft(l, " \t"))
		}
	}
	return out.Bytes(), common
}
