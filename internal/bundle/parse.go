package bundle

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hyperdocs/hyperdocs/internal/toc"
)

// parser turns a document body into a program tree. Tags that start a line
// are handled here; everything between them is markdown handed to goldmark.
type parser struct {
	c          *Compiler
	src        []byte
	lineStarts []int
	lineOffset int
	slugger    *toc.Slugger
	stack      []*frame
}

type frame struct {
	node *Node
	name string
	off  int
	// fragment frames splice their children into the parent on close.
	fragment bool
	md       segment
}

// segment is pending markdown. line is the 0-based body line it starts on.
type segment struct {
	buf  []byte
	line int
	set  bool
}

func (s *segment) add(b []byte, line int) {
	if !s.set {
		s.line = line
		s.set = true
	}
	s.buf = append(s.buf, b...)
}

func (c *Compiler) parse(body []byte, lineOffset int) (*Node, error) {
	p := &parser{
		c:          c,
		src:        body,
		lineOffset: lineOffset,
		slugger:    toc.NewSlugger(),
	}
	p.lineStarts = append(p.lineStarts, 0)
	for i, b := range body {
		if b == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}

	root := &Node{Kind: KindRoot}
	p.stack = []*frame{{node: root}}

	var (
		inFence   bool
		fenceChar byte
		fenceLen  int
		prevBlank = true
		prevTag   bool
	)

	for off := 0; off < len(body); {
		lineEnd := bytes.IndexByte(body[off:], '\n')
		next := len(body)
		if lineEnd < 0 {
			lineEnd = len(body)
		} else {
			lineEnd += off
			next = lineEnd + 1
		}
		line := body[off:lineEnd]
		trimmed := bytes.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		lineNo := p.lineIndex(off)
		top := p.top()

		if inFence {
			top.md.add(body[off:next], lineNo)
			if ch, n := fenceMarker(trimmed); n >= fenceLen && ch == fenceChar && len(bytes.TrimSpace(trimmed[n:])) == 0 {
				inFence = false
			}
			off = next
			prevBlank, prevTag = false, false
			continue
		}

		if ch, n := fenceMarker(trimmed); n >= 3 {
			inFence, fenceChar, fenceLen = true, ch, n
			top.md.add(body[off:next], lineNo)
			off = next
			prevBlank, prevTag = false, false
			continue
		}

		if len(bytes.TrimSpace(line)) == 0 {
			top.md.add(body[off:next], lineNo)
			off = next
			prevBlank, prevTag = true, false
			continue
		}

		if looksLikeTag(trimmed) && p.blockTagAllowed(trimmed, prevBlank || prevTag) {
			consumed, handled, err := p.tagLine(off + indent)
			if err != nil {
				return nil, err
			}
			if handled {
				off = consumed
				prevBlank, prevTag = false, true
				continue
			}
		}

		if isExprComment(trimmed) {
			off = next
			continue
		}

		top.md.add(body[off:next], lineNo)
		off = next
		prevBlank, prevTag = false, false
	}

	if err := p.flush(p.top()); err != nil {
		return nil, err
	}
	if len(p.stack) > 1 {
		f := p.top()
		if f.fragment {
			return nil, p.errorAt(f.off, "unclosed fragment <>")
		}
		return nil, p.errorAt(f.off, fmt.Sprintf("unclosed tag <%s>", f.name))
	}
	return root, nil
}

// blockTagAllowed decides whether a line starting with a tag is a block
// construct. Lowercase opening tags cannot interrupt a paragraph.
func (p *parser) blockTagAllowed(trimmed []byte, afterBreak bool) bool {
	if afterBreak || trimmed[1] == '/' || trimmed[1] == '!' || trimmed[1] == '>' {
		return true
	}
	j := 1
	for j < len(trimmed) && isNameChar(trimmed[j]) {
		j++
	}
	return isComponentName(string(trimmed[1:j]))
}

// tagLine consumes a line that starts with a tag at off, plus any tags and
// text following it on the same line. Multi-line tags extend the line. It
// returns the offset of the next unconsumed line.
func (p *parser) tagLine(off int) (int, bool, error) {
	t, ok, perr := parseTag(p.src, off)
	if perr != nil {
		return 0, false, p.errorAt(perr.off, perr.msg)
	}
	if !ok {
		return 0, false, nil
	}

	for {
		if err := p.apply(t); err != nil {
			return 0, false, err
		}
		i := t.end
		for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t' || p.src[i] == '\r') {
			i++
		}
		if i >= len(p.src) {
			return len(p.src), true, nil
		}
		if p.src[i] == '\n' {
			return i + 1, true, nil
		}

		if looksLikeTag(p.src[i:]) {
			nt, ok, perr := parseTag(p.src, i)
			if perr != nil {
				return 0, false, p.errorAt(perr.off, perr.msg)
			}
			if ok {
				t = nt
				continue
			}
		}

		// Text up to the next tag on this line is inline markdown.
		end, nt, found, err := p.scanInlineText(i)
		if err != nil {
			return 0, false, err
		}
		if err := p.appendInline(p.src[i:end], i); err != nil {
			return 0, false, err
		}
		if !found {
			if end < len(p.src) {
				end++
			}
			return end, true, nil
		}
		t = nt
	}
}

// scanInlineText finds the end of text starting at i: either the next tag on
// the same line (found) or the line end.
func (p *parser) scanInlineText(i int) (int, tag, bool, error) {
	for j := i; j < len(p.src) && p.src[j] != '\n'; j++ {
		if p.src[j] == '`' {
			// Skip code spans so tags inside them stay literal.
			k := bytes.IndexByte(p.src[j+1:], '`')
			nl := bytes.IndexByte(p.src[j+1:], '\n')
			if k >= 0 && (nl < 0 || k < nl) {
				j += k + 1
				continue
			}
		}
		if !looksLikeTag(p.src[j:]) {
			continue
		}
		t, ok, perr := parseTag(p.src, j)
		if perr != nil {
			return 0, tag{}, false, p.errorAt(perr.off, perr.msg)
		}
		if ok {
			return j, t, true, nil
		}
	}
	end := bytes.IndexByte(p.src[i:], '\n')
	if end < 0 {
		return len(p.src), tag{}, false, nil
	}
	return i + end, tag{}, false, nil
}

// apply updates the frame stack for t.
func (p *parser) apply(t tag) error {
	top := p.top()
	switch t.kind {
	case tagComment:
		return nil
	case tagSelfClose:
		if err := p.flush(top); err != nil {
			return err
		}
		if t.name != "" {
			top.node.appendChild(tagNode(t))
		}
		return nil
	case tagOpen:
		if err := p.flush(top); err != nil {
			return err
		}
		if t.name == "" {
			p.stack = append(p.stack, &frame{node: &Node{Kind: KindRoot}, off: t.start, fragment: true})
			return nil
		}
		n := tagNode(t)
		top.node.appendChild(n)
		p.stack = append(p.stack, &frame{node: n, name: t.name, off: t.start})
		return nil
	case tagClose:
		if len(p.stack) == 1 {
			return p.errorAt(t.start, fmt.Sprintf("unexpected closing tag %s", displayName(t.name)))
		}
		if top.name != t.name || top.fragment != (t.name == "") {
			return p.errorAt(t.start, fmt.Sprintf("expected closing tag %s but found %s", displayName(top.name), displayName(t.name)))
		}
		if err := p.flush(top); err != nil {
			return err
		}
		p.stack = p.stack[:len(p.stack)-1]
		if top.fragment {
			parent := p.top()
			for _, c := range top.node.Children {
				parent.node.appendChild(c)
			}
		}
		return nil
	}
	return nil
}

// flush compiles f's pending markdown into its node.
func (p *parser) flush(f *frame) error {
	if !f.md.set {
		return nil
	}
	seg := f.md
	f.md = segment{}
	if len(bytes.TrimSpace(seg.buf)) == 0 {
		return nil
	}
	return p.appendMarkdown(f.node, seg, len(p.stack) > 1)
}

// appendInline compiles a text fragment found on a tag line and appends its
// inline content to the current frame.
func (p *parser) appendInline(b []byte, off int) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	holder := &Node{Kind: KindRoot}
	seg := segment{buf: b, line: p.lineIndex(off), set: true}
	if err := p.appendMarkdownAt(holder, seg, false, off-p.lineStarts[seg.line]); err != nil {
		return err
	}
	top := p.top()
	if len(holder.Children) == 1 && holder.Children[0].Kind == KindElement && holder.Children[0].Name == "p" {
		for _, c := range holder.Children[0].Children {
			top.node.appendChild(c)
		}
		return nil
	}
	for _, c := range holder.Children {
		top.node.appendChild(c)
	}
	return nil
}

func (p *parser) top() *frame {
	return p.stack[len(p.stack)-1]
}

// lineIndex returns the 0-based body line containing off.
func (p *parser) lineIndex(off int) int {
	return sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > off }) - 1
}

func (p *parser) errorAt(off int, msg string) *CompileError {
	line := p.lineIndex(off)
	return &CompileError{
		Line:   line + 1 + p.lineOffset,
		Column: off - p.lineStarts[line] + 1,
		Msg:    msg,
	}
}

// fenceMarker returns the fence character and run length when b opens or
// closes a fenced code block.
func fenceMarker(b []byte) (byte, int) {
	if len(b) == 0 || (b[0] != '`' && b[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(b) && b[n] == b[0] {
		n++
	}
	if n < 3 {
		return 0, 0
	}
	if b[0] == '`' && bytes.IndexByte(b[n:], '`') >= 0 {
		return 0, 0
	}
	return b[0], n
}

// isExprComment matches a line holding only {/* … */}.
func isExprComment(b []byte) bool {
	b = bytes.TrimSpace(b)
	return bytes.HasPrefix(b, []byte("{/*")) && bytes.HasSuffix(b, []byte("*/}"))
}
