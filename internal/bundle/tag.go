package bundle

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tagKind int

const (
	tagOpen tagKind = iota
	tagClose
	tagSelfClose
	tagComment
)

// tag is one parsed JSX-style tag. An empty name is a fragment (<> or </>).
type tag struct {
	kind  tagKind
	name  string
	attrs []Attr
	start int
	end   int
}

// posError is a compile error located by byte offset; the caller maps it to
// a line and column.
type posError struct {
	off int
	msg string
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// isComponentName reports whether name refers to a registry component rather
// than an intrinsic element.
func isComponentName(name string) bool {
	if strings.Contains(name, ".") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// looksLikeTag reports whether b starts something parseTag should look at.
func looksLikeTag(b []byte) bool {
	if len(b) < 2 || b[0] != '<' {
		return false
	}
	c := b[1]
	return c == '/' || c == '>' || c == '!' || isASCIILetter(c)
}

// parseTag parses the tag starting at src[off]. ok is false when the text is
// not a tag at all (an autolink, a comparison) and should stay markdown.
func parseTag(src []byte, off int) (t tag, ok bool, perr *posError) {
	if bytes.HasPrefix(src[off:], []byte("<!--")) {
		end := bytes.Index(src[off+4:], []byte("-->"))
		if end < 0 {
			return tag{}, false, &posError{off, "unterminated comment"}
		}
		return tag{kind: tagComment, start: off, end: off + 4 + end + 3}, true, nil
	}

	i := off + 1
	t = tag{kind: tagOpen, start: off}
	if i < len(src) && src[i] == '/' {
		t.kind = tagClose
		i++
	}
	if i < len(src) && src[i] == '>' {
		t.end = i + 1
		return t, true, nil
	}
	if i >= len(src) || !isASCIILetter(src[i]) {
		return tag{}, false, nil
	}

	j := i
	for j < len(src) && isNameChar(src[j]) {
		j++
	}
	if j < len(src) && !isSpace(src[j]) && src[j] != '/' && src[j] != '>' {
		return tag{}, false, nil
	}
	t.name = string(src[i:j])
	if strings.HasSuffix(t.name, ".") || strings.Contains(t.name, "..") {
		return tag{}, false, &posError{i, fmt.Sprintf("invalid tag name %q", t.name)}
	}
	i = j

	if t.kind == tagClose {
		i = skipSpace(src, i)
		if i >= len(src) || src[i] != '>' {
			return tag{}, false, &posError{i, fmt.Sprintf("expected '>' to end closing tag </%s>", t.name)}
		}
		t.end = i + 1
		return t, true, nil
	}

	for {
		i = skipSpace(src, i)
		if i >= len(src) {
			return tag{}, false, &posError{off, fmt.Sprintf("unclosed tag <%s", t.name)}
		}
		switch c := src[i]; {
		case c == '>':
			t.end = i + 1
			if voidElements[t.name] {
				t.kind = tagSelfClose
			}
			return t, true, nil
		case c == '/':
			if i+1 < len(src) && src[i+1] == '>' {
				t.kind = tagSelfClose
				t.end = i + 2
				return t, true, nil
			}
			return tag{}, false, &posError{i, fmt.Sprintf("unexpected '/' in <%s>", t.name)}
		case c == '{':
			return tag{}, false, &posError{i, fmt.Sprintf("spread attributes are not supported in <%s>", t.name)}
		case isAttrStart(c):
			k := i
			for k < len(src) && isAttrChar(src[k]) {
				k++
			}
			attr := Attr{Name: string(src[i:k]), Kind: AttrBool}
			i = skipSpace(src, k)
			if i < len(src) && src[i] == '=' {
				i = skipSpace(src, i+1)
				if i >= len(src) {
					return tag{}, false, &posError{off, fmt.Sprintf("unclosed tag <%s", t.name)}
				}
				switch src[i] {
				case '"', '\'':
					end := bytes.IndexByte(src[i+1:], src[i])
					if end < 0 {
						return tag{}, false, &posError{i, fmt.Sprintf("unterminated value for attribute %q", attr.Name)}
					}
					attr.Kind = AttrString
					attr.Value = string(src[i+1 : i+1+end])
					i = i + 1 + end + 1
				case '{':
					end, perr := matchBrace(src, i)
					if perr != nil {
						return tag{}, false, perr
					}
					attr.Kind = AttrExpr
					attr.Value = strings.TrimSpace(string(src[i+1 : end]))
					if attr.Value == "" {
						return tag{}, false, &posError{i, fmt.Sprintf("empty expression for attribute %q", attr.Name)}
					}
					i = end + 1
				default:
					return tag{}, false, &posError{i, fmt.Sprintf("value of attribute %q must be a quoted string or {expression}", attr.Name)}
				}
			}
			t.attrs = append(t.attrs, attr)
		default:
			return tag{}, false, &posError{i, fmt.Sprintf("unexpected character %q in <%s>", c, t.name)}
		}
	}
}

// matchBrace returns the offset of the '}' closing the '{' at src[off],
// skipping string literals.
func matchBrace(src []byte, off int) (int, *posError) {
	depth := 0
	for i := off; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '"', '\'', '`':
			for i++; i < len(src) && src[i] != c; i++ {
				if src[i] == '\\' {
					i++
				}
			}
			if i >= len(src) {
				return 0, &posError{off, "unterminated string in expression"}
			}
		}
	}
	return 0, &posError{off, "unterminated expression"}
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isASCIILetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.'
}

func isAttrStart(c byte) bool {
	return isASCIILetter(c) || c == '_' || c == ':'
}

func isAttrChar(c byte) bool {
	return isAttrStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.'
}

// tagNode builds the program node for an opening or self-closing tag.
func tagNode(t tag) *Node {
	kind := KindElement
	if isComponentName(t.name) {
		kind = KindComponent
	}
	return &Node{Kind: kind, Name: t.name, Attrs: t.attrs}
}

func displayName(name string) string {
	if name == "" {
		return "</>"
	}
	return "</" + name + ">"
}
