package bundle

// ProgramVersion is bumped whenever the serialized node layout changes.
const ProgramVersion = 1

// Program is the serialized form stored in Bundle.Code.
type Program struct {
	Version int   `json:"v"`
	Root    *Node `json:"root"`
}

type Kind string

const (
	KindRoot      Kind = "root"
	KindElement   Kind = "el"
	KindComponent Kind = "cmp"
	KindText      Kind = "text"
	KindRaw       Kind = "raw"
)

type AttrKind string

const (
	AttrString AttrKind = "str"
	AttrBool   AttrKind = "bool"
	AttrExpr   AttrKind = "expr"
)

// Node is one program node. Elements carry an intrinsic tag name,
// components a registry name, text and raw nodes carry Text.
type Node struct {
	Kind     Kind    `json:"k"`
	Name     string  `json:"n,omitempty"`
	Attrs    []Attr  `json:"a,omitempty"`
	Text     string  `json:"t,omitempty"`
	Children []*Node `json:"c,omitempty"`
}

type Attr struct {
	Name  string   `json:"n"`
	Kind  AttrKind `json:"k"`
	Value string   `json:"v,omitempty"`
}

func element(name string, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Name: name, Attrs: attrs}
}

func text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

func strAttr(name, value string) Attr {
	return Attr{Name: name, Kind: AttrString, Value: value}
}

// appendChild adds c to n, merging adjacent text nodes.
func (n *Node) appendChild(c *Node) {
	if c == nil {
		return
	}
	if c.Kind == KindText {
		if c.Text == "" {
			return
		}
		if k := len(n.Children); k > 0 && n.Children[k-1].Kind == KindText {
			n.Children[k-1].Text += c.Text
			return
		}
	}
	n.Children = append(n.Children, c)
}

// plainText concatenates the text below n.
func plainText(n *Node) string {
	if n.Kind == KindText {
		return n.Text
	}
	var s string
	for _, c := range n.Children {
		s += plainText(c)
	}
	return s
}
