package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
)

var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrInvalidProgram   = errors.New("invalid program")
)

// Component renders a bound node. name is the node's full name, which lets
// one function serve a whole namespace; children is the rendered HTML of the
// node's children.
type Component func(name string, props map[string]any, children string) (string, error)

// Registry maps names to components. Keys may be component names
// ("Callout"), namespace wildcards ("Icons.*") or intrinsic element names
// ("pre") to override how markdown output renders.
type Registry map[string]Component

func (r Registry) lookup(name string) (Component, bool) {
	if c, ok := r[name]; ok {
		return c, true
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		c, ok := r[name[:i]+".*"]
		return c, ok
	}
	return nil, false
}

// Expression is an attribute expression that is not a JSON literal. It is
// passed to components as its source text.
type Expression string

// Element is one node of an evaluated render tree.
type Element struct {
	Kind     Kind
	Name     string
	Props    map[string]any
	Text     string
	Children []*Element
	// Component is set for components and for overridden intrinsics.
	Component Component
}

// Evaluate decodes code and binds every component it references. A
// component missing from reg fails with ErrUnknownComponent.
func Evaluate(code string, reg Registry) (*Element, error) {
	var prog Program
	if err := json.Unmarshal([]byte(code), &prog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}
	if prog.Version != ProgramVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrInvalidProgram, prog.Version, ProgramVersion)
	}
	if prog.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrInvalidProgram)
	}
	return bind(prog.Root, reg)
}

func bind(n *Node, reg Registry) (*Element, error) {
	el := &Element{Kind: n.Kind, Name: n.Name, Text: n.Text}
	if len(n.Attrs) > 0 {
		el.Props = make(map[string]any, len(n.Attrs))
		for _, a := range n.Attrs {
			el.Props[a.Name] = attrValue(a)
		}
	}

	switch n.Kind {
	case KindComponent:
		c, ok := reg.lookup(n.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, n.Name)
		}
		el.Component = c
	case KindElement:
		if c, ok := reg[n.Name]; ok {
			el.Component = c
		}
	case KindRoot, KindText, KindRaw:
	default:
		return nil, fmt.Errorf("%w: node kind %q", ErrInvalidProgram, n.Kind)
	}

	for _, c := range n.Children {
		child, err := bind(c, reg)
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, child)
	}
	return el, nil
}

func attrValue(a Attr) any {
	switch a.Kind {
	case AttrBool:
		return true
	case AttrExpr:
		var v any
		if err := json.Unmarshal([]byte(a.Value), &v); err == nil {
			return v
		}
		return Expression(a.Value)
	default:
		return a.Value
	}
}

// RenderHTML serializes an evaluated tree. Components render through their
// bound functions; everything else becomes plain HTML.
func RenderHTML(el *Element) (string, error) {
	var b strings.Builder
	if err := renderTo(&b, el); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderChildren(el *Element) (string, error) {
	var b strings.Builder
	for _, c := range el.Children {
		if err := renderTo(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func renderTo(b *strings.Builder, el *Element) error {
	switch el.Kind {
	case KindText:
		b.WriteString(html.EscapeString(el.Text))
		return nil
	case KindRaw:
		b.WriteString(el.Text)
		return nil
	case KindRoot:
		inner, err := renderChildren(el)
		if err != nil {
			return err
		}
		b.WriteString(inner)
		return nil
	}

	inner, err := renderChildren(el)
	if err != nil {
		return err
	}
	if el.Component != nil {
		out, err := el.Component(el.Name, el.Props, inner)
		if err != nil {
			return fmt.Errorf("render %s: %w", el.Name, err)
		}
		b.WriteString(out)
		return nil
	}
	if el.Kind == KindComponent {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, el.Name)
	}

	b.WriteString("<" + el.Name)
	b.WriteString(Attributes(el.Props))
	b.WriteString(">")
	if voidElements[el.Name] {
		return nil
	}
	b.WriteString(inner)
	b.WriteString("</" + el.Name + ">")
	return nil
}

// Attributes renders props as HTML attributes in name order. JSX names such
// as className are mapped to their HTML spelling; expression values that are
// not strings, numbers or booleans are dropped.
func Attributes(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		name := k
		switch k {
		case "className":
			name = "class"
		case "htmlFor":
			name = "for"
		}
		switch v := props[k].(type) {
		case bool:
			if v {
				b.WriteString(" " + name)
			}
		case string:
			fmt.Fprintf(&b, ` %s="%s"`, name, html.EscapeString(v))
		case float64:
			fmt.Fprintf(&b, ` %s="%s"`, name, html.EscapeString(fmt.Sprint(v)))
		}
	}
	return b.String()
}
