package bundle

import (
	"fmt"
	"html"
	"strings"
)

// DefaultRegistry returns the components every site gets: a code block
// wrapper, callouts, tooltips and the Icons namespace.
func DefaultRegistry() Registry {
	return Registry{
		"pre":     codeFrame,
		"Callout": callout,
		"Tooltip": tooltip,
		"Icons.*": icon,
	}
}

func codeFrame(_ string, props map[string]any, children string) (string, error) {
	lang, _ := props["language"].(string)
	if lang == "" {
		return "<pre class=\"code-block\">" + children + "</pre>", nil
	}
	return fmt.Sprintf(`<pre class="code-block" data-language="%s">%s</pre>`, html.EscapeString(lang), children), nil
}

func callout(_ string, props map[string]any, children string) (string, error) {
	kind, _ := props["type"].(string)
	if kind == "" {
		kind = "info"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="callout callout-%s" role="note">`, html.EscapeString(kind))
	if title, ok := props["title"].(string); ok && title != "" {
		fmt.Fprintf(&b, `<p class="callout-title">%s</p>`, html.EscapeString(title))
	}
	b.WriteString(children)
	b.WriteString("</div>")
	return b.String(), nil
}

func tooltip(_ string, props map[string]any, children string) (string, error) {
	content, _ := props["content"].(string)
	return fmt.Sprintf(`<span class="tooltip" title="%s">%s</span>`, html.EscapeString(content), children), nil
}

// icon renders any Icons.<Name> reference. The concrete glyph comes from the
// site stylesheet.
func icon(name string, props map[string]any, _ string) (string, error) {
	class := "icon"
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i+1 < len(name) {
		class += " icon-" + strings.ToLower(name[i+1:])
	}
	if extra, ok := props["className"].(string); ok && extra != "" {
		class += " " + extra
	}
	return fmt.Sprintf(`<span class="%s" aria-hidden="true"></span>`, html.EscapeString(class)), nil
}
