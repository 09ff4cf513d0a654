package bundle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperdocs/hyperdocs/internal/bundle"
)

func render(t *testing.T, src string, reg bundle.Registry) string {
	t.Helper()
	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)
	el, err := bundle.Evaluate(b.Code, reg)
	require.NoError(t, err)
	out, err := bundle.RenderHTML(el)
	require.NoError(t, err)
	return out
}

func compileError(t *testing.T, src string) *bundle.CompileError {
	t.Helper()
	_, err := bundle.Compile([]byte(src))
	require.Error(t, err)
	var ce *bundle.CompileError
	require.True(t, errors.As(err, &ce), "expected *CompileError, got %T: %v", err, err)
	return ce
}

// ─── Markdown ──────────────────────────────────────────────────────────

func TestCompile_PlainMarkdown(t *testing.T) {
	t.Parallel()
	out := render(t, "# Hello\n\nSome *text*.\n", nil)
	assert.Equal(t, `<h1 id="hello">Hello</h1><p>Some <em>text</em>.</p>`, out)
}

func TestCompile_GFMConstructs(t *testing.T) {
	t.Parallel()
	src := "| a | b |\n|:--|--:|\n| 1 | 2 |\n\n- [x] done\n- todo\n\n~~old~~ <https://example.com>\n"
	out := render(t, src, nil)

	assert.Contains(t, out, `<table><thead><tr><th align="left">a</th><th align="right">b</th></tr></thead><tbody><tr><td align="left">1</td><td align="right">2</td></tr></tbody></table>`)
	assert.Contains(t, out, `<li><input checked disabled type="checkbox"> `)
	assert.Contains(t, out, `done</li>`)
	assert.Contains(t, out, `<del>old</del>`)
	assert.Contains(t, out, `<a href="https://example.com">https://example.com</a>`)
}

func TestCompile_HeadingIDsAreUnique(t *testing.T) {
	t.Parallel()
	out := render(t, "## Setup\n\n## Setup\n", nil)
	assert.Equal(t, `<h2 id="setup">Setup</h2><h2 id="setup-1">Setup</h2>`, out)
}

func TestCompile_FencedCodeIsVerbatim(t *testing.T) {
	t.Parallel()
	src := "```jsx\n<Callout>\n  {x}\n```\n"

	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)
	assert.Empty(t, b.Components)

	out := render(t, src, nil)
	assert.Equal(t, "<pre language=\"jsx\"><code class=\"language-jsx\">&lt;Callout&gt;\n  {x}\n</code></pre>", out)
}

func TestCompile_PreCanBeOverridden(t *testing.T) {
	t.Parallel()
	out := render(t, "```go\nfmt.Println()\n```\n", bundle.DefaultRegistry())
	assert.Equal(t, "<pre class=\"code-block\" data-language=\"go\"><code class=\"language-go\">fmt.Println()\n</code></pre>", out)
}

func TestCompile_Frontmatter(t *testing.T) {
	t.Parallel()
	src := "---\ntitle: Getting Started\ntags: [a, b]\nnested:\n  key: v\n---\n# Body\n"
	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Getting Started", b.Frontmatter["title"])
	assert.Equal(t, []any{"a", "b"}, b.Frontmatter["tags"])
	assert.Equal(t, map[string]any{"key": "v"}, b.Frontmatter["nested"])

	el, err := bundle.Evaluate(b.Code, nil)
	require.NoError(t, err)
	out, err := bundle.RenderHTML(el)
	require.NoError(t, err)
	assert.Equal(t, `<h1 id="body">Body</h1>`, out)
}

func TestCompile_NoFrontmatter(t *testing.T) {
	t.Parallel()
	b, err := bundle.Compile([]byte("plain\n"))
	require.NoError(t, err)
	assert.Empty(t, b.Frontmatter)
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()
	src := []byte("# A\n\n<Callout type=\"info\" open n={3}>\nx\n</Callout>\n")
	first, err := bundle.Compile(src)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := bundle.Compile(src)
		require.NoError(t, err)
		assert.Equal(t, first.Code, again.Code)
	}
}

// ─── Components ────────────────────────────────────────────────────────

func TestCompile_BlockComponent(t *testing.T) {
	t.Parallel()
	src := "# Intro\n\n<Callout type=\"warning\" title=\"Heads up\">\nBe **careful**.\n</Callout>\n"

	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Callout"}, b.Components)

	out := render(t, src, bundle.DefaultRegistry())
	assert.Equal(t, `<h1 id="intro">Intro</h1><div class="callout callout-warning" role="note"><p class="callout-title">Heads up</p><p>Be <strong>careful</strong>.</p></div>`, out)
}

func TestCompile_IndentedComponentBodyIsProse(t *testing.T) {
	t.Parallel()
	src := "<Callout>\n    Indented text.\n</Callout>\n"
	out := render(t, src, bundle.DefaultRegistry())
	assert.Equal(t, `<div class="callout callout-info" role="note"><p>Indented text.</p></div>`, out)
}

func TestCompile_SingleLineComponent(t *testing.T) {
	t.Parallel()
	out := render(t, "<Callout>Short *note*</Callout>\n", bundle.DefaultRegistry())
	assert.Equal(t, `<div class="callout callout-info" role="note">Short <em>note</em></div>`, out)
}

func TestCompile_InlineComponent(t *testing.T) {
	t.Parallel()
	src := "Hover <Tooltip content=\"a hint\">here</Tooltip> please.\n"

	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tooltip"}, b.Components)

	out := render(t, src, bundle.DefaultRegistry())
	assert.Equal(t, `<p>Hover <span class="tooltip" title="a hint">here</span> please.</p>`, out)
}

func TestCompile_NamespacedComponent(t *testing.T) {
	t.Parallel()
	src := "<Icons.Clipboard />\n"
	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Icons.Clipboard"}, b.Components)

	out := render(t, src, bundle.DefaultRegistry())
	assert.Equal(t, `<span class="icon icon-clipboard" aria-hidden="true"></span>`, out)
}

func TestCompile_NestedComponentsAndHTML(t *testing.T) {
	t.Parallel()
	src := "<div align=\"center\">\n<img src=\"logo.png\" alt=\"logo\">\n\n<Callout>\nhi\n</Callout>\n</div>\n"
	out := render(t, src, bundle.DefaultRegistry())
	assert.Equal(t, `<div align="center"><img alt="logo" src="logo.png"><div class="callout callout-info" role="note"><p>hi</p></div></div>`, out)
}

func TestCompile_FragmentsAndComments(t *testing.T) {
	t.Parallel()
	src := "<!-- hidden -->\n{/* also hidden */}\n<>\ntext\n</>\n"
	out := render(t, src, nil)
	assert.Equal(t, `<p>text</p>`, out)
}

func TestEvaluate_Props(t *testing.T) {
	t.Parallel()
	src := "<Chart data={[1, 2]} label={t(\"x\")} height={300} open title='Sales' />\n"
	b, err := bundle.Compile([]byte(src))
	require.NoError(t, err)

	var got map[string]any
	reg := bundle.Registry{"Chart": func(name string, props map[string]any, _ string) (string, error) {
		got = props
		return "<chart>", nil
	}}
	el, err := bundle.Evaluate(b.Code, reg)
	require.NoError(t, err)
	out, err := bundle.RenderHTML(el)
	require.NoError(t, err)

	assert.Equal(t, "<chart>", out)
	assert.Equal(t, []any{float64(1), float64(2)}, got["data"])
	assert.Equal(t, bundle.Expression(`t("x")`), got["label"])
	assert.Equal(t, float64(300), got["height"])
	assert.Equal(t, true, got["open"])
	assert.Equal(t, "Sales", got["title"])
}

func TestEvaluate_UnknownComponent(t *testing.T) {
	t.Parallel()
	b, err := bundle.Compile([]byte("<Callout>\nx\n</Callout>\n"))
	require.NoError(t, err)

	_, err = bundle.Evaluate(b.Code, bundle.Registry{})
	require.ErrorIs(t, err, bundle.ErrUnknownComponent)
}

func TestEvaluate_InvalidProgram(t *testing.T) {
	t.Parallel()
	_, err := bundle.Evaluate("not json", nil)
	require.ErrorIs(t, err, bundle.ErrInvalidProgram)

	_, err = bundle.Evaluate(`{"v":99,"root":{"k":"root"}}`, nil)
	require.ErrorIs(t, err, bundle.ErrInvalidProgram)
}

// ─── Compile errors ────────────────────────────────────────────────────

func TestCompile_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		line int
		col  int
		msg  string
	}{
		{"unclosed block tag", "# T\n\n<Callout>\ntext\n", 3, 1, "unclosed tag <Callout>"},
		{"mismatched close", "<Tabs>\nx\n</Tab>\n", 3, 1, "expected closing tag </Tabs> but found </Tab>"},
		{"stray close", "text\n\n</Callout>\n", 3, 1, "unexpected closing tag </Callout>"},
		{"unquoted attribute", "<Callout type=warning>\n</Callout>\n", 1, 15, `value of attribute "type" must be a quoted string or {expression}`},
		{"unterminated expression", "<Chart data={[1, 2] />\n", 1, 13, "unterminated expression"},
		{"unclosed inline tag", "Press <Kbd>Ctrl\n", 1, 7, "unclosed tag <Kbd>"},
		{"front matter offsets lines", "---\ntitle: x\n---\n<Callout>\n", 4, 1, "unclosed tag <Callout>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ce := compileError(t, tt.src)
			assert.Equal(t, tt.line, ce.Line, "line")
			assert.Equal(t, tt.col, ce.Column, "column")
			assert.Equal(t, tt.msg, ce.Msg)
		})
	}
}

func TestCompile_BadFrontmatter(t *testing.T) {
	t.Parallel()
	ce := compileError(t, "---\ntitle: [unclosed\n---\nbody\n")
	assert.Equal(t, 1, ce.Line)
	assert.Contains(t, ce.Msg, "front matter")
}

// ─── Titled compile ────────────────────────────────────────────────────

func TestCompileTitled(t *testing.T) {
	t.Parallel()
	c := bundle.NewCompiler()

	b, err := c.CompileTitled([]byte("---\nauthor: ops\n---\nBody text.\n"), "Getting Started")
	require.NoError(t, err)
	assert.Equal(t, "ops", b.Frontmatter["author"])

	el, err := bundle.Evaluate(b.Code, nil)
	require.NoError(t, err)
	out, err := bundle.RenderHTML(el)
	require.NoError(t, err)
	assert.Equal(t, `<h1 id="getting-started">Getting Started</h1><p>Body text.</p>`, out)
}

func TestCompileTitled_EscapesTitle(t *testing.T) {
	t.Parallel()
	b, err := bundle.NewCompiler().CompileTitled([]byte("x\n"), "<Callout> *a*")
	require.NoError(t, err)
	assert.Empty(t, b.Components)

	el, err := bundle.Evaluate(b.Code, nil)
	require.NoError(t, err)
	out, err := bundle.RenderHTML(el)
	require.NoError(t, err)
	assert.Contains(t, out, `&lt;Callout&gt; *a*</h1>`)
}

func TestCompileTitled_ErrorPositions(t *testing.T) {
	t.Parallel()
	_, err := bundle.NewCompiler().CompileTitled([]byte("---\nk: v\n---\n\n<Callout>\n"), "Setup")
	var ce *bundle.CompileError
	require.True(t, errors.As(err, &ce), "expected *CompileError, got %v", err)
	assert.Equal(t, 5, ce.Line)
	assert.Equal(t, 1, ce.Column)
}
