// Package render converts untrusted model output into sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// highlightStyle is the fixed chroma color scheme served by CodeStyles.
const highlightStyle = "monokai"

// Formatter renders markdown-flavored text to a restricted HTML subset.
// Rendering happens in two ordered stages: goldmark produces HTML (raw HTML
// in the input passes through untouched), then bluemonday strips everything
// outside the allow-list. The second stage is the security boundary, so the
// output never contains script-executing constructs regardless of input.
type Formatter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewFormatter creates the markdown-to-sanitized-HTML pipeline.
func NewFormatter() *Formatter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithStyle(highlightStyle),
				highlighting.WithGuessLanguage(true),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)

	return &Formatter{
		md:     md,
		policy: newPolicy(),
	}
}

// newPolicy builds the sanitizer allow-list: explicit tags, and per tag an
// explicit attribute list. Everything else is stripped, keeping safe inner
// text.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "code", "pre", "hr", "div", "span",
		"ul", "ol", "li",
		"table", "thead", "tbody", "tr", "th", "td",
		"a", "img",
	)

	p.AllowAttrs("href", "title", "target").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("class").OnElements("code", "pre", "span", "div")

	// Reject javascript: and friends outright.
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)

	return p
}

// Format converts text to sanitized HTML with syntax-highlighted code
// blocks.
func (f *Formatter) Format(text string) (string, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return f.policy.Sanitize(buf.String()), nil
}

// CodeStyles returns the static stylesheet for the highlighting color
// scheme, for the page to embed once.
func CodeStyles() string {
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var b strings.Builder
	if err := formatter.WriteCSS(&b, style); err != nil {
		return ""
	}
	return b.String()
}
