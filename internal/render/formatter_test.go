package render

import (
	"strings"
	"testing"
)

func TestFormatMarkdown(t *testing.T) {
	f := NewFormatter()

	t.Run("bold", func(t *testing.T) {
		out, err := f.Format("**bold**")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		if !strings.Contains(out, "<strong>bold</strong>") {
			t.Errorf("expected <strong> wrapping, got: %s", out)
		}
	})

	t.Run("heading", func(t *testing.T) {
		out, _ := f.Format("# Title")
		if !strings.Contains(out, "<h1") || !strings.Contains(out, "Title") {
			t.Errorf("expected h1, got: %s", out)
		}
	})

	t.Run("fenced code block is highlighted", func(t *testing.T) {
		out, err := f.Format("```go\nfunc main() {}\n```")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		if !strings.Contains(out, "<pre") || !strings.Contains(out, "<code") {
			t.Errorf("expected pre/code block, got: %s", out)
		}
		if !strings.Contains(out, "class=") {
			t.Errorf("expected highlight classes, got: %s", out)
		}
	})

	t.Run("table", func(t *testing.T) {
		out, _ := f.Format("| a | b |\n|---|---|\n| 1 | 2 |")
		if !strings.Contains(out, "<table>") || !strings.Contains(out, "<td>1</td>") {
			t.Errorf("expected table, got: %s", out)
		}
	})

	t.Run("link keeps allowed attributes", func(t *testing.T) {
		out, _ := f.Format("[site](https://example.com)")
		if !strings.Contains(out, `href="https://example.com"`) {
			t.Errorf("expected href preserved, got: %s", out)
		}
	})

	t.Run("hard line breaks", func(t *testing.T) {
		out, _ := f.Format("line one\nline two")
		if !strings.Contains(out, "<br") {
			t.Errorf("expected <br> for soft newline, got: %s", out)
		}
	})
}

func TestFormatSanitizes(t *testing.T) {
	f := NewFormatter()

	t.Run("script tag is stripped", func(t *testing.T) {
		out, err := f.Format("hello <script>alert('x')</script> world")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		if strings.Contains(out, "<script") {
			t.Errorf("script tag survived sanitization: %s", out)
		}
		if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
			t.Errorf("safe text lost: %s", out)
		}
	})

	t.Run("event handler attribute is stripped", func(t *testing.T) {
		out, _ := f.Format(`<p onclick="alert('x')">click me</p>`)
		if strings.Contains(out, "onclick") {
			t.Errorf("onclick survived sanitization: %s", out)
		}
		if !strings.Contains(out, "click me") {
			t.Errorf("inner text lost: %s", out)
		}
	})

	t.Run("javascript href is stripped", func(t *testing.T) {
		out, _ := f.Format(`<a href="javascript:alert('x')">link</a>`)
		if strings.Contains(out, "javascript:") {
			t.Errorf("javascript URL survived sanitization: %s", out)
		}
	})

	t.Run("iframe is stripped", func(t *testing.T) {
		out, _ := f.Format(`<iframe src="https://example.com"></iframe>ok`)
		if strings.Contains(out, "<iframe") {
			t.Errorf("iframe survived sanitization: %s", out)
		}
	})

	t.Run("allowed raw html passes through", func(t *testing.T) {
		out, _ := f.Format(`<div class="note">text</div>`)
		if !strings.Contains(out, `<div class="note">`) {
			t.Errorf("allowed div/class stripped: %s", out)
		}
	})
}

func TestCodeStyles(t *testing.T) {
	css := CodeStyles()
	if css == "" {
		t.Fatal("expected non-empty stylesheet")
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("expected chroma class selectors, got: %.100s", css)
	}
}
