package markdown

import (
	"strings"
	"testing"
)

func TestRenderHTMLBasics(t *testing.T) {
	out, err := RenderHTML("# Heading\n\nA *paragraph*.")
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(out, "<h1>Heading</h1>") {
		t.Fatalf("missing heading:\n%s", out)
	}
	if !strings.Contains(out, "<em>paragraph</em>") {
		t.Fatalf("missing emphasis:\n%s", out)
	}
}

func TestRenderHTMLTable(t *testing.T) {
	md := "| A | B |\n|---|---|\n| 1 | 2 |"
	out, err := RenderHTML(md)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(out, "<table>") || !strings.Contains(out, "<td>1</td>") {
		t.Fatalf("table not rendered:\n%s", out)
	}
}

func TestSanitizeStripsScript(t *testing.T) {
	out, err := Sanitize(`<p>ok</p><script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Fatalf("script survived: %s", out)
	}
	if !strings.Contains(out, "<p>ok</p>") {
		t.Fatalf("content lost: %s", out)
	}
}

func TestSanitizeStripsEventAttributes(t *testing.T) {
	out, err := Sanitize(`<img src="x.png" onerror="alert(1)"><a href="javascript:x()">l</a>`)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if strings.Contains(out, "onerror") || strings.Contains(out, "javascript:") {
		t.Fatalf("active attribute survived: %s", out)
	}
	if !strings.Contains(out, `src="x.png"`) {
		t.Fatalf("benign attribute lost: %s", out)
	}
}

func TestSanitizeNestedScript(t *testing.T) {
	out, err := Sanitize(`<div><script>bad()</script><span>fine</span></div>`)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if strings.Contains(out, "bad()") {
		t.Fatalf("nested script survived: %s", out)
	}
	if !strings.Contains(out, "<span>fine</span>") {
		t.Fatalf("sibling content lost: %s", out)
	}
}

func TestRenderHTMLSanitizesRawHTML(t *testing.T) {
	out, err := RenderHTML("text\n\n<script>alert(1)</script>\n")
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if strings.Contains(out, "alert(1)") {
		t.Fatalf("raw html not sanitized:\n%s", out)
	}
}
