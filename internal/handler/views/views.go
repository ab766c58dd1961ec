// Package views renders the HTML pages of the explain UI.
package views

//go:generate templ generate

import (
	"bytes"
	"log/slog"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
)

// FormData pre-fills the explain form.
type FormData struct {
	Question      string
	StudentAnswer string
	CorrectAnswer string
	Documents     string
}

// markdown renders LLM explanations, which often use Markdown emphasis and
// lists. goldmark omits raw HTML unless WithUnsafe is set.
func markdown(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		slog.Warn("markdown render failed", "error", err)
		return "<p>" + templ.EscapeString(text) + "</p>"
	}
	return buf.String()
}
