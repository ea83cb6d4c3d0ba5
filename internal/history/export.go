// ABOUTME: Standalone HTML export of chat history
// ABOUTME: Answers are Markdown rendered through goldmark into an embedded template

package history

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/legisbot/internal/api"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	exportTmpl = template.Must(template.New("history.html").Funcs(template.FuncMap{
		"when":    formatTime,
		"sources": SourceLabels,
	}).ParseFS(templateFS, "templates/history.html"))

	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

type exportExchange struct {
	Question string
	Answer   template.HTML
	Sources  []api.Source
}

type exportSession struct {
	ID        int64
	CreatedAt api.Timestamp
	Exchanges []exportExchange
}

// ExportHTML writes sessions as a self-contained HTML page. Raw HTML in
// answers is not passed through.
func ExportHTML(w io.Writer, sessions []api.HistorySession) error {
	data := struct {
		Empty    string
		Sessions []exportSession
	}{Empty: EmptyText}

	for _, s := range sessions {
		es := exportSession{ID: s.ID, CreatedAt: s.CreatedAt}
		for _, ex := range Exchanges(s) {
			var buf bytes.Buffer
			if err := markdown.Convert([]byte(ex.Answer), &buf); err != nil {
				return fmt.Errorf("rendering answer of session %d: %w", s.ID, err)
			}
			es.Exchanges = append(es.Exchanges, exportExchange{
				Question: ex.Question,
				Answer:   template.HTML(buf.String()),
				Sources:  ex.Sources,
			})
		}
		data.Sessions = append(data.Sessions, es)
	}

	if err := exportTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering history export: %w", err)
	}
	return nil
}
