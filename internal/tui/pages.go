// ABOUTME: History, document upload and statistics pages
// ABOUTME: Data pages load on entry and reload with r

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/legisbot/internal/admin"
	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/history"
)

type historyLoadedMsg struct {
	sessions []api.HistorySession
}

type statsLoadedMsg struct {
	stats admin.Stats
}

type uploadDoneMsg struct {
	text string
	err  error
}

type historyPage struct {
	viewport viewport.Model
	loaded   bool
	content  string
}

func newHistoryPage() historyPage {
	return historyPage{viewport: viewport.New(80, 15)}
}

func (h *historyPage) setSize(width, height int) {
	h.viewport.Width = width
	h.viewport.Height = height
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		return historyLoadedMsg{sessions: history.Fetch(m.ctx, m.backend, m.logger)}
	}
}

func (m *Model) updateHistory(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.history.loaded = true
		m.history.content = m.renderHistory(msg.sessions)
		m.history.viewport.SetContent(m.history.content)
		m.history.viewport.GotoTop()
		return nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.history.loaded = false
			return m.loadHistory()
		}
	}
	var cmd tea.Cmd
	m.history.viewport, cmd = m.history.viewport.Update(msg)
	return cmd
}

func (m *Model) renderHistory(sessions []api.HistorySession) string {
	if len(sessions) == 0 {
		return m.styles.Muted.Render(history.EmptyText)
	}
	var b strings.Builder
	for _, s := range sessions {
		b.WriteString(m.styles.Title.Render(fmt.Sprintf("Sesión #%d · %s", s.ID, s.CreatedAt.Local().Format("02/01/2006 15:04"))))
		b.WriteString("\n")
		for _, ex := range history.Exchanges(s) {
			if ex.Question != "" {
				b.WriteString(m.styles.UserMsg.Render("P: "))
				b.WriteString(ex.Question)
				b.WriteString("\n")
			}
			if ex.Answer != "" {
				b.WriteString(m.renderMarkdown(ex.Answer))
				b.WriteString("\n")
			}
			if labels := history.SourceLabels(ex.Sources); labels != "" {
				b.WriteString(m.styles.Muted.Render("Fuentes: " + labels))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h historyPage) view(s Styles) string {
	if !h.loaded {
		return s.Muted.Render("Cargando historial...")
	}
	return h.viewport.View()
}

func newUploadForm() form {
	return newForm(
		field{label: "Archivo PDF", placeholder: "/ruta/al/documento.pdf"},
		field{label: "Contexto", placeholder: "Nombre del contexto"},
	)
}

func (m *Model) updateUpload(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case uploadDoneMsg:
		m.upload.busy = false
		if msg.err != nil {
			m.upload.err = api.Message(msg.err, "Error al subir")
			return nil
		}
		m.upload = newUploadForm()
		m.upload.notice = msg.text
		return nil
	case tea.KeyMsg:
		if m.upload.busy || msg.String() != "enter" {
			break
		}
		if !m.upload.onLast() {
			m.upload.move(1)
			return nil
		}
		path, contextName := m.upload.value(0), m.upload.value(1)
		m.upload.busy, m.upload.err, m.upload.notice = true, "", ""
		return func() tea.Msg {
			text, err := m.uploader.Upload(m.ctx, path, contextName)
			return uploadDoneMsg{text: text, err: err}
		}
	}
	if m.upload.busy {
		return nil
	}
	return m.upload.update(msg)
}

func (m *Model) viewUpload() string {
	return m.styles.Title.Render("Subir documento") + "\n" + m.upload.view(m.styles)
}

type statsPage struct {
	viewport viewport.Model
	stats    *admin.Stats
}

func newStatsPage() statsPage {
	return statsPage{viewport: viewport.New(80, 15)}
}

func (p *statsPage) setSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}

func (m *Model) loadStats(fresh bool) tea.Cmd {
	if fresh {
		m.dashboard.Invalidate()
	}
	return func() tea.Msg {
		return statsLoadedMsg{stats: m.dashboard.Load(m.ctx)}
	}
}

func (m *Model) updateStats(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		m.stats.stats = &msg.stats
		m.stats.viewport.SetContent(renderStats(m.styles, msg.stats, max(m.width/3, 10)))
		return nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.stats.stats = nil
			return m.loadStats(true)
		}
	}
	var cmd tea.Cmd
	m.stats.viewport, cmd = m.stats.viewport.Update(msg)
	return cmd
}

func (p statsPage) view(s Styles) string {
	if p.stats == nil {
		return s.Muted.Render("Cargando estadísticas...")
	}
	return p.viewport.View()
}

func renderStats(s Styles, st admin.Stats, barWidth int) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(fmt.Sprintf("Consultas en los últimos 30 días: %d", st.TotalQueries())))
	b.WriteString("\n")
	b.WriteString(groupWidget(s, "Usuarios por país", st.ByCountry, barWidth))
	b.WriteString(groupWidget(s, "Usuarios por profesión", st.ByOccupation, barWidth))
	b.WriteString(usageWidget(s, st.Usage, barWidth))
	b.WriteString(groupWidget(s, "Consultas más frecuentes", st.TopQueries, barWidth))
	if !st.FetchedAt.IsZero() {
		b.WriteString(s.Muted.Render("Actualizado " + st.FetchedAt.Local().Format("15:04:05")))
	}
	return b.String()
}

func groupWidget(s Styles, title string, w admin.Widget[api.GroupCount], barWidth int) string {
	labels := make([]string, len(w.Data))
	counts := make([]int, len(w.Data))
	for i, g := range w.Data {
		labels[i], counts[i] = g.Group, g.Count
	}
	return widget(s, title, w.Available, labels, counts, barWidth)
}

func usageWidget(s Styles, w admin.Widget[api.DailyCount], barWidth int) string {
	labels := make([]string, len(w.Data))
	counts := make([]int, len(w.Data))
	for i, d := range w.Data {
		labels[i], counts[i] = d.Date, d.Count
	}
	return widget(s, "Consultas por día", w.Available, labels, counts, barWidth)
}

func widget(s Styles, title string, available bool, labels []string, counts []int, barWidth int) string {
	var body string
	switch {
	case !available:
		body = s.Warning.Render("No disponible")
	case len(counts) == 0:
		body = s.Muted.Render("Sin datos")
	default:
		body = bars(s, labels, counts, barWidth)
	}
	return s.Card.Render(s.Title.Render(title)+"\n"+body) + "\n"
}

// bars renders one horizontal bar per label, scaled to the largest count.
func bars(s Styles, labels []string, counts []int, width int) string {
	peak, labelWidth := 0, 0
	for i, c := range counts {
		peak = max(peak, c)
		labelWidth = max(labelWidth, len([]rune(labels[i])))
	}
	labelWidth = min(labelWidth, 28)

	var b strings.Builder
	for i, c := range counts {
		n := 0
		if peak > 0 {
			n = c * width / peak
		}
		if c > 0 && n == 0 {
			n = 1
		}
		label := []rune(labels[i])
		if len(label) > labelWidth {
			label = append(label[:labelWidth-1], '…')
		}
		fmt.Fprintf(&b, "%-*s ", labelWidth, string(label))
		b.WriteString(s.Bar.Render(strings.Repeat("█", n)))
		fmt.Fprintf(&b, " %d\n", c)
	}
	return strings.TrimRight(b.String(), "\n")
}
