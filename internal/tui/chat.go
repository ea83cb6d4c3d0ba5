// ABOUTME: Chat page: a conversation.Controller rendered into a viewport
// ABOUTME: Controller changes arrive as tea messages through a subscription

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/conversation"
	"github.com/2389/legisbot/internal/history"
)

// chatChangedMsg reports a controller change. rearm is set when the message
// came from the subscription and the wait must be re-issued.
type chatChangedMsg struct {
	ctrl  *conversation.Controller
	rearm bool
}

type chatPage struct {
	ctrl     *conversation.Controller
	changes  <-chan conversation.Change
	cancel   context.CancelFunc
	input    textinput.Model
	viewport viewport.Model
}

func newChatPage(backend conversation.Backend, logger *zap.Logger) *chatPage {
	in := textinput.New()
	in.Placeholder = "Escribí tu consulta..."
	in.CharLimit = 0 // questions are never truncated
	in.Prompt = "› "
	in.Focus()
	return &chatPage{
		ctrl:     conversation.NewController(backend, logger),
		input:    in,
		viewport: viewport.New(80, 15),
	}
}

// activate subscribes to the controller and loads the context list.
func (c *chatPage) activate(ctx context.Context) tea.Cmd {
	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.changes, _ = c.ctrl.Subscribe(subCtx)
	ctrl := c.ctrl
	return tea.Batch(
		waitForChange(ctrl, c.changes),
		func() tea.Msg {
			ctrl.LoadContexts(ctx)
			return chatChangedMsg{ctrl: ctrl}
		},
	)
}

func waitForChange(ctrl *conversation.Controller, changes <-chan conversation.Change) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return chatChangedMsg{ctrl: ctrl, rearm: true}
	}
}

func (c *chatPage) close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.ctrl.Close()
}

func (c *chatPage) setSize(width, height int) {
	c.viewport.Width = width
	c.viewport.Height = max(height-4, 3)
	c.input.Width = max(width-4, 10)
}

// nextContext cycles the selection through "all documents" and each context.
func (c *chatPage) nextContext() {
	contexts := c.ctrl.Contexts()
	if len(contexts) == 0 {
		return
	}
	current := c.ctrl.SelectedContext()
	next := contexts[0].ID
	for i, ctx := range contexts {
		if ctx.ID != current {
			continue
		}
		if i+1 < len(contexts) {
			next = contexts[i+1].ID
		} else {
			next = ""
		}
	}
	_ = c.ctrl.SelectContext(next)
}

func (c *chatPage) contextName() string {
	id := c.ctrl.SelectedContext()
	if id == "" {
		return "Todos los documentos"
	}
	for _, ctx := range c.ctrl.Contexts() {
		if ctx.ID == id {
			return ctx.Name
		}
	}
	return string(id)
}

func (m *Model) updateChat(msg tea.Msg) tea.Cmd {
	c := m.chat
	if c == nil {
		return nil
	}
	switch msg := msg.(type) {
	case chatChangedMsg:
		if msg.ctrl != c.ctrl {
			return nil
		}
		m.refreshTranscript()
		if msg.rearm {
			return waitForChange(c.ctrl, c.changes)
		}
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+n":
			c.nextContext()
			return nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			c.viewport, cmd = c.viewport.Update(msg)
			return cmd
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	c.ctrl.SetDraft(c.input.Value())
	return cmd
}

func (m *Model) submit() tea.Cmd {
	c := m.chat
	done, ok := c.ctrl.Submit(m.ctx, c.input.Value())
	if !ok {
		return nil
	}
	c.input.Reset()
	m.refreshTranscript()
	ctrl := c.ctrl
	return func() tea.Msg {
		<-done
		return chatChangedMsg{ctrl: ctrl}
	}
}

func (m *Model) refreshTranscript() {
	c := m.chat
	c.viewport.SetContent(m.transcript(c.ctrl.Entries()))
	c.viewport.GotoBottom()
}

func (m *Model) transcript(entries []conversation.Entry) string {
	if len(entries) == 0 {
		return m.styles.Muted.Render("Hacé una pregunta sobre los documentos legislativos.")
	}
	var b strings.Builder
	for _, e := range entries {
		switch e.Role {
		case conversation.RoleUser:
			b.WriteString(m.styles.UserMsg.Render("Vos: "))
			b.WriteString(e.Text)
		case conversation.RolePending:
			b.WriteString(m.styles.Pending.Render("Legisbot: …"))
		case conversation.RoleAssistant:
			b.WriteString(m.styles.BotMsg.Render("Legisbot:"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(e.Text))
			if len(e.Sources) > 0 {
				b.WriteString("\n")
				b.WriteString(m.styles.Muted.Render("Fuentes: " + history.SourceLabels(e.Sources)))
			}
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) viewChat() string {
	c := m.chat
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Muted.Render("Contexto: "))
	b.WriteString(c.contextName())
	if n := len(c.ctrl.Contexts()); n > 0 {
		b.WriteString(m.styles.Muted.Render(" (ctrl+n para cambiar)"))
	}
	b.WriteString("\n\n")
	b.WriteString(c.viewport.View())
	b.WriteString("\n\n")
	if c.ctrl.InFlight() {
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" Consultando..."))
		b.WriteString("\n")
	}
	b.WriteString(c.input.View())
	return b.String()
}
