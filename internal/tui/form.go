// ABOUTME: Small multi-field form built from bubbles textinputs
// ABOUTME: Tab/shift+tab move focus; values are read back in field order

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label       string
	placeholder string
	secret      bool
	value       string
}

type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
	notice string
	busy   bool
}

func newForm(fields ...field) form {
	f := form{}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Placeholder = fd.placeholder
		ti.CharLimit = 256
		ti.Prompt = ""
		if fd.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.SetValue(fd.value)
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, ti)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// onLast reports whether the focused field is the last one.
func (f *form) onLast() bool {
	return f.focus == len(f.inputs)-1
}

func (f *form) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// update handles focus keys and forwards the rest to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.move(1)
			return nil
		case "shift+tab", "up":
			f.move(-1)
			return nil
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) raw(i int) string {
	return f.inputs[i].Value()
}

func (f *form) view(s Styles) string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := s.Label
		if i == f.focus {
			label = s.Focused
		}
		b.WriteString(label.Render(f.labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	switch {
	case f.busy:
		b.WriteString("\n" + s.Muted.Render("Enviando..."))
	case f.err != "":
		b.WriteString("\n" + s.Error.Render(f.err))
	case f.notice != "":
		b.WriteString("\n" + s.Success.Render(f.notice))
	}
	return b.String()
}
