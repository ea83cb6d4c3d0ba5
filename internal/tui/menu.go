// ABOUTME: Dashboard page: the menu of pages the current user may open
// ABOUTME: Admin-only entries are hidden from members

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/route"
)

type menu struct {
	items  []route.Route
	cursor int
}

func newMenu(user *api.User) menu {
	var items []route.Route
	for _, r := range route.All {
		a := r.Access()
		if !a.Protected || r == route.Dashboard || r == route.Onboarding {
			continue
		}
		if a.AdminOnly && (user == nil || !user.IsAdmin()) {
			continue
		}
		items = append(items, r)
	}
	return menu{items: items}
}

func (m *Model) updateMenu(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.menu.items) == 0 {
		return nil
	}
	switch s := key.String(); s {
	case "up", "k":
		m.menu.cursor = (m.menu.cursor - 1 + len(m.menu.items)) % len(m.menu.items)
	case "down", "j", "tab":
		m.menu.cursor = (m.menu.cursor + 1) % len(m.menu.items)
	case "enter":
		m.navigate(m.menu.items[m.menu.cursor])
	default:
		if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(m.menu.items) {
			m.navigate(m.menu.items[s[0]-'1'])
		}
	}
	return nil
}

func (mn menu) view(s Styles, user *api.User) string {
	var b strings.Builder
	if user != nil {
		b.WriteString(s.Title.Render("Hola, " + user.Label()))
		b.WriteString("\n")
	}
	for i, r := range mn.items {
		line := fmt.Sprintf("%d. %s", i+1, r.Title())
		if i == mn.cursor {
			b.WriteString(s.Focused.UnsetWidth().Render("› " + line))
		} else {
			b.WriteString(s.Muted.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
