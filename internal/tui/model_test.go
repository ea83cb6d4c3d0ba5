// ABOUTME: Tests for the TUI model driven without a terminal
// ABOUTME: Pages, guard redirects and chat run against the fake backend

package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/legisbot/internal/admin"
	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/backendtest"
	"github.com/2389/legisbot/internal/credential"
	"github.com/2389/legisbot/internal/route"
	"github.com/2389/legisbot/internal/session"
)

// driver runs a Model the way tea.Program does, minus the terminal:
// commands run concurrently and their messages are fed back until the
// model goes quiet.
type driver struct {
	m    *Model
	msgs chan tea.Msg
}

func (d *driver) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() { d.msgs <- cmd() }()
}

func (d *driver) dispatch(msg tea.Msg) {
	switch msg := msg.(type) {
	case nil, spinner.TickMsg, tea.QuitMsg:
	case tea.BatchMsg:
		for _, cmd := range msg {
			d.exec(cmd)
		}
	default:
		_, cmd := d.m.Update(msg)
		d.exec(cmd)
	}
}

func (d *driver) settle() {
	for {
		select {
		case msg := <-d.msgs:
			d.dispatch(msg)
		case <-time.After(250 * time.Millisecond):
			return
		}
	}
}

func (d *driver) send(msgs ...tea.Msg) {
	for _, msg := range msgs {
		d.dispatch(msg)
	}
	d.settle()
}

func (d *driver) typeText(s string) {
	d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

type fixture struct {
	srv   *backendtest.Server
	store *credential.MemoryStore
	sess  *session.Manager
	d     *driver
}

func start(t *testing.T, token string, page route.Route) *fixture {
	t.Helper()
	srv, baseURL := backendtest.Start(t, backendtest.Options{})
	store := credential.NewMemoryStore(token)
	client := api.New(api.Options{BaseURL: baseURL, Credentials: store, Timeout: 2 * time.Second})
	sess := session.New(store, client, nil, nil)

	m := New(context.Background(), Options{
		Session:   sess,
		Backend:   client,
		Dashboard: admin.NewDashboard(client, 0, nil),
		Uploader:  admin.NewUploader(client, nil),
		Start:     page,
	})
	d := &driver{m: m, msgs: make(chan tea.Msg, 64)}
	t.Cleanup(func() { m.leave(m.active) })
	return &fixture{srv: srv, store: store, sess: sess, d: d}
}

func (f *fixture) boot() {
	f.d.exec(f.d.m.Init())
	f.d.settle()
}

func (f *fixture) tokenFor(t *testing.T, email string, role api.Role, onboarded bool) string {
	t.Helper()
	_, err := f.srv.AddUser(email, "secreto1", role, onboarded)
	require.NoError(t, err)
	tok, err := f.srv.IssueToken(email)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(context.Background(), tok))
	return tok
}

func TestModel_ShowsLoadingBeforeBootstrap(t *testing.T) {
	f := start(t, "", route.Chat)
	assert.Contains(t, f.d.m.View(), "Cargando...")
}

func TestModel_RedirectsToLoginWithoutToken(t *testing.T) {
	f := start(t, "", route.Chat)
	f.boot()

	assert.Equal(t, route.Login, f.d.m.Page())
	assert.Contains(t, f.d.m.View(), "Iniciar sesión")
	assert.Zero(t, f.srv.Hits("/auth/users/me"))
}

func TestModel_LoginLandsOnOnboarding(t *testing.T) {
	f := start(t, "", route.Dashboard)
	_, err := f.srv.AddUser("nuevo@example.com", "secreto1", api.RoleMember, false)
	require.NoError(t, err)
	f.boot()
	require.Equal(t, route.Login, f.d.m.Page())

	f.d.typeText("nuevo@example.com")
	f.d.send(tea.KeyMsg{Type: tea.KeyTab})
	f.d.typeText("secreto1")
	f.d.send(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, route.Onboarding, f.d.m.Page())
	assert.Contains(t, f.d.m.View(), "Completá tu perfil")
}

func TestModel_LoginFailureShowsMessage(t *testing.T) {
	f := start(t, "", route.Login)
	_, err := f.srv.AddUser("vos@example.com", "secreto1", api.RoleMember, true)
	require.NoError(t, err)
	f.boot()

	f.d.typeText("vos@example.com")
	f.d.send(tea.KeyMsg{Type: tea.KeyTab})
	f.d.typeText("incorrecta")
	f.d.send(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, route.Login, f.d.m.Page())
	assert.Contains(t, f.d.m.View(), loginFailedText)
}

func TestModel_MemberCannotOpenAdminPages(t *testing.T) {
	f := start(t, "", route.AdminStats)
	f.tokenFor(t, "socio@example.com", api.RoleMember, true)
	f.boot()

	assert.Equal(t, route.Dashboard, f.d.m.Page())
	assert.Zero(t, f.srv.Hits("/admin/stats/usage"))

	view := f.d.m.View()
	assert.Contains(t, view, route.Chat.Title())
	assert.NotContains(t, view, route.AdminStats.Title())
}

func TestModel_ChatRoundTrip(t *testing.T) {
	f := start(t, "", route.Chat)
	f.tokenFor(t, "vos@example.com", api.RoleMember, true)
	f.srv.AddContext("7", "Constitución Nacional")
	f.boot()
	require.Equal(t, route.Chat, f.d.m.Page())
	require.NotNil(t, f.d.m.chat)

	f.d.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, api.ContextID("7"), f.d.m.chat.ctrl.SelectedContext())

	f.d.typeText("¿Qué dice el artículo 14?")
	f.d.send(tea.KeyMsg{Type: tea.KeyEnter})

	entries := f.d.m.chat.ctrl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "¿Qué dice el artículo 14?", entries[0].Text)
	assert.Empty(t, f.d.m.chat.input.Value())
	assert.Equal(t, 1, f.srv.Hits("/chat/query"))

	view := f.d.m.View()
	assert.Contains(t, view, "Constitución Nacional")
	assert.Contains(t, view, "corpus.pdf")
}

func TestModel_LongQuestionIsNotTruncated(t *testing.T) {
	f := start(t, "", route.Chat)
	f.tokenFor(t, "vos@example.com", api.RoleMember, true)
	f.boot()
	require.NotNil(t, f.d.m.chat)

	question := strings.Repeat("¿Qué establece la ley de contrato de trabajo? ", 80)
	f.d.typeText(question)
	f.d.send(tea.KeyMsg{Type: tea.KeyEnter})

	entries := f.d.m.chat.ctrl.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, question, entries[0].Text)
}

func TestModel_LeavingChatClosesController(t *testing.T) {
	f := start(t, "", route.Chat)
	f.tokenFor(t, "vos@example.com", api.RoleMember, true)
	f.boot()
	ctrl := f.d.m.chat.ctrl

	f.d.send(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, route.Dashboard, f.d.m.Page())
	assert.Nil(t, f.d.m.chat)
	_, ok := ctrl.Submit(context.Background(), "tarde")
	assert.False(t, ok)
}

func TestModel_LogoutReturnsToLogin(t *testing.T) {
	f := start(t, "", route.History)
	f.tokenFor(t, "vos@example.com", api.RoleMember, true)
	f.boot()
	require.Equal(t, route.History, f.d.m.Page())
	assert.Contains(t, f.d.m.View(), "No tenés consultas todavía.")

	f.d.send(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Equal(t, route.Login, f.d.m.Page())
	tok, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestModel_AdminStatsRender(t *testing.T) {
	f := start(t, "", route.AdminStats)
	f.tokenFor(t, "admin@example.com", api.RoleAdmin, true)
	f.boot()

	require.Equal(t, route.AdminStats, f.d.m.Page())
	view := f.d.m.View()
	assert.Contains(t, view, "Usuarios por país")
	assert.Contains(t, view, "Consultas en los últimos 30 días")
}

func TestNewMenu(t *testing.T) {
	member := newMenu(&api.User{Role: api.RoleMember})
	assert.Equal(t, []route.Route{route.Chat, route.History}, member.items)

	adm := newMenu(&api.User{Role: api.RoleAdmin})
	assert.Equal(t, []route.Route{route.Chat, route.History, route.AdminUpload, route.AdminStats}, adm.items)
}

func TestBars_ScaleToPeak(t *testing.T) {
	out := bars(DefaultStyles(), []string{"Abogado", "Docente", "Otro"}, []int{10, 5, 0}, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, 10, strings.Count(lines[0], "█"))
	assert.Equal(t, 5, strings.Count(lines[1], "█"))
	assert.Equal(t, 0, strings.Count(lines[2], "█"))
	assert.True(t, strings.HasSuffix(lines[0], " 10"))
}
