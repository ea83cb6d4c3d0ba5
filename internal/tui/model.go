// ABOUTME: Root bubbletea model: page switching under the route guard, async commands, layout
// ABOUTME: Every frame re-evaluates route.Decide against the session snapshot

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/admin"
	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/conversation"
	"github.com/2389/legisbot/internal/history"
	"github.com/2389/legisbot/internal/route"
	"github.com/2389/legisbot/internal/session"
)

// Backend is every backend call the pages make outside the session.
type Backend interface {
	conversation.Backend
	history.Backend
	admin.UploadBackend
	admin.StatsBackend
}

// Options wires the TUI to the rest of the client.
type Options struct {
	Session   *session.Manager
	Backend   Backend
	Dashboard *admin.Dashboard
	Uploader  *admin.Uploader
	Logger    *zap.Logger
	// Start is the first requested route. Defaults to the dashboard.
	Start route.Route
}

type bootstrappedMsg struct{}

type authDoneMsg struct {
	user *api.User
	err  error
}

type onboardedMsg struct {
	user *api.User
	err  error
}

// Model is the root bubbletea model.
type Model struct {
	ctx       context.Context
	session   *session.Manager
	backend   Backend
	dashboard *admin.Dashboard
	uploader  *admin.Uploader
	logger    *zap.Logger

	styles   Styles
	renderer *glamour.TermRenderer
	spinner  spinner.Model
	width    int
	height   int

	// page is the requested route; active is the page whose resources
	// (chat controller, fetched data) are currently live.
	page    route.Route
	active  route.Route
	pending *route.Route

	login      form
	register   form
	onboarding form
	menu       menu
	chat       *chatPage
	history    historyPage
	upload     form
	stats      statsPage
}

// New creates the root model.
func New(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := opts.Start
	if start == "" {
		start = route.Dashboard
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable", zap.Error(err))
	}

	m := &Model{
		ctx:       ctx,
		session:   opts.Session,
		backend:   opts.Backend,
		dashboard: opts.Dashboard,
		uploader:  opts.Uploader,
		logger:    logger.Named("tui"),
		styles:    DefaultStyles(),
		renderer:  renderer,
		spinner:   sp,
		width:     80,
		height:    24,
		page:      start,
		login:     newLoginForm(),
		register:  newRegisterForm(),
		history:   newHistoryPage(),
		upload:    newUploadForm(),
		stats:     newStatsPage(),
	}
	m.onboarding = newOnboardingForm()
	m.session.SetNavigator(route.NavigatorFunc(func(to route.Route) {
		m.pending = &to
	}))
	return m
}

// Page returns the requested route.
func (m *Model) Page() route.Route { return m.page }

// Init starts session bootstrap.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.bootstrap(), m.spinner.Tick)
}

func (m *Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		m.session.Bootstrap(m.ctx)
		return bootstrappedMsg{}
	}
}

// Update handles a message, then settles the page under the guard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.handle(msg)
	if m.pending != nil {
		m.page = *m.pending
		m.pending = nil
	}
	return m, tea.Batch(cmd, m.settle())
}

func (m *Model) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case bootstrappedMsg:
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.leave(m.active)
			return tea.Quit
		case "ctrl+l":
			if m.session.CurrentUser() != nil {
				m.session.Logout(m.ctx)
				return nil
			}
		case "esc":
			if m.session.CurrentUser() != nil && m.page.Access().Protected && m.page != route.Dashboard {
				m.navigate(route.Dashboard)
				return nil
			}
		}
	}

	if !m.rendering() {
		return nil
	}

	switch m.page {
	case route.Login:
		return m.updateLogin(msg)
	case route.Register:
		return m.updateRegister(msg)
	case route.Onboarding:
		return m.updateOnboarding(msg)
	case route.Dashboard:
		return m.updateMenu(msg)
	case route.Chat:
		return m.updateChat(msg)
	case route.History:
		return m.updateHistory(msg)
	case route.AdminUpload:
		return m.updateUpload(msg)
	case route.AdminStats:
		return m.updateStats(msg)
	}
	return nil
}

// rendering reports whether the guard lets the requested page show.
func (m *Model) rendering() bool {
	snap := m.session.Snapshot()
	return route.Decide(snap.CurrentUser, snap.Loading, m.page).Kind == route.Render
}

// settle follows redirects and swaps page resources once the guard
// renders the requested page.
func (m *Model) settle() tea.Cmd {
	snap := m.session.Snapshot()
	d := route.Decide(snap.CurrentUser, snap.Loading, m.page)
	for i := 0; d.Kind == route.Redirect && i < len(route.All); i++ {
		m.logger.Debug("redirect", zap.Stringer("from", m.page), zap.Stringer("to", d.To))
		m.page = d.To
		d = route.Decide(snap.CurrentUser, snap.Loading, m.page)
	}
	if d.Kind != route.Render || m.active == m.page {
		return nil
	}
	m.leave(m.active)
	m.active = m.page
	return m.enter(m.page)
}

// navigate requests a page.
func (m *Model) navigate(to route.Route) {
	m.page = to
}

func (m *Model) enter(r route.Route) tea.Cmd {
	switch r {
	case route.Login:
		m.login = newLoginForm()
	case route.Register:
		m.register = newRegisterForm()
	case route.Onboarding:
		m.onboarding = newOnboardingForm()
	case route.Dashboard:
		m.menu = newMenu(m.session.CurrentUser())
	case route.Chat:
		m.chat = newChatPage(m.backend, m.logger)
		m.resize()
		return m.chat.activate(m.ctx)
	case route.History:
		m.history = newHistoryPage()
		m.resize()
		return m.loadHistory()
	case route.AdminUpload:
		m.upload = newUploadForm()
	case route.AdminStats:
		m.stats = newStatsPage()
		m.resize()
		return m.loadStats(false)
	}
	return nil
}

func (m *Model) leave(r route.Route) {
	if r == route.Chat && m.chat != nil {
		m.chat.close()
		m.chat = nil
	}
}

func (m *Model) resize() {
	bodyHeight := max(m.height-6, 5)
	if m.chat != nil {
		m.chat.setSize(m.width, bodyHeight)
	}
	m.history.setSize(m.width, bodyHeight)
	m.stats.setSize(m.width, bodyHeight)
}

// View renders the current frame.
func (m *Model) View() string {
	snap := m.session.Snapshot()
	d := route.Decide(snap.CurrentUser, snap.Loading, m.page)
	if d.Kind != route.Render {
		return "\n  " + m.spinner.View() + " " + m.styles.Muted.Render("Cargando...") + "\n"
	}

	var body string
	switch m.page {
	case route.Login:
		body = m.viewLogin()
	case route.Register:
		body = m.viewRegister()
	case route.Onboarding:
		body = m.viewOnboarding()
	case route.Dashboard:
		body = m.menu.view(m.styles, snap.CurrentUser)
	case route.Chat:
		body = m.viewChat()
	case route.History:
		body = m.history.view(m.styles)
	case route.AdminUpload:
		body = m.viewUpload()
	case route.AdminStats:
		body = m.stats.view(m.styles)
	}

	var b strings.Builder
	b.WriteString(m.header(snap.CurrentUser))
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.styles.StatusBar.Width(max(m.width-2, 10)).Render(m.helpLine(snap.CurrentUser)))
	return b.String()
}

func (m *Model) header(user *api.User) string {
	title := m.styles.Header.Render("Legisbot · " + m.page.Title())
	if user == nil {
		return title
	}
	who := user.Label()
	if user.IsAdmin() {
		who += " (admin)"
	}
	return title + m.styles.Muted.Render(who)
}

func (m *Model) helpLine(user *api.User) string {
	switch {
	case user == nil && m.page == route.Login:
		return "enter: ingresar · tab: siguiente campo · ctrl+r: registrarse · ctrl+c: salir"
	case user == nil:
		return "enter: enviar · tab: siguiente campo · esc: volver · ctrl+c: salir"
	case m.page == route.Chat:
		return "enter: preguntar · ctrl+n: contexto · pgup/pgdn: desplazar · esc: inicio · ctrl+l: salir de la cuenta"
	case m.page == route.History || m.page == route.AdminStats:
		return "r: recargar · esc: inicio · ctrl+l: salir de la cuenta · ctrl+c: salir"
	}
	return "esc: inicio · ctrl+l: salir de la cuenta · ctrl+c: salir"
}

// renderMarkdown renders text with glamour, falling back to the raw text.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Run starts the program on the terminal and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.leave(m.active)
	return err
}
