// ABOUTME: Login, registration and onboarding pages
// ABOUTME: Each submits through the session manager and lands on route.Landing

package tui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/route"
)

const (
	loginFailedText = "Email o contraseña incorrectos"
	invalidAgeText  = "La edad debe ser un número"
)

func newLoginForm() form {
	return newForm(
		field{label: "Email", placeholder: "vos@ejemplo.com"},
		field{label: "Contraseña", secret: true},
	)
}

func newRegisterForm() form {
	return newForm(
		field{label: "Nombre", placeholder: "Nombre y apellido"},
		field{label: "Email", placeholder: "vos@ejemplo.com"},
		field{label: "Contraseña", secret: true},
	)
}

const (
	onbFirstName = iota
	onbLastName
	onbCountry
	onbProvince
	onbLocality
	onbAge
	onbOccupation
)

func newOnboardingForm() form {
	return newForm(
		field{label: "Nombre"},
		field{label: "Apellido"},
		field{label: "País", value: api.DefaultCountry},
		field{label: "Provincia", placeholder: "Buenos Aires"},
		field{label: "Localidad"},
		field{label: "Edad"},
		field{label: "Profesión", placeholder: api.Occupations[0]},
	)
}

func (m *Model) updateLogin(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case authDoneMsg:
		return m.finishAuth(&m.login, msg, loginFailedText)
	case tea.KeyMsg:
		if m.login.busy {
			return nil
		}
		switch msg.String() {
		case "ctrl+r":
			m.navigate(route.Register)
			return nil
		case "enter":
			if !m.login.onLast() {
				m.login.move(1)
				return nil
			}
			email, password := m.login.value(0), m.login.raw(1)
			if email == "" || password == "" {
				m.login.err = "Completá email y contraseña"
				return nil
			}
			m.login.busy, m.login.err = true, ""
			return func() tea.Msg {
				user, err := m.session.Login(m.ctx, email, password)
				return authDoneMsg{user: user, err: err}
			}
		}
	}
	return m.login.update(msg)
}

func (m *Model) updateRegister(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case authDoneMsg:
		return m.finishAuth(&m.register, msg, "No se pudo crear la cuenta")
	case tea.KeyMsg:
		if m.register.busy {
			return nil
		}
		switch msg.String() {
		case "esc":
			m.navigate(route.Login)
			return nil
		case "enter":
			if !m.register.onLast() {
				m.register.move(1)
				return nil
			}
			reg := api.Registration{
				Name:     m.register.value(0),
				Email:    m.register.value(1),
				Password: m.register.raw(2),
			}
			if err := api.Validate(reg); err != nil {
				m.register.err = err.Error()
				return nil
			}
			m.register.busy, m.register.err = true, ""
			return func() tea.Msg {
				user, err := m.session.Register(m.ctx, reg)
				return authDoneMsg{user: user, err: err}
			}
		}
	}
	return m.register.update(msg)
}

// finishAuth handles the result of a login or registration.
func (m *Model) finishAuth(f *form, msg authDoneMsg, fallback string) tea.Cmd {
	f.busy = false
	switch {
	case msg.err != nil && errors.Is(msg.err, api.ErrUnauthorized) && f == &m.login:
		f.err = loginFailedText
	case msg.err != nil:
		f.err = api.Message(msg.err, fallback)
	case msg.user == nil:
		f.err = fallback
	default:
		m.navigate(route.Landing(msg.user))
	}
	return nil
}

func (m *Model) updateOnboarding(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case onboardedMsg:
		m.onboarding.busy = false
		if msg.err != nil {
			m.onboarding.err = api.Message(msg.err, "No se pudo guardar el perfil")
			return nil
		}
		m.navigate(route.Landing(msg.user))
		return nil
	case tea.KeyMsg:
		if m.onboarding.busy {
			return nil
		}
		if msg.String() == "enter" {
			if !m.onboarding.onLast() {
				m.onboarding.move(1)
				return nil
			}
			profile, err := m.profile()
			if err == nil {
				err = api.Validate(profile)
			}
			if err != nil {
				m.onboarding.err = err.Error()
				return nil
			}
			m.onboarding.busy, m.onboarding.err = true, ""
			return func() tea.Msg {
				user, err := m.session.CompleteOnboarding(m.ctx, profile)
				return onboardedMsg{user: user, err: err}
			}
		}
	}
	return m.onboarding.update(msg)
}

func (m *Model) profile() (api.Profile, error) {
	f := &m.onboarding
	age, err := strconv.Atoi(f.value(onbAge))
	if err != nil {
		return api.Profile{}, errors.New(invalidAgeText)
	}
	return api.Profile{
		FirstName:  f.value(onbFirstName),
		LastName:   f.value(onbLastName),
		Country:    f.value(onbCountry),
		Province:   f.value(onbProvince),
		Locality:   f.value(onbLocality),
		Age:        age,
		Occupation: f.value(onbOccupation),
	}, nil
}

func (m *Model) viewLogin() string {
	return m.styles.Title.Render("Iniciar sesión") + "\n" + m.login.view(m.styles)
}

func (m *Model) viewRegister() string {
	return m.styles.Title.Render("Crear cuenta") + "\n" + m.register.view(m.styles)
}

func (m *Model) viewOnboarding() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Completá tu perfil"))
	b.WriteString("\n")
	b.WriteString(m.onboarding.view(m.styles))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Provincias: " + strings.Join(api.Provinces, ", ")))
	return b.String()
}
