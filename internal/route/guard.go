// ABOUTME: Route guard: decides render, wait or redirect from session state
// ABOUTME: Landing picks the post-authentication view from onboarding status

package route

import "github.com/2389/legisbot/internal/api"

// Kind is the outcome of a guard decision.
type Kind int

const (
	// Render shows the requested view.
	Render Kind = iota
	// Wait shows a neutral loading view while the session bootstraps.
	Wait
	// Redirect switches to Decision.To.
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is what the guard tells a view to do.
type Decision struct {
	Kind Kind
	To   Route
}

// Decide is pure: the same inputs always give the same decision. While
// loading it never redirects, so a valid token is not bounced to login
// before bootstrap finishes.
func Decide(user *api.User, loading bool, requested Route) Decision {
	if loading {
		return Decision{Kind: Wait}
	}
	access := requested.Access()
	if !access.Protected {
		return Decision{Kind: Render}
	}
	if user == nil {
		return Decision{Kind: Redirect, To: Login}
	}
	if access.AdminOnly && !user.IsAdmin() {
		return Decision{Kind: Redirect, To: Dashboard}
	}
	return Decision{Kind: Render}
}

// Landing is where a freshly authenticated user goes.
func Landing(user *api.User) Route {
	if user == nil {
		return Login
	}
	if !user.OnboardingComplete {
		return Onboarding
	}
	return Dashboard
}
