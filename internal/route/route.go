// ABOUTME: View table for the legisbot client: every route with its path and access rules
// ABOUTME: Parse maps paths to routes and Navigator is how components request a view change

package route

import "strings"

// Route identifies a view. Its value is the view's path.
type Route string

const (
	Login       Route = "/login"
	Register    Route = "/register"
	Onboarding  Route = "/onboarding"
	Dashboard   Route = "/"
	Chat        Route = "/chat"
	History     Route = "/history"
	AdminUpload Route = "/admin/upload"
	AdminStats  Route = "/admin/stats"
)

// Access describes who may see a route.
type Access struct {
	Protected bool
	AdminOnly bool
}

var table = map[Route]Access{
	Login:       {},
	Register:    {},
	Onboarding:  {Protected: true},
	Dashboard:   {Protected: true},
	Chat:        {Protected: true},
	History:     {Protected: true},
	AdminUpload: {Protected: true, AdminOnly: true},
	AdminStats:  {Protected: true, AdminOnly: true},
}

// All lists the routes in menu order.
var All = []Route{Dashboard, Chat, History, AdminUpload, AdminStats, Onboarding, Login, Register}

// Access returns the access rules for r. Unknown routes are protected.
func (r Route) Access() Access {
	if a, ok := table[r]; ok {
		return a
	}
	return Access{Protected: true}
}

// Title is the human label of a route.
func (r Route) Title() string {
	switch r {
	case Login:
		return "Iniciar sesión"
	case Register:
		return "Registrarse"
	case Onboarding:
		return "Completar perfil"
	case Dashboard:
		return "Inicio"
	case Chat:
		return "Consultas"
	case History:
		return "Historial"
	case AdminUpload:
		return "Subir documentos"
	case AdminStats:
		return "Estadísticas"
	}
	return string(r)
}

func (r Route) String() string { return string(r) }

// Parse maps a path to its route. Trailing slashes are ignored.
func Parse(path string) (Route, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Dashboard, true
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	r := Route(path)
	_, ok := table[r]
	return r, ok
}

// Navigator switches the active view.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route)

func (f NavigatorFunc) Navigate(to Route) { f(to) }
