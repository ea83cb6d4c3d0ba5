// Package tui is the interactive terminal front end of the legisbot client.
//
// The program is a single bubbletea Model with one page per route. Each
// render passes the session snapshot through route.Decide: while the session
// bootstraps a neutral loading view is shown, redirects switch page, and only
// Render shows the requested page. Because the guard is evaluated on every
// frame, logging out or losing the session takes effect immediately.
//
// Keys:
//
//	ctrl+c       quit
//	esc          back to the dashboard
//	ctrl+l       log out
//	ctrl+r       login: go to registration
//	tab          next field
//	enter        submit
//	ctrl+n       chat: cycle document context
//	r            history/stats: reload
package tui
