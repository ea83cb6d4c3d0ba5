// Package route holds the view table and the route guard.
//
// The guard is a pure function of (current user, loading flag, requested
// route). It has no side effects and is re-evaluated on every render, so a
// logout or a change of user takes effect on the next frame without any
// subscription mechanism.
//
//	switch d := route.Decide(snap.CurrentUser, snap.Loading, route.AdminStats); d.Kind {
//	case route.Wait:
//	    // neutral loading view, never a redirect
//	case route.Redirect:
//	    // switch to d.To
//	case route.Render:
//	    // show the page
//	}
package route
