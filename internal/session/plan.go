package session

import "strings"

// Routes the client knows about.
const (
	RouteHome      = "/"
	RouteLogin     = "/auth/login"
	RouteRegister  = "/auth/register"
	RouteDashboard = "/expenses/dashboard"
)

// IsDashboard matches the dashboard route and anything below it.
func IsDashboard(route string) bool {
	return strings.HasPrefix(route, RouteDashboard)
}

// Effects is what a page does after verification.
type Effects struct {
	LoggedIn      bool
	Email         string
	DiscardToken  bool
	Redirect      string
	FetchExpenses bool
}

// Plan maps an outcome on a route to its effects.
func Plan(o Outcome, route string) Effects {
	if o.State == Authenticated {
		e := Effects{LoggedIn: true, Email: o.User.Email}
		switch {
		case route == RouteLogin || route == RouteRegister:
			e.Redirect = RouteDashboard
		case IsDashboard(route):
			e.FetchExpenses = true
		}
		return e
	}

	e := Effects{DiscardToken: o.HadToken}
	if IsDashboard(route) {
		e.Redirect = RouteLogin
	}
	return e
}
