package client

import "github.com/docmaster/docmaster/core/user"

const (
	RouteLogin   = "/login"
	RouteIUP     = "/iup2025"
	RouteProfile = "/profile"
)

// LandingRoute is where a user lands after signing in. A nil user is signed out.
func LandingRoute(usr *user.User) string {
	switch {
	case usr == nil:
		return RouteLogin
	case usr.Role == user.RoleMagistrant:
		return RouteIUP
	default:
		return RouteProfile
	}
}
