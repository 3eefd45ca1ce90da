package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/user"
)

func TestLandingRoute(t *testing.T) {
	tests := []struct {
		name string
		usr  *user.User
		want string
	}{
		{name: "signed out", want: "/login"},
		{name: "magistrant", usr: &user.User{Role: user.RoleMagistrant}, want: "/iup2025"},
		{name: "doctorant", usr: &user.User{Role: user.RoleDoctorant}, want: "/profile"},
		{name: "supervisor", usr: &user.User{Role: user.RoleSupervisor}, want: "/profile"},
		{name: "admin", usr: &user.User{Role: user.RoleAdmin}, want: "/profile"},
		{name: "unknown role", usr: &user.User{Role: "guests"}, want: "/profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LandingRoute(tt.usr))
		})
	}
}
