package rbac_test

import (
	"errors"
	"testing"

	"github.com/savora/api/internal/rbac"
)

func TestRoleCodes(t *testing.T) {
	cases := []struct {
		code int16
		name string
	}{
		{0, "customer"},
		{1, "staff"},
		{2, "admin"},
	}
	for _, c := range cases {
		role, err := rbac.RoleFromCode(c.code)
		if err != nil {
			t.Fatalf("RoleFromCode(%d): %v", c.code, err)
		}
		if role.Name() != c.name {
			t.Errorf("role %d name: got %q, want %q", c.code, role.Name(), c.name)
		}
		back, err := rbac.RoleFromName(c.name)
		if err != nil {
			t.Fatalf("RoleFromName(%q): %v", c.name, err)
		}
		if back != role {
			t.Errorf("RoleFromName(%q) = %d, want %d", c.name, back, role)
		}
	}
}

func TestRoleFromCodeRejectsUnknown(t *testing.T) {
	for _, code := range []int16{-1, 3, 99} {
		if _, err := rbac.RoleFromCode(code); !errors.Is(err, rbac.ErrInvalidRoleCode) {
			t.Errorf("RoleFromCode(%d): got %v, want ErrInvalidRoleCode", code, err)
		}
	}
}

func TestRoleFromNameRejectsUnknown(t *testing.T) {
	for _, name := range []string{"", "owner", "ADMIN", "Customer"} {
		if _, err := rbac.RoleFromName(name); !errors.Is(err, rbac.ErrInvalidRoleName) {
			t.Errorf("RoleFromName(%q): got %v, want ErrInvalidRoleName", name, err)
		}
	}
}
