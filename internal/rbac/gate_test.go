package rbac_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/savora/api/internal/rbac"
)

func rolePtr(r rbac.Role) *rbac.Role { return &r }

func capPtr(c rbac.Capability) *rbac.Capability { return &c }

func ident(r rbac.Role, s rbac.Set) *rbac.Identity {
	return &rbac.Identity{UserID: uuid.New(), Role: r, Permissions: s}
}

func TestAuthorizeNilIdentity(t *testing.T) {
	// Unauthenticated wins over every other check.
	combos := []struct {
		role *rbac.Role
		cap  *rbac.Capability
	}{
		{nil, nil},
		{rolePtr(rbac.RoleAdmin), nil},
		{nil, capPtr(rbac.CapOrders)},
		{rolePtr(rbac.RoleStaff), capPtr(rbac.CapReports)},
	}
	for _, c := range combos {
		if err := rbac.Authorize(nil, c.role, c.cap); !errors.Is(err, rbac.ErrUnauthenticated) {
			t.Errorf("Authorize(nil, %v, %v): got %v, want ErrUnauthenticated", c.role, c.cap, err)
		}
	}
}

func TestAuthorizeNoRequirements(t *testing.T) {
	if err := rbac.Authorize(ident(rbac.RoleCustomer, rbac.Set{}), nil, nil); err != nil {
		t.Errorf("no requirements should allow: %v", err)
	}
}

func TestAuthorizeRoleMatch(t *testing.T) {
	if err := rbac.Authorize(ident(rbac.RoleStaff, rbac.Set{}), rolePtr(rbac.RoleStaff), nil); err != nil {
		t.Errorf("staff meeting staff requirement: %v", err)
	}
	if err := rbac.Authorize(ident(rbac.RoleCustomer, rbac.Set{}), rolePtr(rbac.RoleStaff), nil); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("customer against staff requirement: got %v, want ErrForbidden", err)
	}
}

func TestAuthorizeAdminSatisfiesStaffRequirement(t *testing.T) {
	if err := rbac.Authorize(ident(rbac.RoleAdmin, rbac.Set{}), rolePtr(rbac.RoleStaff), nil); err != nil {
		t.Errorf("admin against staff requirement: %v", err)
	}
	// Nothing below admin satisfies an admin requirement.
	if err := rbac.Authorize(ident(rbac.RoleStaff, rbac.Set{}), rolePtr(rbac.RoleAdmin), nil); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("staff against admin requirement: got %v, want ErrForbidden", err)
	}
}

func TestAuthorizeCapability(t *testing.T) {
	staff := ident(rbac.RoleStaff, rbac.Set{MealManagement: true})

	if err := rbac.Authorize(staff, nil, capPtr(rbac.CapMealManagement)); err != nil {
		t.Errorf("staff with granted capability: %v", err)
	}
	if err := rbac.Authorize(staff, nil, capPtr(rbac.CapPromoCodes)); !errors.Is(err, rbac.ErrInsufficientPermission) {
		t.Errorf("staff without capability: got %v, want ErrInsufficientPermission", err)
	}
}

func TestAuthorizeAdminBypassesCapabilities(t *testing.T) {
	// Admin is authorized regardless of any stored mask.
	admin := ident(rbac.RoleAdmin, rbac.Set{})
	for _, c := range []rbac.Capability{
		rbac.CapReports, rbac.CapMealManagement, rbac.CapStockControl,
		rbac.CapOrders, rbac.CapSeasonalDiscounts, rbac.CapPromoCodes,
	} {
		if err := rbac.Authorize(admin, nil, capPtr(c)); err != nil {
			t.Errorf("admin bypass for capability %d: %v", c, err)
		}
	}
}

func TestAuthorizeCustomerCannotHoldCapabilities(t *testing.T) {
	// Even a (corrupt) customer identity with bits set is denied.
	cust := ident(rbac.RoleCustomer, rbac.Set{Orders: true})
	if err := rbac.Authorize(cust, nil, capPtr(rbac.CapOrders)); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("customer against capability requirement: got %v, want ErrForbidden", err)
	}
}

func TestAuthorizeRoleAndCapabilityTogether(t *testing.T) {
	staff := ident(rbac.RoleStaff, rbac.Set{Orders: true})
	if err := rbac.Authorize(staff, rolePtr(rbac.RoleStaff), capPtr(rbac.CapOrders)); err != nil {
		t.Errorf("staff with role and capability: %v", err)
	}
	if err := rbac.Authorize(staff, rolePtr(rbac.RoleStaff), capPtr(rbac.CapReports)); !errors.Is(err, rbac.ErrInsufficientPermission) {
		t.Errorf("role ok but capability missing: got %v, want ErrInsufficientPermission", err)
	}
}
