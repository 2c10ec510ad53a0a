package rbac

import (
	"errors"

	"github.com/google/uuid"
)

// Errors returned by Authorize, in the order they are checked.
var (
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrForbidden              = errors.New("insufficient role")
	ErrInsufficientPermission = errors.New("insufficient permission")
)

// Identity is a request's resolved principal: who they are, their role,
// and — for staff — their decoded permission set.
type Identity struct {
	UserID      uuid.UUID
	Role        Role
	Permissions Set
}

// Authorize decides whether an identity may perform an operation.
// requiredRole and requiredCap are optional; nil means no requirement.
//
// Admins satisfy any staff-level role requirement and bypass capability
// checks entirely. Capability checks only apply to staff and admin; a
// customer can never satisfy one. Pure decision function — the caller acts
// on the returned error.
func Authorize(id *Identity, requiredRole *Role, requiredCap *Capability) error {
	if id == nil {
		return ErrUnauthenticated
	}

	if requiredRole != nil && id.Role != *requiredRole {
		// Admin covers staff-level requirements, nothing covers admin.
		if !(id.Role == RoleAdmin && *requiredRole == RoleStaff) {
			return ErrForbidden
		}
	}

	if requiredCap != nil {
		switch id.Role {
		case RoleAdmin:
			// Admin actions are unconditionally authorized.
		case RoleStaff:
			if !Has(id.Permissions.Mask(), *requiredCap) {
				return ErrInsufficientPermission
			}
		default:
			return ErrForbidden
		}
	}

	return nil
}
