package rbac

import "errors"

// Role is the broad account category, stored as a smallint on a user
// account. Codes are part of the storage format.
type Role int16

const (
	RoleCustomer Role = 0
	RoleStaff    Role = 1
	RoleAdmin    Role = 2
)

var (
	ErrInvalidRoleCode = errors.New("invalid role code")
	ErrInvalidRoleName = errors.New("invalid role name")
)

// Name returns the role's wire name. Unknown roles return "" — callers
// should have gone through RoleFromCode first.
func (r Role) Name() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleStaff:
		return "staff"
	case RoleAdmin:
		return "admin"
	}
	return ""
}

// RoleFromCode validates a stored role code. Unrecognized codes are a hard
// error rather than defaulting to customer, so a corrupt or future code can
// never silently grant (or strip) access.
func RoleFromCode(code int16) (Role, error) {
	switch r := Role(code); r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, nil
	}
	return 0, ErrInvalidRoleCode
}

// RoleFromName maps a wire name back to its code.
func RoleFromName(name string) (Role, error) {
	switch name {
	case "customer":
		return RoleCustomer, nil
	case "staff":
		return RoleStaff, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, ErrInvalidRoleName
}
