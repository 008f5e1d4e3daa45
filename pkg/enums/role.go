package enums

import (
	"fmt"
	"slices"
)

// Role identifies the principal behind an access token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleCustomer Role = "customer"
)

var validRoles = []Role{
	RoleAdmin,
	RoleOperator,
	RoleCustomer,
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return slices.Contains(validRoles, r)
}

// IsStaff reports whether the role belongs to the back office.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleOperator
}

func ParseRole(value string) (Role, error) {
	return parse("role", value, validRoles)
}

// ParseStaffRole accepts only admin or operator.
func ParseStaffRole(value string) (Role, error) {
	role, err := ParseRole(value)
	if err != nil {
		return "", err
	}
	if !role.IsStaff() {
		return "", fmt.Errorf("invalid staff role %q", value)
	}
	return role, nil
}
