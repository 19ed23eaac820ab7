package domain

import dErrors "hilo/pkg/domain-errors"

// Role is the closed set of participant roles. Registries authorize by
// comparing Role values, never by matching free-form strings.
type Role string

const (
	RoleProducer     Role = "producer"
	RoleManufacturer Role = "manufacturer"
	RoleTailor       Role = "tailor"
	RoleCustomer     Role = "customer"
	RoleAdmin        Role = "admin"
)

// validRoles is the single source of truth for the role allowlist.
var validRoles = map[Role]bool{
	RoleProducer:     true,
	RoleManufacturer: true,
	RoleTailor:       true,
	RoleCustomer:     true,
	RoleAdmin:        true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role: "+s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}
