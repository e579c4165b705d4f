package models

import (
	"strings"

	"github.com/turtacn/onboard/pkg/errors"
)

// MaxTenantNameLength is the PostgreSQL identifier limit the backing Odoo
// directory inherits.
const MaxTenantNameLength = 63

// TenantName is the validated database name of a tenant. Constructed once at
// submission time and reused across the whole provisioning flow.
type TenantName struct {
	value string
}

// NewTenantName normalizes (lowercase, trimmed) and validates a raw tenant
// database name. Only [a-z0-9_] is accepted.
func NewTenantName(raw string) (TenantName, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" || len(name) > MaxTenantNameLength {
		return TenantName{}, errors.ErrInvalidIdentifier
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return TenantName{}, errors.ErrInvalidIdentifier
		}
	}
	return TenantName{value: name}, nil
}

// String returns the normalized name.
func (t TenantName) String() string {
	return t.value
}

// IsZero reports whether the name was never constructed through NewTenantName.
func (t TenantName) IsZero() bool {
	return t.value == ""
}
