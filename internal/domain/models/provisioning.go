package models

import "strings"

// Edition selects which Odoo deployment a tenant is provisioned on.
type Edition string

const (
	EditionCommunity  Edition = "Community"
	EditionEnterprise Edition = "Enterprise"
)

// ParseEdition maps loose user input onto an edition, defaulting to Community
// the way the intake form always has.
func ParseEdition(raw string) Edition {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "enter") {
		return EditionEnterprise
	}
	return EditionCommunity
}

func (e Edition) String() string {
	return string(e)
}

// EditionTarget is the resolved pair of base URLs for an edition. Internal is
// used for server-to-server calls, External for browser redirects.
type EditionTarget struct {
	Internal string
	External string
}

// LoginURL builds the post-provisioning login redirect for a tenant.
func (t EditionTarget) LoginURL(name TenantName) string {
	return strings.TrimRight(t.External, "/") + "/web/login?db=" + name.String()
}

// CreationRequest carries everything the Odoo creation endpoint needs for one
// tenant database. Lifetime is a single HTTP request; it is never persisted.
type CreationRequest struct {
	TenantName    TenantName
	AdminLogin    string
	AdminPassword string
	Phone         string
	Language      string
	CountryCode   string
	Demo          bool
	Edition       Edition
}

// DirectorySnapshot is the ephemeral result of one directory listing.
// Degraded distinguishes "confirmed empty" from "query failed"; callers treat
// both as "assume not present" but metrics and tests can tell them apart.
type DirectorySnapshot struct {
	Databases []string
	Degraded  bool
}

// Contains reports whether the snapshot lists the given tenant name.
func (s DirectorySnapshot) Contains(name TenantName) bool {
	for _, db := range s.Databases {
		if db == name.String() {
			return true
		}
	}
	return false
}

// ProvisionTask is the queued message consumed by the background company
// provisioner. No response channel exists back to the gateway.
type ProvisionTask struct {
	CompanyName string   `json:"company_name"`
	Modules     []string `json:"modules"`
}
