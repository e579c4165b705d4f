// Package service declares the domain-level collaborator interfaces of the
// provisioning flow. Infrastructure packages provide the implementations.
package service

import (
	"context"

	"github.com/turtacn/onboard/internal/domain/models"
)

// NonceLedger issues one-time, time-limited tokens guarding the creation call
// against duplicate submission. Issue, Consume and Sweep must be atomic with
// respect to each other: a consumed or expired token is never usable twice.
type NonceLedger interface {
	// Issue records a fresh token bound to the tenant name and returns it.
	Issue(ctx context.Context, name models.TenantName) (string, error)

	// Consume removes the token and reports whether it was live. False covers
	// "never issued", "expired" and "already consumed" alike.
	Consume(ctx context.Context, token string) (bool, error)

	// Sweep drops expired entries. Backends with server-side expiry may no-op.
	Sweep(ctx context.Context) error
}

// DirectoryClient queries an Odoo server for its tenant databases. It never
// returns an error: any failure yields an empty, degraded snapshot, because
// the creation call and the post-check still guard correctness.
type DirectoryClient interface {
	ListDatabases(ctx context.Context, baseURL string) models.DirectorySnapshot
}

// DatabaseCreator issues the remote database-creation call. The returned
// status is Odoo's HTTP status; err is non-nil only for transport failures.
// Success is never judged from the status, only from re-listing the directory.
type DatabaseCreator interface {
	CreateDatabase(ctx context.Context, baseURL string, req models.CreationRequest) (status int, err error)
}

// ProvisionQueue hands a company-provisioning task to the background worker.
type ProvisionQueue interface {
	Enqueue(ctx context.Context, task models.ProvisionTask) error
}

// CompanyProvisioner executes one queued task against the ERP system: create
// the company record, then install each module independently.
type CompanyProvisioner interface {
	Provision(ctx context.Context, task models.ProvisionTask) error
}
