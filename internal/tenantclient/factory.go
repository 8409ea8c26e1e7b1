// Package tenantclient builds per-tenant warehouse and SFTP clients from a
// tenant's stored configuration. It never returns an error: a
// misconfigured, disabled, or absent sub-configuration simply yields a nil
// client, matching the factory it replaces. Whether a nil client is fatal
// to the caller's phase or a silent skip is each phase's own decision, not
// this package's.
package tenantclient

import (
	"context"
	"log/slog"

	"github.com/ingestio/enginecore/internal/repository"
	"github.com/ingestio/enginecore/internal/sftpclient"
	"github.com/ingestio/enginecore/internal/warehouse"
)

// Factory constructs tenant-scoped extraction clients on demand.
type Factory struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// New creates a Factory.
func New(repo *repository.Repository, logger *slog.Logger) *Factory {
	return &Factory{repo: repo, logger: logger}
}

// WarehouseClient returns a BigQuery client for tenantID, or nil if the
// tenant has no warehouse configured, its configuration is incomplete, or
// construction fails for any other reason.
func (f *Factory) WarehouseClient(ctx context.Context, tenantID string) *warehouse.Client {
	cfg, err := f.repo.GetTenantConfig(ctx, tenantID)
	if err != nil {
		f.logger.Warn("tenantclient: failed to load tenant config", "tenant_id", tenantID, "error", err)
		return nil
	}
	if !cfg.Warehouse.Valid() {
		return nil
	}

	client, err := warehouse.NewClient(ctx, cfg.Warehouse)
	if err != nil {
		f.logger.Warn("tenantclient: failed to construct warehouse client", "tenant_id", tenantID, "error", err)
		return nil
	}
	return client
}

// SFTPClient returns an SFTP client for tenantID, or nil under the same
// conditions WarehouseClient does.
func (f *Factory) SFTPClient(ctx context.Context, tenantID string) *sftpclient.Client {
	cfg, err := f.repo.GetTenantConfig(ctx, tenantID)
	if err != nil {
		f.logger.Warn("tenantclient: failed to load tenant config", "tenant_id", tenantID, "error", err)
		return nil
	}
	if !cfg.SFTP.Valid() {
		return nil
	}

	client, err := sftpclient.NewClient(cfg.SFTP)
	if err != nil {
		f.logger.Warn("tenantclient: failed to construct sftp client", "tenant_id", tenantID, "error", err)
		return nil
	}
	return client
}

// UserTable returns the configured warehouse user-table name for tenantID,
// or "" if unset. internal/ingest uses this to decide whether the users
// phase has anything to extract at all.
func (f *Factory) UserTable(ctx context.Context, tenantID string) string {
	cfg, err := f.repo.GetTenantConfig(ctx, tenantID)
	if err != nil {
		return ""
	}
	return cfg.Warehouse.UserTable
}
