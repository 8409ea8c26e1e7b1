package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/model"
)

// GetTenantConfig reads the single tenant_config row from the tenant's own
// database. It returns an error if the row is missing or inactive; callers
// that need to tolerate a disabled sub-configuration check the returned
// config's Warehouse.Enabled / SFTP.Enabled fields instead.
func (r *Repository) GetTenantConfig(ctx context.Context, tenantID string) (model.TenantConfig, error) {
	var cfg model.TenantConfig
	err := r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		var (
			warehouseEnabled                       bool
			projectID, datasetID, userTable        *string
			serviceAccountJSON                      []byte
			sftpEnabled                              bool
			sftpHost, sftpUser, sftpPassword         *string
			sftpPort                                 *int
			sftpRemotePath, sftpLocationsFile        *string
		)

		row := tx.QueryRow(ctx, `
SELECT id, is_active,
       warehouse_enabled, warehouse_project_id, warehouse_dataset_id, warehouse_service_account, warehouse_user_table,
       sftp_enabled, sftp_host, sftp_port, sftp_username, sftp_password, sftp_remote_path, sftp_locations_file
FROM tenant_config WHERE id = $1 AND is_active`, tenantID)

		err := row.Scan(
			&cfg.ID, &cfg.IsActive,
			&warehouseEnabled, &projectID, &datasetID, &serviceAccountJSON, &userTable,
			&sftpEnabled, &sftpHost, &sftpPort, &sftpUser, &sftpPassword, &sftpRemotePath, &sftpLocationsFile,
		)
		if err != nil {
			return fmt.Errorf("repository: query tenant_config: %w", err)
		}

		cfg.Warehouse.Enabled = warehouseEnabled
		cfg.Warehouse.ProjectID = deref(projectID)
		cfg.Warehouse.DatasetID = deref(datasetID)
		cfg.Warehouse.UserTable = deref(userTable)
		if len(serviceAccountJSON) > 0 {
			if err := json.Unmarshal(serviceAccountJSON, &cfg.Warehouse.ServiceAccount); err != nil {
				cfg.Warehouse.ValidationError = fmt.Sprintf("invalid service account JSON: %v", err)
			}
		}

		cfg.SFTP.Enabled = sftpEnabled
		cfg.SFTP.Host = deref(sftpHost)
		if sftpPort != nil {
			cfg.SFTP.Port = *sftpPort
		}
		cfg.SFTP.Username = deref(sftpUser)
		cfg.SFTP.Password = deref(sftpPassword)
		cfg.SFTP.RemotePath = deref(sftpRemotePath)
		cfg.SFTP.LocationsFile = deref(sftpLocationsFile)

		return nil
	})
	if err != nil {
		return model.TenantConfig{}, err
	}
	return cfg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
