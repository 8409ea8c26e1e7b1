package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/model"
)

// locationColumns leads with tenant_id and warehouse_id, the conflict key
// (tenant_id, warehouse_id); everything after is refreshed on conflict.
var locationColumns = []string{
	"tenant_id", "warehouse_id", "warehouse_code", "warehouse_name", "city", "state", "country",
	"address1", "address2", "zip", "is_active",
}

var updatableLocationColumns = locationColumns[2:]

func locationValues(tenantID string, l model.Location) []any {
	return []any{
		tenantID, l.WarehouseID, l.WarehouseCode, l.WarehouseName, l.City, l.State, l.Country,
		l.Address1, l.Address2, l.Zip, l.IsActive,
	}
}

// UpsertLocations writes locations in batches of batchSize, each batch in
// its own database session, matching UpsertUsers' failure-isolation
// behavior. The conflict key is the tenant-scoped (tenant_id, warehouse_id)
// pair.
func (r *Repository) UpsertLocations(ctx context.Context, tenantID string, locations []model.Location) (upserted, batchErrors int) {
	for _, batch := range batches(locations, batchSize) {
		err := r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
			return upsertBatch(ctx, tx, "locations", "tenant_id, warehouse_id", locationColumns, updatableLocationColumns, func(l model.Location) []any {
				return locationValues(tenantID, l)
			}, batch)
		})
		if err != nil {
			batchErrors++
			continue
		}
		upserted += len(batch)
	}
	return upserted, batchErrors
}
