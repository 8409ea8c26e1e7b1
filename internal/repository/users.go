package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/model"
)

var userColumns = []string{
	"tenant_id", "user_id", "user_name", "first_name", "middle_name", "last_name", "job_title",
	"user_erp_id", "email", "office_phone", "cell_phone", "fax",
	"address1", "address2", "address3", "city", "state", "country", "zip",
	"warehouse_code", "registered_date", "last_login_date",
	"cimm_buying_company_id", "buying_company_name", "buying_company_erp_id",
	"role_name", "site_name",
}

func userValues(tenantID string, u model.User) []any {
	return []any{
		tenantID, u.UserID, u.UserName, u.FirstName, u.MiddleName, u.LastName, u.JobTitle,
		u.UserERPID, u.Email, u.OfficePhone, u.CellPhone, u.Fax,
		u.Address1, u.Address2, u.Address3, u.City, u.State, u.Country, u.Zip,
		u.WarehouseCode, u.RegisteredDate, u.LastLoginDate,
		u.CIMMBuyingCompanyID, u.BuyingCompanyName, u.BuyingCompanyERPID,
		u.RoleName, u.SiteName,
	}
}

// updatableUserColumns excludes tenant_id and user_id, the conflict key.
var updatableUserColumns = userColumns[2:]

// UpsertUsers writes users in batches of batchSize, each batch in its own
// database session so that a single bad batch (a constraint violation, a
// transient connection drop) doesn't poison its siblings. It returns the
// number of records successfully upserted and the number of batches that
// failed. The conflict key is the tenant-scoped (tenant_id, user_id) pair.
func (r *Repository) UpsertUsers(ctx context.Context, tenantID string, users []model.User) (upserted, batchErrors int) {
	for _, batch := range batches(users, batchSize) {
		err := r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
			return upsertBatch(ctx, tx, "users", "tenant_id, user_id", userColumns, updatableUserColumns, func(u model.User) []any {
				return userValues(tenantID, u)
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
