package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ingestio/enginecore/internal/model"
)

// GetUsers extracts the full contents of a tenant's configured user table.
// The table is expected to expose the canonical column set a tenant agrees
// to provision on their side; this is a straight projection, not a
// date-ranged extraction like the event queries.
func (c *Client) GetUsers(ctx context.Context, userTable string) ([]model.User, error) {
	if userTable == "" {
		return nil, fmt.Errorf("warehouse: no user table configured")
	}

	sql := fmt.Sprintf("SELECT * FROM `%s.%s.%s`", c.projectID, c.datasetID, userTable)
	rows, err := c.runQuery(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.User{
			UserID:              r.str("user_id"),
			UserName:            r.str("user_name"),
			FirstName:           r.str("first_name"),
			MiddleName:          r.str("middle_name"),
			LastName:            r.str("last_name"),
			JobTitle:            r.str("job_title"),
			UserERPID:           r.str("user_erp_id"),
			Email:               r.str("email"),
			OfficePhone:         r.str("office_phone"),
			CellPhone:           r.str("cell_phone"),
			Fax:                 r.str("fax"),
			Address1:            r.str("address1"),
			Address2:            r.str("address2"),
			Address3:            r.str("address3"),
			City:                r.str("city"),
			State:               r.str("state"),
			Country:             r.str("country"),
			Zip:                 r.str("zip"),
			WarehouseCode:       r.str("warehouse_code"),
			RegisteredDate:      r.timePtr("registered_date"),
			LastLoginDate:       r.timePtr("last_login_date"),
			CIMMBuyingCompanyID: r.str("cimm_buying_company_id"),
			BuyingCompanyName:   r.str("buying_company_name"),
			BuyingCompanyERPID:  r.str("buying_company_erp_id"),
			RoleName:            r.str("role_name"),
			SiteName:            r.str("site_name"),
		})
	}
	return out, nil
}

func (r row) timePtr(key string) *time.Time {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}
