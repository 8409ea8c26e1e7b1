package sftpclient

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ingestio/enginecore/internal/model"
)

// preferredSheet is tried first; parseLocationsFile falls back to the
// workbook's first sheet when preferredSheet is absent, since not every
// tenant names their export sheet consistently.
const preferredSheet = "Locations"

// headerRenameMap maps the many column-header spellings tenants export with
// onto the canonical field names Location rows are built from. Matching is
// case-insensitive and applied after trimming whitespace.
var headerRenameMap = map[string]string{
	"warehouse_id":    "warehouse_id",
	"warehouse id":    "warehouse_id",
	"warehouse_code":  "warehouse_code",
	"warehouse code":  "warehouse_code",
	"warehouse_name":  "warehouse_name",
	"warehouse name":  "warehouse_name",
	"location_name":   "warehouse_name",
	"location name":   "warehouse_name",
	"city":            "city",
	"state":           "state",
	"province":        "state",
	"country":         "country",
	"address1":        "address1",
	"address":         "address1",
	"address2":        "address2",
	"zip_code":        "zip",
	"zip code":        "zip",
	"postal_code":     "zip",
	"postal code":     "zip",
	"zip":             "zip",
}

func parseLocationsFile(path string) ([]model.Location, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("sftpclient: open workbook: %w", err)
	}
	defer f.Close()

	sheet := preferredSheet
	if idx, err := f.GetSheetIndex(preferredSheet); err != nil || idx == -1 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("sftpclient: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sftpclient: read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sftpclient: sheet %q has no data rows", sheet)
	}

	columns := normalizeHeader(rows[0])

	var locations []model.Location
	for _, raw := range rows[1:] {
		record := make(map[string]string, len(columns))
		for i, col := range columns {
			if col == "" || i >= len(raw) {
				continue
			}
			record[col] = cleanCell(raw[i])
		}

		warehouseID := strings.TrimSpace(record["warehouse_id"])
		if warehouseID == "" {
			continue
		}

		locations = append(locations, model.Location{
			WarehouseID:   warehouseID,
			WarehouseCode: record["warehouse_code"],
			WarehouseName: record["warehouse_name"],
			City:          record["city"],
			State:         record["state"],
			Country:       record["country"],
			Address1:      record["address1"],
			Address2:      record["address2"],
			Zip:           record["zip"],
			IsActive:      true,
		})
	}

	return locations, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if mapped, ok := headerRenameMap[key]; ok {
			out[i] = mapped
		}
	}
	return out
}

// cleanCell trims whitespace and maps the literal string "nan" (how a
// missing numeric cell round-trips through some spreadsheet exporters) to
// empty.
func cleanCell(value string) string {
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}
