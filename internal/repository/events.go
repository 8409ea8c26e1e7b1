package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/model"
)

// eventTable returns the destination table for a given event type. Each
// event type gets its own table rather than one polymorphic events table,
// since their column sets genuinely differ (purchase has a revenue column,
// page_view does not, etc.) and keeping them separate avoids a wide table of
// mostly-null columns.
func eventTable(eventType string) (string, error) {
	switch eventType {
	case model.EventTypePurchase, model.EventTypeAddToCart, model.EventTypePageView,
		model.EventTypeViewSearchResults, model.EventTypeNoSearchResults, model.EventTypeViewItem:
		return "event_" + eventType, nil
	default:
		return "", fmt.Errorf("repository: unknown event type %q", eventType)
	}
}

// commonEventColumns are written for every event type. tenant_id always
// comes first so eventValues can prepend it without per-type branching.
var commonEventColumns = []string{
	"tenant_id",
	"event_date", "event_timestamp", "user_pseudo_id", "web_user_id",
	"default_branch_id", "ga_session_id", "page_title", "page_location",
	"page_referrer", "device_category", "device_operating_system",
	"geo_country", "geo_city", "raw_data",
}

func eventColumns(eventType string) []string {
	cols := append([]string{}, commonEventColumns...)
	switch eventType {
	case model.EventTypePurchase:
		cols = append(cols, "transaction_id", "revenue", "items_json")
	case model.EventTypeAddToCart, model.EventTypeViewItem:
		cols = append(cols, "first_item_id", "first_item_name", "first_item_category", "first_item_price", "first_item_quantity", "items_json")
	case model.EventTypeViewSearchResults:
		cols = append(cols, "search_term")
	case model.EventTypeNoSearchResults:
		cols = append(cols, "no_search_results_term")
	}
	return cols
}

// normalizeEventDate accepts either the dash-separated "YYYY-MM-DD" form or
// BigQuery's compact wildcard-partition "YYYYMMDD" form and returns the
// dash-separated form the event_date column expects. Any other input is
// returned unchanged.
func normalizeEventDate(raw string) string {
	if len(raw) == 8 && !strings.Contains(raw, "-") {
		if t, err := time.Parse("20060102", raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

func eventValues(tenantID, eventType string, rec model.EventRecord) []any {
	values := []any{
		tenantID,
		normalizeEventDate(rec.EventDate), rec.EventTimestamp, rec.UserPseudoID, rec.WebUserID,
		rec.DefaultBranchID, rec.GASessionID, rec.PageTitle, rec.PageLocation,
		rec.PageReferrer, rec.DeviceCategory, rec.DeviceOperatingSystem,
		rec.GeoCountry, rec.GeoCity, rec.RawData,
	}
	switch eventType {
	case model.EventTypePurchase:
		values = append(values, rec.TransactionID, rec.EcommercePurchaseRevenue, rec.ItemsJSON)
	case model.EventTypeAddToCart, model.EventTypeViewItem:
		values = append(values, rec.FirstItemItemID, rec.FirstItemItemName, rec.FirstItemItemCategory, rec.FirstItemPrice, rec.FirstItemQuantity, rec.ItemsJSON)
	case model.EventTypeViewSearchResults:
		values = append(values, rec.SearchTerm)
	case model.EventTypeNoSearchResults:
		values = append(values, rec.NoSearchResultsTerm)
	}
	return values
}

// ReplaceEventData deletes any existing rows for eventType within
// [start, end] and inserts records in place of them, in batches of
// batchSize, all within one transaction: the replace is wholesale and
// atomic, not a per-batch-isolated operation like UpsertUsers/UpsertLocations,
// since a partial replace would leave stale and fresh rows mixed for the
// same date range.
func (r *Repository) ReplaceEventData(ctx context.Context, tenantID, eventType string, start, end time.Time, records []model.EventRecord) (int, error) {
	table, err := eventTable(eventType)
	if err != nil {
		return 0, err
	}
	columns := eventColumns(eventType)

	inserted := 0
	err = r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE tenant_id = $1 AND event_date BETWEEN $2 AND $3`, table),
			tenantID, start.Format("2006-01-02"), end.Format("2006-01-02"))
		if err != nil {
			return fmt.Errorf("repository: delete existing %s rows: %w", table, err)
		}

		for _, batch := range batches(records, batchSize) {
			if err := insertEventBatch(ctx, tx, table, columns, tenantID, eventType, batch); err != nil {
				return err
			}
			inserted += len(batch)
		}
		return nil
	})
	if err != nil {
		return inserted, err
	}
	return inserted, nil
}

func insertEventBatch(ctx context.Context, tx pgx.Tx, table string, columns []string, tenantID, eventType string, batch []model.EventRecord) error {
	if len(batch) == 0 {
		return nil
	}

	var placeholders []string
	var args []any
	n := 0
	for _, rec := range batch {
		values := eventValues(tenantID, eventType, rec)
		ph := make([]string, len(values))
		for i := range values {
			n++
			ph[i] = fmt.Sprintf("$%d", n)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args, values...)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("repository: insert into %s: %w", table, err)
	}
	return nil
}
