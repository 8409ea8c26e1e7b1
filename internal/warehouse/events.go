package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ingestio/enginecore/internal/model"
)

// commonSelect is the column list every per-event-type query shares: the
// event date/timestamp/identity columns, user properties and ga_session_id
// pulled via COALESCE over the int/string value pair GA4 stores them as, page
// params, device/geo dimensions, and a raw_data column holding a JSON
// serialization of event_date, event_timestamp, event_name, user_pseudo_id,
// device, and geo. raw_data does not include event params, user properties,
// items, or the other source columns.
const commonSelect = `
  event_date,
  CAST(event_timestamp AS STRING) AS event_timestamp,
  user_pseudo_id,
  (SELECT COALESCE(CAST(up.value.int_value AS STRING), up.value.string_value)
     FROM UNNEST(user_properties) up WHERE up.key = 'WebUserId') AS user_prop_webuserid,
  (SELECT COALESCE(CAST(up.value.int_value AS STRING), up.value.string_value)
     FROM UNNEST(user_properties) up WHERE up.key = 'default_branch_id') AS user_prop_default_branch_id,
  (SELECT COALESCE(CAST(ep.value.int_value AS STRING), ep.value.string_value)
     FROM UNNEST(event_params) ep WHERE ep.key = 'ga_session_id') AS param_ga_session_id,
  (SELECT ep.value.string_value FROM UNNEST(event_params) ep WHERE ep.key = 'page_title') AS param_page_title,
  (SELECT ep.value.string_value FROM UNNEST(event_params) ep WHERE ep.key = 'page_location') AS param_page_location,
  (SELECT ep.value.string_value FROM UNNEST(event_params) ep WHERE ep.key = 'page_referrer') AS param_page_referrer,
  device.category AS device_category,
  device.operating_system AS device_operating_system,
  geo.country AS geo_country,
  geo.city AS geo_city,
  TO_JSON_STRING(STRUCT(event_date, event_timestamp, event_name, user_pseudo_id, device, geo)) AS raw_data
`

func dateSuffix(t time.Time) string {
	return t.Format("20060102")
}

func (c *Client) whereRange(start, end time.Time) string {
	return fmt.Sprintf("_TABLE_SUFFIX BETWEEN '%s' AND '%s'", dateSuffix(start), dateSuffix(end))
}

// GetDateRangeEvents extracts all six event types over [start, end] and
// returns them keyed by event type. A failure extracting one event type does
// not abort the others: it is logged by the caller and that type's slice is
// simply absent, matching the warehouse client's historical
// fail-soft-per-type behavior.
func (c *Client) GetDateRangeEvents(ctx context.Context, start, end time.Time) (map[string][]model.EventRecord, map[string]error) {
	results := make(map[string][]model.EventRecord, len(model.EventTypes))
	errs := make(map[string]error)

	extractors := map[string]func(context.Context, time.Time, time.Time) ([]model.EventRecord, error){
		model.EventTypePurchase:          c.extractPurchase,
		model.EventTypeAddToCart:         c.extractAddToCart,
		model.EventTypePageView:          c.extractPageView,
		model.EventTypeViewSearchResults: c.extractViewSearchResults,
		model.EventTypeNoSearchResults:   c.extractNoSearchResults,
		model.EventTypeViewItem:          c.extractViewItem,
	}

	for _, eventType := range model.EventTypes {
		records, err := extractors[eventType](ctx, start, end)
		if err != nil {
			errs[eventType] = err
			continue
		}
		results[eventType] = records
	}

	return results, errs
}

func (c *Client) extractPurchase(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	sql := fmt.Sprintf(`
SELECT
  %s,
  (SELECT ep.value.string_value FROM UNNEST(event_params) ep WHERE ep.key = 'transaction_id') AS param_transaction_id,
  ecommerce.purchase_revenue AS ecommerce_purchase_revenue,
  TO_JSON_STRING(items) AS items_json
FROM %s
WHERE %s AND event_name = 'purchase'
ORDER BY event_timestamp`, commonSelect, c.table(), c.whereRange(start, end))

	rows, err := c.runQuery(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]model.EventRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.common()
		rec.TransactionID = r.str("param_transaction_id")
		rec.EcommercePurchaseRevenue = r.float("ecommerce_purchase_revenue")
		rec.ItemsJSON = r.str("items_json")
		out = append(out, rec)
	}
	return out, nil
}

func firstItemSelect() string {
	return `
  items[SAFE_OFFSET(0)].item_id AS first_item_id,
  items[SAFE_OFFSET(0)].item_name AS first_item_name,
  items[SAFE_OFFSET(0)].item_category AS first_item_category,
  items[SAFE_OFFSET(0)].price AS first_item_price,
  items[SAFE_OFFSET(0)].quantity AS first_item_quantity,
  TO_JSON_STRING(items) AS items_json`
}

func (c *Client) extractAddToCart(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	sql := fmt.Sprintf(`
SELECT
  %s,
  %s
FROM %s
WHERE %s AND event_name = 'add_to_cart'
ORDER BY event_timestamp`, commonSelect, firstItemSelect(), c.table(), c.whereRange(start, end))
	return c.runFirstItemQuery(ctx, sql)
}

func (c *Client) extractViewItem(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	sql := fmt.Sprintf(`
SELECT
  %s,
  %s
FROM %s
WHERE %s AND event_name = 'view_item'
ORDER BY event_timestamp`, commonSelect, firstItemSelect(), c.table(), c.whereRange(start, end))
	return c.runFirstItemQuery(ctx, sql)
}

func (c *Client) runFirstItemQuery(ctx context.Context, sql string) ([]model.EventRecord, error) {
	rows, err := c.runQuery(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]model.EventRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.common()
		rec.FirstItemItemID = r.str("first_item_id")
		rec.FirstItemItemName = r.str("first_item_name")
		rec.FirstItemItemCategory = r.str("first_item_category")
		rec.FirstItemPrice = r.float("first_item_price")
		rec.FirstItemQuantity = r.int("first_item_quantity")
		rec.ItemsJSON = r.str("items_json")
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) extractPageView(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	sql := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE %s AND event_name = 'page_view'
ORDER BY event_timestamp`, commonSelect, c.table(), c.whereRange(start, end))

	rows, err := c.runQuery(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]model.EventRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.common())
	}
	return out, nil
}

func (c *Client) extractViewSearchResults(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	sql := fmt.Sprintf(`
SELECT
  %s,
  (SELECT ep.value.string_value FROM UNNEST(event_params) ep WHERE ep.key = 'search_term') AS param_search_term
FROM %s
WHERE %s AND event_name = 'view_search_results'
ORDER BY event_timestamp`, commonSelect, c.table(), c.whereRange(start, end))

	rows, err := c.runQuery(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]model.EventRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.common()
		rec.SearchTerm = r.str("param_search_term")
		out = append(out, rec)
	}
	return out, nil
}

// extractNoSearchResults matches both the dedicated no_search_results event
// and the alternate view_search_results_no_results name some GA4 properties
// emit instead; Reclassify later moves the records that turn out to
// actually have results back into view_search_results.
func (c *Client) extractNoSearchResults(ctx context.Context, start, end time.Time) ([]model.EventRecord, error) {
	sql := fmt.Sprintf(`
SELECT
  %s,
  (SELECT ep.value.string_value FROM UNNEST(event_params) ep WHERE ep.key = 'no_search_results_term') AS param_no_search_results_term
FROM %s
WHERE %s AND event_name IN ('no_search_results', 'view_search_results_no_results')
ORDER BY event_timestamp`, commonSelect, c.table(), c.whereRange(start, end))

	rows, err := c.runQuery(ctx, sql)
	if err != nil {
		return nil, err
	}

	out := make([]model.EventRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.common()
		rec.NoSearchResultsTerm = r.str("param_no_search_results_term")
		out = append(out, rec)
	}
	return out, nil
}
