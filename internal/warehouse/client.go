// Package warehouse implements the columnar-warehouse extractor: it queries
// a BigQuery-backed GA4 event export for a date range and returns one fully
// read slice per event type, and separately extracts a configured user table.
//
// Authentication uses a tenant's stored service-account credential blob, one
// fresh *bigquery.Client per call, matching the stateless-per-invocation
// style the per-tenant database router and SFTP extractor also use.
package warehouse

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/bigquery"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ingestio/enginecore/internal/model"
)

// bigQueryScope is the minimal scope needed for read-only event export
// queries against a tenant's dataset.
const bigQueryScope = "https://www.googleapis.com/auth/bigquery.readonly"

// Client extracts GA4 event and user data from a single tenant's BigQuery
// project and dataset.
type Client struct {
	bq        *bigquery.Client
	projectID string
	datasetID string
}

// NewClient authenticates against BigQuery using the tenant's stored
// service-account credential blob and returns a Client scoped to the
// tenant's project and dataset.
func NewClient(ctx context.Context, cfg model.WarehouseConfig) (*Client, error) {
	if !cfg.Valid() {
		return nil, fmt.Errorf("warehouse: configuration incomplete")
	}

	saJSON, err := json.Marshal(cfg.ServiceAccount)
	if err != nil {
		return nil, fmt.Errorf("warehouse: encode service account: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, saJSON, bigQueryScope)
	if err != nil {
		return nil, fmt.Errorf("warehouse: parse service account credentials: %w", err)
	}

	bq, err := bigquery.NewClient(ctx, cfg.ProjectID, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("warehouse: create bigquery client: %w", err)
	}

	return &Client{bq: bq, projectID: cfg.ProjectID, datasetID: cfg.DatasetID}, nil
}

// Close releases the underlying BigQuery client.
func (c *Client) Close() error {
	return c.bq.Close()
}

func (c *Client) table() string {
	return fmt.Sprintf("`%s.%s.events_*`", c.projectID, c.datasetID)
}

// row is the generic shape every event query returns; fields not relevant to
// a given event type are simply absent from that query's SELECT list and
// stay at their zero value.
type row map[string]bigquery.Value

func (r row) str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (r row) float(key string) float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func (r row) int(key string) int64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func (r row) common() model.EventRecord {
	return model.EventRecord{
		EventDate:             r.str("event_date"),
		EventTimestamp:        r.str("event_timestamp"),
		UserPseudoID:          r.str("user_pseudo_id"),
		WebUserID:             r.str("user_prop_webuserid"),
		DefaultBranchID:       r.str("user_prop_default_branch_id"),
		GASessionID:           r.str("param_ga_session_id"),
		PageTitle:             r.str("param_page_title"),
		PageLocation:          r.str("param_page_location"),
		PageReferrer:          r.str("param_page_referrer"),
		DeviceCategory:        r.str("device_category"),
		DeviceOperatingSystem: r.str("device_operating_system"),
		GeoCountry:            r.str("geo_country"),
		GeoCity:               r.str("geo_city"),
		RawData:               r.str("raw_data"),
	}
}

func (c *Client) runQuery(ctx context.Context, sql string) ([]row, error) {
	q := c.bq.Query(sql)
	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	var rows []row
	for {
		var r row
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}
