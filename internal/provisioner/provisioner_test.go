package provisioner

import (
	"strings"
	"testing"

	"github.com/ingestio/enginecore/internal/provisioner/schema"
)

func TestContainsDollarQuote(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"plain table", "CREATE TABLE IF NOT EXISTS foo (id TEXT PRIMARY KEY);", false},
		{"dollar function body", "CREATE OR REPLACE FUNCTION f() RETURNS TRIGGER AS $function$ BEGIN END; $function$ LANGUAGE plpgsql;", true},
		{"generic dollar quote", "SELECT $$literal; with semicolon$$;", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := containsDollarQuote(tc.content); got != tc.want {
				t.Errorf("containsDollarQuote(%q) = %v, want %v", tc.content, got, tc.want)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	got := quoteIdentifier(`google-analytics-tenant"1`)
	want := `"google-analytics-tenant""1"`
	if got != want {
		t.Errorf("quoteIdentifier() = %q, want %q", got, want)
	}
}

func TestIsAlreadyExists(t *testing.T) {
	if !isAlreadyExists(errString("pq: database \"foo\" already exists")) {
		t.Error("expected already-exists error to be detected")
	}
	if isAlreadyExists(errString("connection refused")) {
		t.Error("did not expect connection refused to be treated as already-exists")
	}
}

// TestTableCreationOrder locks in the exact table order required so that
// foreign keys (email_send_history -> email_sending_jobs) and the
// touch_updated_at triggers always see their target tables already created.
func TestTableCreationOrder(t *testing.T) {
	files, err := sortedSQLFiles(schema.Tables, "tables")
	if err != nil {
		t.Fatalf("sortedSQLFiles: %v", err)
	}

	want := []string{
		"tables/01_tenant_config.sql",
		"tables/02_branch_email_mappings.sql",
		"tables/03_email_sending_jobs.sql",
		"tables/04_email_send_history.sql",
		"tables/05_users.sql",
		"tables/06_locations.sql",
		"tables/07_processing_jobs.sql",
		"tables/08_event_page_view.sql",
		"tables/09_event_add_to_cart.sql",
		"tables/10_event_purchase.sql",
		"tables/11_event_view_item.sql",
		"tables/12_event_view_search_results.sql",
		"tables/13_event_no_search_results.sql",
	}
	if len(files) != len(want) {
		t.Fatalf("got %d table files, want %d", len(files), len(want))
	}
	for i, f := range files {
		if f.path != want[i] {
			t.Errorf("table file %d = %q, want %q", i, f.path, want[i])
		}
	}
}

// TestEngineOwnedTablesCarryTenantID guards against a regression back to
// the pre-tenant_id schema: every table the ingestion engine itself reads
// and writes must declare tenant_id, even though each tenant already gets
// its own database. The three email tables are owned by an external
// collaborator and are exempt (see schema/tables/02-04), as is
// tenant_config, which the engine only reads and whose id column is the
// tenant id itself.
func TestEngineOwnedTablesCarryTenantID(t *testing.T) {
	files, err := sortedSQLFiles(schema.Tables, "tables")
	if err != nil {
		t.Fatalf("sortedSQLFiles: %v", err)
	}
	exempt := map[string]bool{
		"tables/01_tenant_config.sql":         true,
		"tables/02_branch_email_mappings.sql": true,
		"tables/03_email_sending_jobs.sql":    true,
		"tables/04_email_send_history.sql":    true,
	}
	for _, f := range files {
		if exempt[f.path] {
			continue
		}
		if !strings.Contains(f.content, "tenant_id") {
			t.Errorf("%s does not declare a tenant_id column", f.path)
		}
	}
}

// TestReadSideFunctionSignaturesPreserved guards the contract in
// schema/functions/03_read_side_functions.sql: the core never implements
// these functions' logic, but provisioning must leave every one of them
// callable under its existing name so the read side can bind to a freshly
// provisioned tenant database without also needing a function deploy step.
func TestReadSideFunctionSignaturesPreserved(t *testing.T) {
	files, err := sortedSQLFiles(schema.Functions, "functions")
	if err != nil {
		t.Fatalf("sortedSQLFiles: %v", err)
	}

	var combined strings.Builder
	for _, f := range files {
		combined.WriteString(f.content)
	}
	content := combined.String()

	want := []string{
		"get_dashboard_overview_stats",
		"get_chart_data",
		"get_location_stats_bulk",
		"get_locations",
		"get_session_history",
		"get_user_history",
		"get_purchase_tasks",
		"get_cart_abandonment_tasks",
		"get_search_analysis_tasks",
		"get_repeat_visit_tasks",
		"get_performance_tasks",
		"get_data_availability_combined",
		"get_tenant_jobs_paginated",
		"get_email_jobs_paginated",
		"get_email_send_history_paginated",
	}
	for _, name := range want {
		if !strings.Contains(content, "FUNCTION "+name+"(") {
			t.Errorf("read-side function %s not found in provisioned schema", name)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
