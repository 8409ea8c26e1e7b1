package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ingestio/enginecore/internal/domainerr"
	"github.com/ingestio/enginecore/internal/model"
	"github.com/ingestio/enginecore/internal/warehouse"
)

// processEvents extracts all six GA4 event types for [start, end],
// reclassifies mistagged no_search_results records, and writes each event
// type concurrently. A failure extracting or writing one event type never
// aborts the other five: it is recorded as a warning of the exact form
// "<event_type>: <error>" and that type's count in the returned map is 0.
// The warehouse client itself being unconfigured is fatal to the whole
// phase, unlike a single type's extraction or write failing.
func (e *Engine) processEvents(ctx context.Context, tenantID string, start, end time.Time) (map[string]int, []string, error) {
	counts := map[string]int{}
	for _, eventType := range model.EventTypes {
		counts[eventType] = 0
	}

	client := e.factory.WarehouseClient(ctx, tenantID)
	if client == nil {
		return nil, nil, domainerr.ConfigMissing("events.warehouse_client", "warehouse is not configured for this tenant")
	}
	defer client.Close()

	var (
		mu       sync.Mutex
		warnings []string
	)
	warn := func(eventType string, err error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, fmt.Sprintf("%s: %s", eventType, err.Error()))
	}

	results, extractErrs := client.GetDateRangeEvents(ctx, start, end)
	for eventType, err := range extractErrs {
		warn(eventType, err)
		e.metrics.EventTypeErrors.WithLabelValues(tenantID, eventType).Inc()
	}

	noResults, hadNoResults := results[model.EventTypeNoSearchResults]
	viewResults, hadViewResults := results[model.EventTypeViewSearchResults]
	before := len(viewResults)
	correctedNoResults, correctedViewResults := warehouse.Reclassify(noResults, viewResults)
	// Only reassign types that were extracted, so a failed search type stays
	// absent and is skipped below instead of having its slice replaced.
	if hadNoResults {
		results[model.EventTypeNoSearchResults] = correctedNoResults
	}
	if hadViewResults {
		results[model.EventTypeViewSearchResults] = correctedViewResults
	}
	if moved := len(correctedViewResults) - before; moved > 0 {
		e.metrics.EventsReclassified.WithLabelValues(tenantID).Add(float64(moved))
	}

	var wg sync.WaitGroup
	for _, eventType := range model.EventTypes {
		records, ok := results[eventType]
		if !ok {
			continue // extraction already failed and was warned about above
		}

		eventType := eventType
		records := records
		wg.Add(1)
		go func() {
			defer wg.Done()

			n, err := e.repo.ReplaceEventData(ctx, tenantID, eventType, start, end, records)
			if err != nil {
				warn(eventType, err)
				e.metrics.BatchErrors.WithLabelValues(tenantID, "event_"+eventType).Inc()
				return
			}

			mu.Lock()
			counts[eventType] = n
			mu.Unlock()
			e.metrics.EventsExtracted.WithLabelValues(tenantID, eventType).Add(float64(len(records)))
			e.metrics.RecordsUpserted.WithLabelValues(tenantID, "event_"+eventType).Add(float64(n))
			e.metrics.BatchesWritten.WithLabelValues(tenantID, "event_"+eventType).Inc()
		}()
	}
	wg.Wait()

	return counts, warnings, nil
}

// processUsers extracts and upserts the tenant's user roster. If the tenant
// has no user table configured, or no warehouse client at all, the phase is
// skipped silently with a zero count: a tenant choosing not to sync users is
// a normal configuration, not an omission worth flagging or failing over. A
// failure extracting the roster itself (as opposed to an individual write
// batch) is a phase-level failure: it is returned as an error, not folded
// into warnings, so the caller can fail the whole job.
func (e *Engine) processUsers(ctx context.Context, tenantID string) (int, []string, error) {
	userTable := e.factory.UserTable(ctx, tenantID)
	if userTable == "" {
		return 0, nil, nil
	}

	client := e.factory.WarehouseClient(ctx, tenantID)
	if client == nil {
		return 0, nil, nil
	}
	defer client.Close()

	users, err := client.GetUsers(ctx, userTable)
	if err != nil {
		return 0, nil, fmt.Errorf("extract users from warehouse: %w", err)
	}

	upserted, batchErrors := e.repo.UpsertUsers(ctx, tenantID, users)
	var warnings []string
	if batchErrors > 0 {
		warnings = append(warnings, fmt.Sprintf("users: %d batch(es) failed to write", batchErrors))
		e.metrics.BatchErrors.WithLabelValues(tenantID, "users").Add(float64(batchErrors))
	}
	e.metrics.RecordsUpserted.WithLabelValues(tenantID, "users").Add(float64(upserted))

	return upserted, warnings, nil
}

// processLocations downloads and upserts the tenant's location roster over
// SFTP. No SFTP configuration is a silent skip, matching the users phase. A
// failure downloading the spreadsheet itself is a phase-level failure:
// it is returned as an error so the caller can fail the whole job;
// individual batch-upsert failures remain isolated warnings.
func (e *Engine) processLocations(ctx context.Context, tenantID string) (int, []string, error) {
	client := e.factory.SFTPClient(ctx, tenantID)
	if client == nil {
		return 0, nil, nil
	}

	locations, err := client.FetchLocations(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("download locations from sftp server: %w", err)
	}

	upserted, batchErrors := e.repo.UpsertLocations(ctx, tenantID, locations)
	var warnings []string
	if batchErrors > 0 {
		warnings = append(warnings, fmt.Sprintf("locations: %d batch(es) failed to write", batchErrors))
		e.metrics.BatchErrors.WithLabelValues(tenantID, "locations").Add(float64(batchErrors))
	}
	e.metrics.RecordsUpserted.WithLabelValues(tenantID, "locations").Add(float64(upserted))

	return upserted, warnings, nil
}
