package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ingestio/enginecore/internal/model"
)

func TestNormalizeEventDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already dashed", "2026-07-29", "2026-07-29"},
		{"compact wildcard-partition form", "20260729", "2026-07-29"},
		{"garbage passes through unchanged", "not-a-date", "not-a-date"},
		{"empty passes through unchanged", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeEventDate(tc.in))
		})
	}
}

func TestEventValuesPrependsTenantIDAndNormalizesDate(t *testing.T) {
	rec := model.EventRecord{EventDate: "20260101", UserPseudoID: "u1"}
	values := eventValues("tenant-a", model.EventTypePageView, rec)

	assert.Equal(t, "tenant-a", values[0], "tenant_id must be the first bound value")
	assert.Equal(t, "2026-01-01", values[1], "event_date must be normalized before binding")
	assert.Len(t, values, len(eventColumns(model.EventTypePageView)), "values must line up 1:1 with columns")
}

func TestEventValuesPerTypeColumnParity(t *testing.T) {
	for _, eventType := range model.EventTypes {
		cols := eventColumns(eventType)
		values := eventValues("tenant-a", eventType, model.EventRecord{})
		assert.Len(t, values, len(cols), "eventType=%s column/value count mismatch", eventType)
	}
}

func TestLocationValuesPrependsTenantIDAndCarriesWarehouseCode(t *testing.T) {
	loc := model.Location{WarehouseID: "w1", WarehouseCode: "WH-01", WarehouseName: "Main"}
	values := locationValues("tenant-a", loc)

	assert.Equal(t, "tenant-a", values[0])
	assert.Equal(t, "w1", values[1])
	assert.Equal(t, "WH-01", values[2], "warehouse_code must be bound, not dropped")
	assert.Len(t, values, len(locationColumns))
}

func TestUserValuesPrependsTenantID(t *testing.T) {
	u := model.User{UserID: "u1", Email: "u1@example.com"}
	values := userValues("tenant-a", u)

	assert.Equal(t, "tenant-a", values[0])
	assert.Equal(t, "u1", values[1])
	assert.Len(t, values, len(userColumns))
}
