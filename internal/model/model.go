// Package model holds the data-model types shared across the ingestion
// engine: tenant configuration, job records, event records, and the
// dimensional (location/user) records loaded alongside them.
//
// These types are intentionally plain structs, not sqlc-generated rows: the
// event tables are selected dynamically by event type and the job record's
// progress/records_processed columns are free-form JSON, neither of which
// fits a generated-query model.
package model

import "time"

// WarehouseConfig is a tenant's columnar-warehouse (BigQuery) connection
// configuration, as stored in tenant_config.
type WarehouseConfig struct {
	Enabled         bool
	ProjectID       string
	DatasetID       string
	ServiceAccount  map[string]any
	UserTable       string
	ValidationError string
}

// Valid reports whether the warehouse sub-configuration is enabled and has
// the fields required to construct a client.
func (c *WarehouseConfig) Valid() bool {
	return c != nil && c.Enabled && c.ProjectID != "" && c.DatasetID != "" && len(c.ServiceAccount) > 0
}

// SFTPConfig is a tenant's SFTP connection configuration.
type SFTPConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Username        string
	Password        string
	RemotePath      string
	LocationsFile   string
	ValidationError string
}

// Valid reports whether the SFTP sub-configuration is enabled and has the
// fields required to construct a client.
func (c *SFTPConfig) Valid() bool {
	return c != nil && c.Enabled && c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTPConfig is a tenant's outbound-email configuration. The core never
// constructs an SMTP client itself — email delivery is handled by a
// separate service — but the config row is provisioned and read elsewhere,
// so the shape lives here too.
type SMTPConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Username        string
	Password        string
	FromAddress     string
	ValidationError string
}

// TenantConfig is the single-row configuration record living in a tenant's
// own database.
type TenantConfig struct {
	ID        string
	IsActive  bool
	Warehouse WarehouseConfig
	SFTP      SFTPConfig
	SMTP      SMTPConfig
}

// Job statuses. Queued is the pre-condition for RunJob and processing is the
// in-flight state; the remaining three are terminal.
const (
	JobStatusQueued               = "queued"
	JobStatusProcessing           = "processing"
	JobStatusCompleted            = "completed"
	JobStatusCompletedWithWarning = "completed_with_warnings"
	JobStatusFailed               = "failed"
)

// Data-type names a job may request.
const (
	DataTypeEvents    = "events"
	DataTypeUsers     = "users"
	DataTypeLocations = "locations"
)

// Event type names, in the order the warehouse extractor and job engine
// process them.
const (
	EventTypePurchase          = "purchase"
	EventTypeAddToCart         = "add_to_cart"
	EventTypePageView          = "page_view"
	EventTypeViewSearchResults = "view_search_results"
	EventTypeNoSearchResults   = "no_search_results"
	EventTypeViewItem          = "view_item"
)

// EventTypes lists all six variants in a stable order, used anywhere the
// engine needs to iterate deterministically (tests, logging, metrics).
var EventTypes = []string{
	EventTypePurchase,
	EventTypeAddToCart,
	EventTypePageView,
	EventTypeViewSearchResults,
	EventTypeNoSearchResults,
	EventTypeViewItem,
}

// EventRecord is a single extracted GA4 event, covering the union of
// columns across all six variants. Extractors populate only the fields
// relevant to the event type they produced; the repository writes only the
// columns that exist on the destination table.
type EventRecord struct {
	EventDate       string // YYYY-MM-DD or compact YYYYMMDD, normalized on write
	EventTimestamp  string
	UserPseudoID    string
	WebUserID       string
	DefaultBranchID string
	GASessionID     string

	// purchase
	TransactionID            string
	EcommercePurchaseRevenue float64

	// add_to_cart / view_item first-item columns
	FirstItemItemID       string
	FirstItemItemName     string
	FirstItemItemCategory string
	FirstItemPrice        float64
	FirstItemQuantity     int64

	ItemsJSON string

	PageTitle    string
	PageLocation string
	PageReferrer string

	// search variants
	SearchTerm          string
	NoSearchResultsTerm string

	DeviceCategory        string
	DeviceOperatingSystem string
	GeoCountry            string
	GeoCity               string

	RawData string // JSON of selected source fields; see the warehouse extractor for which
}

// Location is a tenant-scoped warehouse/branch location, keyed by
// (tenant_id, warehouse_id).
type Location struct {
	WarehouseID   string
	WarehouseCode string
	WarehouseName string
	City          string
	State         string
	Country       string
	Address1      string
	Address2      string
	Zip           string
	IsActive      bool
}

// User is a tenant-scoped user record, keyed by (tenant_id, user_id). All
// id-like and contact columns are strings; the source systems are not
// consistent about numeric vs. string representations.
type User struct {
	UserID               string
	UserName             string
	FirstName            string
	MiddleName           string
	LastName             string
	JobTitle             string
	UserERPID            string
	Email                string
	OfficePhone          string
	CellPhone            string
	Fax                  string
	Address1             string
	Address2             string
	Address3             string
	City                 string
	State                string
	Country              string
	Zip                  string
	WarehouseCode        string
	RegisteredDate       *time.Time
	LastLoginDate        *time.Time
	CIMMBuyingCompanyID  string
	BuyingCompanyName    string
	BuyingCompanyERPID   string
	RoleName             string
	SiteName             string
}

// RunRequest is the caller-supplied parameters for an ingestion job, as
// validated by internal/ingest before RunJob begins.
type RunRequest struct {
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtefield=StartDate"`
	DataTypes []string  `validate:"required,min=1,dive,oneof=events users locations"`
}

// Job is the persisted state of a single ingestion job.
type Job struct {
	JobID            string
	TenantID         string
	Status           string
	DataTypes        []string
	StartDate        time.Time
	EndDate          time.Time
	Progress         map[string]any
	RecordsProcessed map[string]any
	ErrorMessage     string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
}
