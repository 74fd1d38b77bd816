// Package catalog declares the staging and analytics table schemas and
// generates the idempotent DDL statements that register them, together with
// their partitions, in the metadata catalog.
package catalog

import "strings"

// Column is one column of a catalog table definition.
type Column struct {
	Name string
	Type string
}

// Storage formats for external tables.
type Format int

const (
	// FormatJSON is row-oriented self-describing storage with tolerant
	// ("ignore malformed") parsing, used for the staging table over raw input.
	FormatJSON Format = iota
	// FormatParquet is columnar storage, used for the analytics table.
	FormatParquet
)

// TableDef is a complete external table definition: schema, partition keys,
// storage format and location. All DDL is rendered from this one place.
type TableDef struct {
	Database        string
	Name            string
	Columns         []Column
	PartitionKeys   []Column
	Format          Format
	Location        string
	TableProperties []Property
}

// Property is an ordered key/value pair for SERDE and table properties.
// A slice rather than a map keeps rendered DDL deterministic.
type Property struct {
	Key   string
	Value string
}

// QualifiedName returns the database-qualified table name.
func (t TableDef) QualifiedName() string {
	return t.Database + "." + t.Name
}

// SanitizeOwnerID normalizes an owner/identity token for use inside catalog
// object names: runs of non-alphanumeric characters become single underscores.
func SanitizeOwnerID(ownerID string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(ownerID) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return b.String()
}

// StagingDatabase returns the staging database name for an owner.
func StagingDatabase(ownerID string) string {
	return "capstone_" + SanitizeOwnerID(ownerID) + "_staging_db"
}

// AnalyticsDatabase returns the analytics database name for an owner.
func AnalyticsDatabase(ownerID string) string {
	return "capstone_" + SanitizeOwnerID(ownerID) + "_db"
}

// StagingTable defines the raw external table over the original input
// location. The minute partition level is a placeholder inherited from the raw
// layout; it carries no information but must match the directory hierarchy.
func StagingTable(ownerID, location string) TableDef {
	return TableDef{
		Database: StagingDatabase(ownerID),
		Name:     "events_raw",
		Columns: []Column{
			{Name: "timestamp", Type: "string"},
			{Name: "user_id", Type: "string"},
			{Name: "session_id", Type: "string"},
			{Name: "event_type", Type: "string"},
			{Name: "product_id", Type: "string"},
			{Name: "quantity", Type: "int"},
			{Name: "price", Type: "double"},
			{Name: "category", Type: "string"},
			{Name: "search_query", Type: "string"},
		},
		PartitionKeys: []Column{
			{Name: "year", Type: "string"},
			{Name: "month", Type: "string"},
			{Name: "day", Type: "string"},
			{Name: "hour", Type: "string"},
			{Name: "minute", Type: "string"},
		},
		Format:   FormatJSON,
		Location: location,
		TableProperties: []Property{
			{Key: "has_encrypted_data", Value: "false"},
		},
	}
}

// AnalyticsTable defines the cleaned external table over the transformed
// output location.
func AnalyticsTable(ownerID, location string) TableDef {
	return TableDef{
		Database: AnalyticsDatabase(ownerID),
		Name:     "events_parquet",
		Columns: []Column{
			{Name: "event_ts", Type: "timestamp"},
			{Name: "event_date", Type: "date"},
			{Name: "user_id", Type: "string"},
			{Name: "session_id", Type: "string"},
			{Name: "event_type", Type: "string"},
			{Name: "product_id", Type: "string"},
			{Name: "quantity", Type: "int"},
			{Name: "price", Type: "double"},
			{Name: "category", Type: "string"},
			{Name: "search_query", Type: "string"},
			{Name: "revenue", Type: "double"},
		},
		PartitionKeys: []Column{
			{Name: "year", Type: "string"},
			{Name: "month", Type: "string"},
			{Name: "day", Type: "string"},
			{Name: "hour", Type: "string"},
		},
		Format:   FormatParquet,
		Location: location,
	}
}
