package events

import "time"

// Catalog event types broadcast on the change feed.
const (
	TypeSaved    = "record.saved"
	TypeDeleted  = "record.deleted"
	TypeImported = "catalog.imported"
	TypeCleared  = "catalog.cleared"
)

// CatalogEvent describes one catalog mutation for feed subscribers. Count
// is set on batch events (imported, cleared), ID/Name on per-record ones.
type CatalogEvent struct {
	Type  string    `json:"type"`
	ID    string    `json:"id,omitempty"`
	Name  string    `json:"name,omitempty"`
	Count int       `json:"count,omitempty"`
	At    time.Time `json:"at"`
}

// Saved builds a record.saved event for a persisted record.
func Saved(id, name string) CatalogEvent {
	return CatalogEvent{Type: TypeSaved, ID: id, Name: name, At: time.Now().UTC()}
}

// Deleted builds a record.deleted event.
func Deleted(id string) CatalogEvent {
	return CatalogEvent{Type: TypeDeleted, ID: id, At: time.Now().UTC()}
}

// Imported builds a catalog.imported event for a bulk insert.
func Imported(count int) CatalogEvent {
	return CatalogEvent{Type: TypeImported, Count: count, At: time.Now().UTC()}
}

// Cleared builds a catalog.cleared event for a batch delete.
func Cleared(count int) CatalogEvent {
	return CatalogEvent{Type: TypeCleared, Count: count, At: time.Now().UTC()}
}
