package domain

import "time"

// Notification is the durable system-of-record row. The cache entry below is
// a denormalized projection of it; the row is authoritative.
type Notification struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Type        string    `json:"type" db:"type"`
	ReferenceID int64     `json:"reference_id" db:"reference_id"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// CachedNotification is the per-user unread-list projection held in the
// cache. It carries the display message and metadata that the durable row
// does not; it is advisory and reconciled lazily.
type CachedNotification struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	ReferenceID int64          `json:"reference_id"`
	Message     string         `json:"message"`
	Timestamp   string         `json:"timestamp"`
	Metadata    map[string]any `json:"metadata"`
}
