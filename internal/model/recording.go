package model

import "time"

// Recording represents one captured audio artifact.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Recording struct {
	ID          string    `json:"id"`
	ShowID      string    `json:"show_id"`
	Title       string    `json:"title"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	RecordedAt  time.Time `json:"recorded_at"`

	// TTLOverride, when non-nil, supersedes the owning show's default
	// retention. Nil means the recording inherits the show default.
	TTLOverride *RetentionPolicy `json:"ttl_override,omitempty"`

	// ExpiresAt is the materialized expiry instant; nil means the recording
	// never expires. It is recomputed from policy on every override change
	// and advanced directly by an extend.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Version is the optimistic concurrency stamp; every retention mutation
	// increments it.
	Version int64 `json:"-"`
}
