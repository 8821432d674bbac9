package model

import "time"

// Show is a scheduled or playlist-type program. Its default retention
// governs every recording that carries no override.
type Show struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	DefaultRetention RetentionPolicy `json:"default_retention"`
	CreatedAt        time.Time       `json:"created_at"`
}
