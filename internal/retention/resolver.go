// Package retention implements the recording lifecycle policy logic:
// resolving effective expiry instants from per-recording overrides and
// show defaults, and classifying recordings into expiry buckets.
package retention

import (
	"time"

	"aircheck/internal/model"
)

// Resolve computes the effective expiry instant for a recording from its
// own override (if any) and its owning show's default policy.
//
// A nil result means the recording never expires. The result is anchored on
// the recording's immutable RecordedAt, so Resolve is deterministic for a
// given recording/show pair and safe to call on every policy-affecting
// mutation.
func Resolve(rec *model.Recording, show *model.Show) *time.Time {
	pol := show.DefaultRetention
	if rec.TTLOverride != nil {
		pol = *rec.TTLOverride
	}
	if pol.Indefinite() {
		return nil
	}
	t := rec.RecordedAt.AddDate(0, 0, pol.Days())
	return &t
}
