// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g. postgres) inside this directory.
//
// The sentinel errors defined here let higher layers distinguish failure
// scenarios without depending on a particular storage engine.
package repository

import "errors"

// ErrVersionConflict is returned when a conditional update lost a race:
// the row's version stamp changed between read and write. Callers should
// re-read and retry.
var ErrVersionConflict = errors.New("version conflict")

// ErrNotClaimed is returned when a claim-scoped operation (release, delete)
// finds the claim no longer held by the caller.
var ErrNotClaimed = errors.New("claim not held")
