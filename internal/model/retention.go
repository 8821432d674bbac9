package model

import (
	"fmt"
	"strings"
)

// TTLUnit is the unit of a retention policy value.
type TTLUnit string

const (
	UnitDays       TTLUnit = "days"
	UnitWeeks      TTLUnit = "weeks"
	UnitMonths     TTLUnit = "months"
	UnitIndefinite TTLUnit = "indefinite"
)

// ParseTTLUnit converts a user-supplied string into a TTLUnit.
func ParseTTLUnit(s string) (TTLUnit, error) {
	switch TTLUnit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitDays:
		return UnitDays, nil
	case UnitWeeks:
		return UnitWeeks, nil
	case UnitMonths:
		return UnitMonths, nil
	case UnitIndefinite:
		return UnitIndefinite, nil
	default:
		return "", fmt.Errorf("unknown ttl unit %q", s)
	}
}

// RetentionPolicy is a (value, unit) pair governing how long a recording is
// kept before it expires. A zero value or the indefinite unit means the
// recording never expires.
type RetentionPolicy struct {
	Value int     `json:"value"`
	Unit  TTLUnit `json:"unit"`
}

// Indefinite reports whether the policy means "never expire".
func (p RetentionPolicy) Indefinite() bool {
	return p.Unit == UnitIndefinite || p.Value == 0
}

// Days converts the policy to a day count. Months are a fixed 30-day
// approximation. Callers must check Indefinite first.
func (p RetentionPolicy) Days() int {
	switch p.Unit {
	case UnitWeeks:
		return p.Value * 7
	case UnitMonths:
		return p.Value * 30
	default:
		return p.Value
	}
}
