// Package types holds the value types shared by accounts, ledger entries
// and budgets.
package types

import "time"

// Entity carries the creation and update times of a stored record.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity stamps a record with the current UTC time.
func NewEntity() Entity {
	return EntityAt(time.Now())
}

// EntityAt stamps a record with t in UTC.
func EntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{CreatedAt: t, UpdatedAt: t}
}
