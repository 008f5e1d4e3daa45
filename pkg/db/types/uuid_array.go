// Package dbtypes holds column types gorm cannot map on its own.
package dbtypes

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UUIDArray maps a Postgres uuid[] column. NULL scans as empty and an empty
// array is written as '{}', never NULL.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	var ids []uuid.UUID
	if err := (pq.GenericArray{A: &ids}).Scan(src); err != nil {
		return fmt.Errorf("scanning uuid[]: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	*a = ids
	return nil
}

func (a UUIDArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	return pq.GenericArray{A: []uuid.UUID(a)}.Value()
}

// Contains reports whether id is in the array.
func (a UUIDArray) Contains(id uuid.UUID) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}
