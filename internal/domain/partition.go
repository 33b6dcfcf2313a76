// Package domain holds tutorhub's entity types, their field schemas and the
// partition (tenant) scope every data operation is bound to.
//
// Import Path: tutorhub.io/tutorhub/internal/domain
package domain

import (
	"strconv"

	apperrors "tutorhub.io/tutorhub/internal/pkg/errors"
)

// Partition identifies one tenant. The zero value is invalid and is rejected
// by every store operation.
//
// Partition is passed explicitly to every data-access call; it is never read
// from ambient state and never part of an entity's equality or hash.
type Partition struct {
	id int64
}

// NewPartition validates id.
func NewPartition(id int64) (Partition, error) {
	if id <= 0 {
		return Partition{}, apperrors.Validation(apperrors.CodeInvalidPartition, "partition id must be positive").
			WithParams(map[string]interface{}{"partition": id})
	}
	return Partition{id: id}, nil
}

// MustPartition is NewPartition for fixtures and tests.
func MustPartition(id int64) Partition {
	p, err := NewPartition(id)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the partition id.
func (p Partition) ID() int64 { return p.id }

// Valid reports whether p was constructed through NewPartition.
func (p Partition) Valid() bool { return p.id > 0 }

// String implements fmt.Stringer.
func (p Partition) String() string { return "partition:" + strconv.FormatInt(p.id, 10) }
