// Package mappings persists the association between Up entity ids and the
// Lunch Money entities they sync to.
package mappings

import "context"

// Record maps one Up entity to its Lunch Money counterpart, plus denormalized
// display fields. AccountKind is set for account mappings, ParentID for
// category mappings; each space leaves the other field empty.
type Record struct {
	SourceID    string
	TargetID    string
	DisplayName string
	AccountKind string
	ParentID    string
}

// Store is a point-lookup mapping store.
//
// Put is an idempotent last-write-wins overwrite, not an insert-once: two
// workers racing on first sight of the same entity may both write, and the
// later write simply replaces the earlier one. Callers must not rely on any
// isolation beyond atomic single-key get/put.
type Store interface {
	// Get returns the record for sourceID, or nil when no mapping exists.
	Get(ctx context.Context, sourceID string) (*Record, error)

	// Put stores or overwrites the record keyed by its SourceID.
	Put(ctx context.Context, rec Record) error
}
