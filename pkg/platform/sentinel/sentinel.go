package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrAlreadyUsed: credential already redeemed
// - ErrRevoked: credential administratively invalidated
// - ErrConflict: unique constraint or concurrent-create collision
// - ErrUnavailable: backing store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrRevoked     = errors.New("revoked")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
