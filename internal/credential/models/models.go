// Package models defines the identity-bearing credential records.
//
// A credential row stores only the one-way digest of its voting code. The
// plaintext exists transiently at generation time and at presentation time;
// it is never persisted anywhere in this system.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the credential lifecycle state. Transitions are monotone:
// UNUSED may move to REDEEMED or REVOKED; both are terminal.
type Status string

const (
	StatusUnused   Status = "unused"
	StatusRedeemed Status = "redeemed"
	StatusRevoked  Status = "revoked"
)

// Credential is one issued voting key, keyed by its digest.
type Credential struct {
	// Digest is the keyed one-way hash of the plaintext code. Primary
	// lookup key; unique per election namespace.
	Digest     string
	ElectionID uuid.UUID
	Status     Status

	// InviteeName and InviteeEmail tie the credential to the invitation
	// roster. They live on the identity-bearing side only; no ballot ever
	// references this record.
	InviteeName  string
	InviteeEmail string

	IssuedAt   time.Time
	RedeemedAt *time.Time
	RevokedAt  *time.Time
}

// Clone returns a copy so stores can hand out snapshots.
func (c *Credential) Clone() *Credential {
	out := *c
	if c.RedeemedAt != nil {
		t := *c.RedeemedAt
		out.RedeemedAt = &t
	}
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		out.RevokedAt = &t
	}
	return &out
}
