// Package models defines the redemption outcome taxonomy.
//
// Internally every rejection keeps its precise reason for metrics and the
// audit trail. The voter-facing surface collapses the credential reasons
// into one message so responses cannot be used to probe which codes exist,
// which were used, and which were revoked.
package models

// Reason is the internal classification of a rejected cast.
type Reason string

const (
	ReasonUnknownElection   Reason = "unknown_election"
	ReasonElectionClosed    Reason = "election_closed"
	ReasonInvalidCredential Reason = "invalid_credential"
	ReasonAlreadyUsed       Reason = "already_used"
	ReasonRevoked           Reason = "revoked"
	ReasonMalformedBallot   Reason = "malformed_ballot"
	ReasonStorageFault      Reason = "storage_fault"
)

// CredentialReason reports whether a reason is one of the three the voter
// surface must not distinguish.
func (r Reason) CredentialReason() bool {
	switch r {
	case ReasonInvalidCredential, ReasonAlreadyUsed, ReasonRevoked:
		return true
	}
	return false
}

// RejectedMessage is the single voter-facing text for every credential
// rejection.
const RejectedMessage = "credential was not accepted"
