// Package digest computes keyed one-way digests of voting codes.
//
// The digest must be deterministic so it can serve as the credential's
// primary lookup key. HMAC-SHA256 with a process-wide secret gives that
// determinism while keeping offline enumeration of the small code space
// infeasible without the key. Per-credential salting (what a password hash
// would do) is deliberately not used: it would force a linear scan of every
// credential on each lookup.
package digest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// Keyer is the capability object holding the digest secret. It is built
// once at startup from configuration and passed to the generator and the
// redemption coordinator; the secret itself is never exposed again.
type Keyer struct {
	key []byte
}

// NewKeyer wraps the process-wide digest secret.
func NewKeyer(secret string) *Keyer {
	return &Keyer{key: []byte(secret)}
}

// Digest computes the hex digest of a code within an election namespace.
// The election ID is folded in so identical codes in different elections
// produce unrelated digests.
func (k *Keyer) Digest(electionID uuid.UUID, code string) string {
	mac := hmac.New(sha256.New, k.key)
	mac.Write(electionID[:])
	mac.Write([]byte(Normalize(code)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Normalize canonicalizes a presented code before digesting: surrounding
// whitespace and inner separators voters commonly type are stripped.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, " ", "")
	code = strings.ReplaceAll(code, "-", "")
	return code
}

// String keeps the secret out of logs and error messages.
func (k *Keyer) String() string { return "digest.Keyer(redacted)" }
