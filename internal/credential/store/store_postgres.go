package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"votilio/internal/credential/models"
	"votilio/internal/platform/postgres"
	"votilio/pkg/platform/sentinel"
)

// Postgres is the durable credential store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Insert stores a new UNUSED credential. Digest collisions return
// sentinel.ErrConflict so the generator can retry with a fresh code.
func (s *Postgres) Insert(ctx context.Context, cred *models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (digest, election_id, status, invitee_name, invitee_email, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, cred.Digest, cred.ElectionID, cred.Status, cred.InviteeName, cred.InviteeEmail, cred.IssuedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// Lookup returns the credential with the given digest.
func (s *Postgres) Lookup(ctx context.Context, digest string) (*models.Credential, error) {
	var cred models.Credential
	row := s.db.QueryRowContext(ctx, `
		SELECT digest, election_id, status, invitee_name, invitee_email, issued_at, redeemed_at, revoked_at
		FROM credentials WHERE digest = $1
	`, digest)
	err := row.Scan(&cred.Digest, &cred.ElectionID, &cred.Status, &cred.InviteeName,
		&cred.InviteeEmail, &cred.IssuedAt, &cred.RedeemedAt, &cred.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select credential: %w", err)
	}
	return &cred, nil
}

// TryRedeem performs the atomic UNUSED -> REDEEMED transition as a single
// conditional update. The database serializes concurrent attempts, so
// exactly one caller sees an affected row; losers get classified by a
// follow-up read of the state they lost to.
func (s *Postgres) TryRedeem(ctx context.Context, digest string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials
		SET status = $2, redeemed_at = $3
		WHERE digest = $1 AND status = $4
	`, digest, models.StatusRedeemed, at, models.StatusUnused)
	if err != nil {
		return fmt.Errorf("redeem credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("redeem credential rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	return s.classify(ctx, digest)
}

// Revoke invalidates an UNUSED credential. Redeemed credentials are never
// revoked; revoking an already-revoked credential is a no-op success.
func (s *Postgres) Revoke(ctx context.Context, digest string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials
		SET status = $2, revoked_at = $3
		WHERE digest = $1 AND status = $4
	`, digest, models.StatusRevoked, at, models.StatusUnused)
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke credential rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	switch err := s.classify(ctx, digest); {
	case errors.Is(err, sentinel.ErrRevoked):
		return nil
	default:
		return err
	}
}

// classify reads the current status after a conditional update missed,
// mapping it to the sentinel the caller lost to.
func (s *Postgres) classify(ctx context.Context, digest string) error {
	var status models.Status
	err := s.db.QueryRowContext(ctx, `SELECT status FROM credentials WHERE digest = $1`, digest).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check credential status: %w", err)
	}
	switch status {
	case models.StatusRedeemed:
		return sentinel.ErrAlreadyUsed
	case models.StatusRevoked:
		return sentinel.ErrRevoked
	default:
		// Raced back to UNUSED is impossible; transitions are one-way.
		return sentinel.ErrUnavailable
	}
}

// CountByElection tallies credential statuses for one election.
func (s *Postgres) CountByElection(ctx context.Context, electionID uuid.UUID) (Counts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM credentials WHERE election_id = $1
		GROUP BY status
	`, electionID)
	if err != nil {
		return Counts{}, fmt.Errorf("count credentials: %w", err)
	}
	defer rows.Close()

	var counts Counts
	for rows.Next() {
		var status models.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, fmt.Errorf("scan credential count: %w", err)
		}
		counts.Total += n
		switch status {
		case models.StatusUnused:
			counts.Unused = n
		case models.StatusRedeemed:
			counts.Redeemed = n
		case models.StatusRevoked:
			counts.Revoked = n
		}
	}
	if err := rows.Err(); err != nil {
		return Counts{}, fmt.Errorf("iterate credential counts: %w", err)
	}
	return counts, nil
}
