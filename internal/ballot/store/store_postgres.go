package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"votilio/internal/ballot/models"
	"votilio/internal/platform/postgres"
	"votilio/pkg/platform/sentinel"
)

// Postgres is the durable ballot store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed ballot store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Insert stores one accepted ballot with its selections in one tx.
func (s *Postgres) Insert(ctx context.Context, ballot *models.Ballot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert ballot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballots (id, election_id, cast_at)
		VALUES ($1, $2, $3)
	`, ballot.ID, ballot.ElectionID, ballot.CastAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert ballot: %w", err)
	}

	for _, sel := range ballot.Selections {
		var candidateID any
		if !sel.Abstain {
			candidateID = sel.CandidateID
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot_selections (ballot_id, position_id, candidate_id, abstain)
			VALUES ($1, $2, $3, $4)
		`, ballot.ID, sel.PositionID, candidateID, sel.Abstain)
		if err != nil {
			return fmt.Errorf("insert ballot selection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert ballot tx: %w", err)
	}
	return nil
}

// CountByElection returns how many ballots an election holds.
func (s *Postgres) CountByElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ballots WHERE election_id = $1
	`, electionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count ballots: %w", err)
	}
	return total, nil
}

// CountAll aggregates every selection for an election. Both the ballot
// total and the per-row counts come from one statement so the snapshot
// stays consistent under concurrent casts.
func (s *Postgres) CountAll(ctx context.Context, electionID uuid.UUID) (int, []Count, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bs.position_id, bs.candidate_id, bs.abstain, COUNT(*),
		       (SELECT COUNT(*) FROM ballots WHERE election_id = $1)
		FROM ballot_selections bs
		JOIN ballots b ON b.id = bs.ballot_id
		WHERE b.election_id = $1
		GROUP BY bs.position_id, bs.candidate_id, bs.abstain
	`, electionID)
	if err != nil {
		return 0, nil, fmt.Errorf("count selections: %w", err)
	}
	defer rows.Close()

	ballots := 0
	var counts []Count
	for rows.Next() {
		var c Count
		var candidateID uuid.NullUUID
		if err := rows.Scan(&c.PositionID, &candidateID, &c.Abstain, &c.Votes, &ballots); err != nil {
			return 0, nil, fmt.Errorf("scan selection count: %w", err)
		}
		if candidateID.Valid {
			c.CandidateID = candidateID.UUID
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate selection counts: %w", err)
	}
	if ballots == 0 {
		// No selections grouped; the subquery never ran, so count directly.
		total, err := s.CountByElection(ctx, electionID)
		if err != nil {
			return 0, nil, err
		}
		ballots = total
	}
	return ballots, counts, nil
}
