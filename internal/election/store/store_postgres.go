package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"votilio/internal/election/models"
	"votilio/internal/platform/postgres"
	"votilio/pkg/platform/sentinel"
)

// Postgres is the durable election store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed election store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create stores an election with its positions and candidates in one tx.
func (s *Postgres) Create(ctx context.Context, election *models.Election) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create election tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var slug any
	if election.ResultsSlug != "" {
		slug = strings.ToLower(election.ResultsSlug)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO elections (id, name, description, start_time, end_time, active, results_published, results_slug, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, election.ID, election.Name, election.Description, election.StartTime, election.EndTime,
		election.Active, election.ResultsPublished, slug, election.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert election: %w", err)
	}

	for _, p := range election.Positions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions (id, election_id, name, description, required, order_index)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, election.ID, p.Name, p.Description, p.Required, p.OrderIndex)
		if err != nil {
			return fmt.Errorf("insert position: %w", err)
		}
		for _, c := range p.Candidates {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO candidates (id, position_id, name, description, order_index)
				VALUES ($1, $2, $3, $4, $5)
			`, c.ID, p.ID, c.Name, c.Description, c.OrderIndex)
			if err != nil {
				return fmt.Errorf("insert candidate: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create election tx: %w", err)
	}
	return nil
}

// Get returns the full election snapshot.
func (s *Postgres) Get(ctx context.Context, electionID uuid.UUID) (*models.Election, error) {
	return s.get(ctx, `WHERE id = $1`, electionID)
}

// GetBySlug returns the election owning a public results slug.
func (s *Postgres) GetBySlug(ctx context.Context, slug string) (*models.Election, error) {
	return s.get(ctx, `WHERE results_slug = $1`, strings.ToLower(slug))
}

func (s *Postgres) get(ctx context.Context, where string, arg any) (*models.Election, error) {
	var e models.Election
	var slug sql.NullString
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, start_time, end_time, active, results_published, results_slug, created_at
		FROM elections `+where, arg)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartTime, &e.EndTime,
		&e.Active, &e.ResultsPublished, &slug, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select election: %w", err)
	}
	e.ResultsSlug = slug.String

	if err := s.loadPositions(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Postgres) loadPositions(ctx context.Context, e *models.Election) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, required, order_index
		FROM positions WHERE election_id = $1 ORDER BY order_index
	`, e.ID)
	if err != nil {
		return fmt.Errorf("select positions: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var p models.Position
		p.ElectionID = e.ID
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Required, &p.OrderIndex); err != nil {
			return fmt.Errorf("scan position: %w", err)
		}
		byID[p.ID] = len(e.Positions)
		e.Positions = append(e.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate positions: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.position_id, c.name, c.description, c.order_index
		FROM candidates c
		JOIN positions p ON p.id = c.position_id
		WHERE p.election_id = $1
		ORDER BY c.order_index
	`, e.ID)
	if err != nil {
		return fmt.Errorf("select candidates: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var c models.Candidate
		if err := crows.Scan(&c.ID, &c.PositionID, &c.Name, &c.Description, &c.OrderIndex); err != nil {
			return fmt.Errorf("scan candidate: %w", err)
		}
		if idx, ok := byID[c.PositionID]; ok {
			e.Positions[idx].Candidates = append(e.Positions[idx].Candidates, c)
		}
	}
	return crows.Err()
}

// List returns all elections with their configuration.
func (s *Postgres) List(ctx context.Context) ([]*models.Election, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM elections ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select elections: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan election id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elections: %w", err)
	}

	out := make([]*models.Election, 0, len(ids))
	for _, id := range ids {
		e, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Publish flips the one-way results flag. Conditional update keeps the flag
// one-way even under concurrent publish calls.
func (s *Postgres) Publish(ctx context.Context, electionID uuid.UUID, slug string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE elections
		SET results_published = TRUE, results_slug = $2
		WHERE id = $1 AND results_published = FALSE
	`, electionID, strings.ToLower(slug))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("publish election: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish election rows affected: %w", err)
	}
	if affected == 0 {
		// Either missing or already published; distinguish for the caller.
		var published bool
		err := s.db.QueryRowContext(ctx, `SELECT results_published FROM elections WHERE id = $1`, electionID).Scan(&published)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check election publish state: %w", err)
		}
	}
	return nil
}
