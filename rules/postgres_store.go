package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// unique_violation
const pqUniqueViolation = "23505"

// PostgresResultStore implements ResultStore backed by PostgreSQL
type PostgresResultStore struct {
	db *sql.DB
}

// NewPostgresResultStore creates a new PostgreSQL-backed ResultStore
func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

// Add inserts a new result into the database
func (s *PostgresResultStore) Add(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dog_results (id, reg_no, type, class, result, result_date, location, judge,
			cert, cacit, res_cert, res_cacit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.ID, r.RegNo, r.Type, string(r.Class), r.Result, r.Date, r.Location, r.Judge,
		r.Cert, r.Cacit, r.ResCert, r.ResCacit)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("result %s of %s: %w", r.ID, r.RegNo, ErrResultExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

// ListByDog returns the results of a dog ordered by date
func (s *PostgresResultStore) ListByDog(ctx context.Context, regNo string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reg_no, type, class, result, result_date, location, judge,
			cert, cacit, res_cert, res_cacit
		FROM dog_results
		WHERE reg_no = $1
		ORDER BY result_date ASC, created_at ASC
	`, regNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r     Result
			class string
		)
		if err := rows.Scan(&r.ID, &r.RegNo, &r.Type, &class, &r.Result, &r.Date, &r.Location, &r.Judge,
			&r.Cert, &r.Cacit, &r.ResCert, &r.ResCacit); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Class = Class(class)
		r.Official = true
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// Delete removes a result from the database
func (s *PostgresResultStore) Delete(ctx context.Context, regNo, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM dog_results
		WHERE reg_no = $1 AND id = $2
	`, regNo, id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("result %s of %s: %w", id, regNo, ErrResultNotFound)
	}

	return nil
}
