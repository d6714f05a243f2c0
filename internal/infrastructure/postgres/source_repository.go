package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
)

type SourceRepository struct {
	db Querier
}

func NewSourceRepository(db Querier) *SourceRepository {
	return &SourceRepository{db: db}
}

const sourceColumns = `id, name, kind, start_year, start_month, term_length, expected_amount, account_id, created_at, updated_at`

func (r *SourceRepository) Create(ctx context.Context, params source.CreateParams) (*source.Source, error) {
	query := `
		INSERT INTO sources (id, name, kind, start_year, start_month, term_length, expected_amount, account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + sourceColumns

	var startYear, startMonth sql.NullInt32
	if params.StartPeriod != nil {
		startYear = sql.NullInt32{Int32: int32(params.StartPeriod.Year), Valid: true}
		startMonth = sql.NullInt32{Int32: int32(params.StartPeriod.Month), Valid: true}
	}
	var termLength sql.NullInt32
	if params.TermLength != nil {
		termLength = sql.NullInt32{Int32: int32(*params.TermLength), Valid: true}
	}

	src, err := scanSource(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.Name, params.Kind, startYear, startMonth, termLength,
		params.ExpectedAmount, params.AccountID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	return src, nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*source.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`

	src, err := scanSource(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return src, nil
}

func (r *SourceRepository) List(ctx context.Context, limit, offset int) ([]*source.Source, error) {
	query := `
		SELECT ` + sourceColumns + `
		FROM sources
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*source.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return source.ErrSourceNotFound
	}

	return nil
}

// rowScanner is implemented by *sql.Rows and *tracedRow.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*source.Source, error) {
	var s source.Source
	var startYear, startMonth, termLength sql.NullInt32
	var accountID sql.NullString

	err := row.Scan(
		&s.ID, &s.Name, &s.Kind, &startYear, &startMonth, &termLength,
		&s.ExpectedAmount, &accountID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startYear.Valid && startMonth.Valid {
		s.StartPeriod = &period.Period{Year: int(startYear.Int32), Month: time.Month(startMonth.Int32)}
	}
	if termLength.Valid {
		n := int(termLength.Int32)
		s.TermLength = &n
	}
	if accountID.Valid {
		s.AccountID = &accountID.String
	}

	return &s, nil
}
