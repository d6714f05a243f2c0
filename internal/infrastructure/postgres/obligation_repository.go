package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/period"
)

type ObligationRepository struct {
	db Querier
}

func NewObligationRepository(db Querier) *ObligationRepository {
	return &ObligationRepository{db: db}
}

const obligationColumns = `id, source_id, source_kind, period_year, period_month, expected_amount,
	amount_paid, date_paid, account_id, receipt_ref, status, created_at, updated_at`

// CreateBatch inserts all rows in one statement. Rows whose period already
// exists for the source are skipped by the unique constraint.
func (r *ObligationRepository) CreateBatch(ctx context.Context, params []obligation.CreateParams) (int, error) {
	if len(params) == 0 {
		return 0, nil
	}

	const cols = 6
	valueStrings := make([]string, 0, len(params))
	valueArgs := make([]any, 0, len(params)*cols)
	for i, p := range params {
		n := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))
		valueArgs = append(valueArgs, p.ID, p.SourceID, p.SourceKind, p.Period.Year, int(p.Period.Month), p.ExpectedAmount)
	}

	query := fmt.Sprintf(`
		INSERT INTO obligations (id, source_id, source_kind, period_year, period_month, expected_amount)
		VALUES %s
		ON CONFLICT (source_id, period_year, period_month) DO NOTHING`,
		strings.Join(valueStrings, ", "),
	)

	result, err := r.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", obligation.ErrDuplicateObligation, err)
		}
		return 0, fmt.Errorf("failed to insert obligations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

func (r *ObligationRepository) GetByID(ctx context.Context, id string) (*obligation.Obligation, error) {
	return r.getOne(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = $1`, id)
}

func (r *ObligationRepository) GetByIDForUpdate(ctx context.Context, id string) (*obligation.Obligation, error) {
	return r.getOne(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = $1 FOR UPDATE`, id)
}

func (r *ObligationRepository) GetBySourceAndPeriod(ctx context.Context, sourceID string, p period.Period) (*obligation.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE source_id = $1 AND period_year = $2 AND period_month = $3
	`
	return r.getOne(ctx, query, sourceID, p.Year, int(p.Month))
}

func (r *ObligationRepository) getOne(ctx context.Context, query string, args ...any) (*obligation.Obligation, error) {
	ob, err := scanObligation(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	return ob, nil
}

func (r *ObligationRepository) ListBySourceID(ctx context.Context, sourceID string) ([]*obligation.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE source_id = $1
		ORDER BY period_year, period_month
	`

	rows, err := r.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var obligations []*obligation.Obligation
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, ob)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obligations: %w", err)
	}

	return obligations, nil
}

func (r *ObligationRepository) UpdatePayment(ctx context.Context, id string, update obligation.PaymentUpdate) (*obligation.Obligation, error) {
	if !obligation.IsValidStatus(update.Status) {
		return nil, fmt.Errorf("%w: %q", obligation.ErrInvalidStatus, update.Status)
	}

	query := `
		UPDATE obligations
		SET amount_paid = $1,
		    date_paid = $2,
		    account_id = $3,
		    receipt_ref = $4,
		    status = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING ` + obligationColumns

	var datePaid sql.NullTime
	if update.DatePaid != nil {
		datePaid = sql.NullTime{Time: *update.DatePaid, Valid: true}
	}

	ob, err := scanObligation(r.db.QueryRowContext(
		ctx, query,
		update.AmountPaid, datePaid, update.AccountID, update.ReceiptRef, update.Status, id,
	))
	if err == sql.ErrNoRows {
		return nil, obligation.ErrObligationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update obligation: %w", err)
	}

	return ob, nil
}

func (r *ObligationRepository) DeleteBySourceID(ctx context.Context, sourceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM obligations WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete obligations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

func scanObligation(row rowScanner) (*obligation.Obligation, error) {
	var o obligation.Obligation
	var year, month int
	var datePaid sql.NullTime
	var accountID, receiptRef sql.NullString

	err := row.Scan(
		&o.ID, &o.SourceID, &o.SourceKind, &year, &month, &o.ExpectedAmount,
		&o.AmountPaid, &datePaid, &accountID, &receiptRef, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Period = period.Period{Year: year, Month: time.Month(month)}
	if datePaid.Valid {
		o.DatePaid = &datePaid.Time
	}
	if accountID.Valid {
		o.AccountID = &accountID.String
	}
	if receiptRef.Valid {
		o.ReceiptRef = &receiptRef.String
	}

	return &o, nil
}
