package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fintrack/internal/domain/transaction"
)

// likeEscaper neutralises LIKE wildcards; backslash is postgres' default escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type TransactionRepository struct {
	db Querier
}

func NewTransactionRepository(db Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `t.id, t.name, t.transaction_date, t.amount, t.account_id, t.obligation_id, t.notes, t.created_at, t.updated_at`

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions AS t (id, name, transaction_date, amount, account_id, obligation_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns

	t, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.Name, params.Date, params.Amount,
		params.AccountID, params.ObligationID, params.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return t, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// List builds its WHERE clause from the non-zero filter fields.
func (r *TransactionRepository) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	from := "transactions t"
	if filter.SourceID != "" {
		from += " JOIN obligations o ON o.id = t.obligation_id"
		where = append(where, "o.source_id = "+arg(filter.SourceID))
	}
	if filter.AccountID != "" {
		where = append(where, "t.account_id = "+arg(filter.AccountID))
	}
	if filter.ObligationID != "" {
		where = append(where, "t.obligation_id = "+arg(filter.ObligationID))
	}
	if filter.UnlinkedOnly {
		where = append(where, "t.obligation_id IS NULL")
	}
	if filter.NameContains != "" {
		where = append(where, "t.name ILIKE "+arg("%"+likeEscaper.Replace(filter.NameContains)+"%"))
	}
	if !filter.From.IsZero() {
		where = append(where, "t.transaction_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "t.transaction_date < "+arg(filter.To))
	}

	query := `SELECT ` + transactionColumns + ` FROM ` + from
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY t.transaction_date DESC, t.id`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) ListByObligationIDs(ctx context.Context, obligationIDs []string) ([]*transaction.Transaction, error) {
	if len(obligationIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		WHERE t.obligation_id = ANY($1)
		ORDER BY t.transaction_date, t.id
	`
	return r.query(ctx, query, pq.Array(obligationIDs))
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return transaction.ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) ClearObligationLinks(ctx context.Context, obligationIDs []string) (int64, error) {
	if len(obligationIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE transactions
		SET obligation_id = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE obligation_id = ANY($1)
	`
	result, err := r.db.ExecContext(ctx, query, pq.Array(obligationIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to clear obligation links: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var accountID, obligationID, notes sql.NullString

	err := row.Scan(
		&t.ID, &t.Name, &t.Date, &t.Amount,
		&accountID, &obligationID, &notes,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		t.AccountID = &accountID.String
	}
	if obligationID.Valid {
		t.ObligationID = &obligationID.String
	}
	if notes.Valid {
		t.Notes = &notes.String
	}

	return &t, nil
}
