package postgres

import (
	"context"
	"fmt"
	"log"

	"fintrack/internal/domain/payment"
)

// NewRepos binds the three engine repositories to q.
func NewRepos(q Querier) payment.Repos {
	return payment.Repos{
		Sources:      NewSourceRepository(q),
		Obligations:  NewObligationRepository(q),
		Transactions: NewTransactionRepository(q),
	}
}

// Transactor runs engine work inside one postgres transaction.
type Transactor struct {
	db *DB
}

func NewTransactor(db *DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx commits when fn succeeds and rolls back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, r payment.Repos) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx, NewRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("Failed to roll back transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
