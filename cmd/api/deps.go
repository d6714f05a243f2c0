package main

import (
	"log"

	"fintrack/internal/domain/payment"
	"fintrack/internal/infrastructure/postgres"
	httphandlers "fintrack/internal/interfaces/http"
	"fintrack/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	Engine *payment.Service

	// Handlers
	SourceHandler      *httphandlers.SourceHandler
	PaymentHandler     *httphandlers.PaymentHandler
	TransactionHandler *httphandlers.TransactionHandler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	engine := NewEngine(db, cfg.Engine)

	return &Dependencies{
		DB:                 db,
		Engine:             engine,
		SourceHandler:      httphandlers.NewSourceHandler(engine),
		PaymentHandler:     httphandlers.NewPaymentHandler(engine),
		TransactionHandler: httphandlers.NewTransactionHandler(engine),
	}, nil
}

// NewEngine builds the payment engine over db. Without atomic payments the
// write pairs run as two independent statements.
func NewEngine(db *postgres.DB, cfg config.EngineConfig) *payment.Service {
	var tx payment.Transactor
	if cfg.AtomicPayments {
		tx = postgres.NewTransactor(db)
	}

	log.Printf("Payment engine: atomic=%t fuzzy=%t reconcileOnRead=%t",
		cfg.AtomicPayments, cfg.FuzzyMatch, cfg.ReconcileOnRead)

	return payment.NewService(postgres.NewRepos(db), tx, payment.Options{
		FuzzyMatch:      cfg.FuzzyMatch,
		ReconcileOnRead: cfg.ReconcileOnRead,
	})
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
