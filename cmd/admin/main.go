package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fintrack/internal/domain/payment"
	"fintrack/internal/infrastructure/postgres"
	"fintrack/internal/shared/config"
)

const usage = `fintrack Admin CLI - Maintenance commands for the payment engine

Usage:
  admin <command> [options]

Commands:
  generate    Retry schedule generation for sources (existing periods are kept)
  reconcile   Repair obligation payment columns from linked transactions

Examples:
  # Generate the schedule for one source
  admin generate --source-id=3f0c...

  # Generate for several sources
  admin generate --source-id=a1,b2,c3

  # Reconcile a single source
  admin reconcile --source-id=3f0c...

  # Reconcile every source with 8 workers and a timeout
  admin reconcile --all --workers=8 --timeout=1h
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "generate":
		runGenerate(os.Args[2:])
	case "reconcile":
		runReconcile(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)

	sourceIDStr := fs.String("source-id", "", "Source ID(s) to generate (comma-separated for multiple)")
	timeoutStr := fs.String("timeout", "5m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin generate [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	sourceIDs := parseIDs(*sourceIDStr)
	if len(sourceIDs) == 0 {
		fmt.Println("Error: must specify --source-id")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	db, engine := connect()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	failed := 0
	for _, id := range sourceIDs {
		inserted, err := engine.GenerateObligations(ctx, id)
		if err != nil {
			failed++
			fmt.Printf("  %s: error: %v\n", id, err)
			continue
		}
		fmt.Printf("  %s: %d obligation(s) inserted\n", id, inserted)
	}

	if failed > 0 {
		log.Fatalf("Generation failed for %d of %d source(s)", failed, len(sourceIDs))
	}
}

func runReconcile(args []string) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)

	sourceIDStr := fs.String("source-id", "", "Source ID(s) to reconcile (comma-separated for multiple)")
	allSources := fs.Bool("all", false, "Reconcile every source")
	workers := fs.Int("workers", 0, "Number of concurrent workers (default ENGINE_RECONCILE_WORKERS)")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin reconcile [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin reconcile --source-id=a1")
		fmt.Println("  admin reconcile --all --workers=8 --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	sourceIDs := parseIDs(*sourceIDStr)
	if len(sourceIDs) == 0 && !*allSources {
		fmt.Println("Error: must specify --source-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	cfg, db, engine := connectWithConfig()
	defer db.Close()

	workerCount := *workers
	if workerCount <= 0 {
		workerCount = cfg.Engine.ReconcileWorkers
	}
	reconciler := payment.NewReconciler(engine, workerCount)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startTime := time.Now()

	if *allSources {
		log.Printf("Starting reconciliation of all sources with %d workers", workerCount)
		result, err := reconciler.ReconcileAll(ctx)
		if err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		printResult("all sources", result)
	} else {
		for _, id := range sourceIDs {
			result, err := reconciler.ReconcileSource(ctx, id)
			if err != nil {
				fmt.Printf("\n=== Source %s ===\n  error: %v\n", id, err)
				continue
			}
			printResult("Source "+id, result)
		}
	}

	log.Printf("Reconciliation completed in %v", time.Since(startTime))
}

func printResult(label string, result *payment.ReconcileResult) {
	fmt.Printf("\n=== %s ===\n", label)
	fmt.Printf("  Sources checked:      %d\n", result.SourcesChecked)
	fmt.Printf("  Obligations checked:  %d\n", result.ObligationsChecked)
	fmt.Printf("  Obligations repaired: %d\n", result.Repaired)

	if len(result.Errors) > 0 {
		fmt.Printf("  Errors:               %d\n", len(result.Errors))
		for i, e := range result.Errors {
			if i >= 5 {
				fmt.Printf("    ... and %d more errors\n", len(result.Errors)-5)
				break
			}
			fmt.Printf("    - %s\n", e)
		}
	}
}

func parseIDs(s string) []string {
	var ids []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func connect() (*postgres.DB, *payment.Service) {
	_, db, engine := connectWithConfig()
	return db, engine
}

func connectWithConfig() (*config.Config, *postgres.DB, *payment.Service) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	var tx payment.Transactor
	if cfg.Engine.AtomicPayments {
		tx = postgres.NewTransactor(db)
	}
	engine := payment.NewService(postgres.NewRepos(db), tx, payment.Options{
		FuzzyMatch: cfg.Engine.FuzzyMatch,
		// the reconcile command repairs explicitly; plain reads stay read-only
		ReconcileOnRead: false,
	})

	return cfg, db, engine
}
