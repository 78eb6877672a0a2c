package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/basel-ax/dallegen/internal/config"
	"github.com/basel-ax/dallegen/internal/domain"
	"github.com/basel-ax/dallegen/internal/repository"
	"github.com/basel-ax/dallegen/internal/service"
	"github.com/basel-ax/dallegen/internal/ui"
)

const (
	exitOK    = 0
	exitError = 1
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating shutdown...", sig)
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	// Parse command line flags
	flags := flag.NewFlagSet("dallegen", flag.ContinueOnError)
	verbose := flags.Bool("verbose", false, "Enable verbose logging")
	prompt := flags.String("prompt", "", "Generate a single image for this prompt and exit")
	history := flags.Int("history", 0, "Print the N most recent generations and exit")
	if err := flags.Parse(args); err != nil {
		return exitError
	}

	// Configure logging
	if *verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("Verbose logging enabled")
	} else {
		log.SetFlags(log.Ldate | log.Ltime)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return exitError
	}

	// Load credentials; the first run only writes the template
	store := config.NewCredentialStore(cfg.CredentialsPath)
	creds, err := store.Load()
	if errors.Is(err, domain.ErrConfigMissing) {
		fmt.Fprintf(stdout, "API config file created at %s\n%s\n", store.Path(), config.SetupInstructions)
		return exitError
	}
	if err != nil {
		log.Printf("Failed to load credentials from %s: %v", store.Path(), err)
		return exitError
	}
	log.Println("Credentials loaded successfully")

	repo, closeRepo, err := openHistory(ctx, cfg)
	if err != nil {
		log.Printf("Failed to open generation history: %v", err)
		return exitError
	}
	defer closeRepo()

	if *history > 0 {
		return printHistory(ctx, repo, *history, stdout)
	}

	imgService := service.NewImageGenerationService(cfg, creds, repo)
	console := ui.NewConsole(stdin, stdout, imgService, nil)

	if *prompt != "" {
		if err := console.Submit(ctx, *prompt); err != nil {
			return exitError
		}
		return exitOK
	}

	fmt.Fprintln(stdout, "Enter a prompt and press Enter to generate an image (Ctrl+D to quit).")
	if err := console.Run(ctx); err != nil {
		log.Printf("Error reading prompts: %v", err)
		return exitError
	}

	log.Println("Shutting down gracefully...")
	return exitOK
}

// openHistory connects the history database when one is configured and starts
// the pruner. Without a database a no-op repository is returned. The returned
// closer stops the pruner before closing the database.
func openHistory(ctx context.Context, cfg *config.Config) (repository.GenerationRepository, func(), error) {
	if !cfg.HistoryEnabled() {
		return repository.NopGenerationRepository{}, func() {}, nil
	}

	// Initialize database connection
	log.Println("Initializing database connection...")
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to reach database: %w", err)
	}

	repo := repository.NewPostgresGenerationRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create schema: %w", err)
	}
	log.Println("Database connection established")

	pruner := service.NewHistoryPruner(repo, cfg.HistoryRetention, cfg.PruneSchedule)
	if err := pruner.Start(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	// The scheduler must be idle before the pool it writes to is closed
	closeHistory := func() {
		pruner.Stop()
		db.Close()
	}

	return repo, closeHistory, nil
}

func printHistory(ctx context.Context, repo repository.GenerationRepository, limit int, stdout io.Writer) int {
	generations, err := repo.ListRecent(ctx, limit)
	if err != nil {
		log.Printf("Error listing generations: %v", err)
		return exitError
	}
	if len(generations) == 0 {
		fmt.Fprintln(stdout, "No generations recorded.")
		return exitOK
	}

	for _, g := range generations {
		line := fmt.Sprintf("%s  %-7s  %s", g.CreatedAt.Format(time.RFC3339), g.Status, g.Prompt)
		switch g.Status {
		case domain.StatusDone:
			line += "  -> " + g.FilePath
		case domain.StatusFailed:
			line += "  (" + g.Error + ")"
		}
		fmt.Fprintln(stdout, line)
	}
	return exitOK
}
