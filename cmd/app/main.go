package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"paper-trader/internal/adapters/cli"
	"paper-trader/internal/adapters/repl"
	"paper-trader/internal/ai"
	"paper-trader/internal/app"
	"paper-trader/internal/core"
	"paper-trader/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	svc, cleanup := buildService(ctx, logger)
	defer cleanup()

	if len(os.Args) > 1 {
		cli.Run(ctx, svc, os.Args[1:])
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin))
}

// buildService wires the application service from the environment. With
// DATABASE_URL set it runs against Postgres; without it, a seeded in-memory
// ledger gives a self-contained demo session.
func buildService(ctx context.Context, logger *zap.Logger) (app.ApplicationService, func()) {
	catalog := core.DefaultCatalog()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set; request parsing is unavailable and responses use the built-in template")
	}
	agent := ai.NewAgent(apiKey)

	var composer core.ResponseComposer = core.TemplateComposer{}
	if apiKey != "" {
		composer = agent
	}

	var store core.LedgerStore
	cleanup := func() {}
	if os.Getenv("DATABASE_URL") != "" {
		pool, err := db.NewPool(ctx)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		store = core.NewLedger(pool)
		cleanup = pool.Close
	} else {
		mem := core.NewMemLedger()
		if err := core.Seed(ctx, mem, catalog, core.DefaultSeedOptions(core.DateOnly(time.Now()).AddDate(0, -3, 0))); err != nil {
			log.Fatalf("Unable to seed demo data: %v", err)
		}
		log.Println("DATABASE_URL not set; running against a seeded in-memory ledger")
		store = mem
	}

	svc := app.NewAppService(store, catalog, agent, composer, core.Timeouts{}, logger)
	return svc, cleanup
}
