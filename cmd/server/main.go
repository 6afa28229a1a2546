package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	webAdapter "paper-trader/internal/adapters/web"
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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	catalog := core.DefaultCatalog()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; request parsing is unavailable and responses use the built-in template")
	}
	agent := ai.NewAgent(apiKey)

	var composer core.ResponseComposer = core.TemplateComposer{}
	if apiKey != "" {
		composer = agent
	}

	var store core.LedgerStore
	if os.Getenv("DATABASE_URL") != "" {
		pool, err := db.NewPool(ctx)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		store = core.NewLedger(pool)
	} else {
		mem := core.NewMemLedger()
		if err := core.Seed(ctx, mem, catalog, core.DefaultSeedOptions(core.DateOnly(time.Now()).AddDate(0, -3, 0))); err != nil {
			logger.Fatal("seed", zap.Error(err))
		}
		logger.Warn("DATABASE_URL not set; serving from a seeded in-memory ledger")
		store = mem
	}

	svc := app.NewAppService(store, catalog, agent, composer, core.Timeouts{}, logger)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	handler := webAdapter.NewHandler(svc, webAdapter.Config{
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:      jwtSecret,
		AdminKey:       os.Getenv("ADMIN_KEY"),
	}, logger)

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
