package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"gridfit/adapters/postgres"
	"gridfit/api"
	"gridfit/internal"
	"gridfit/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Database.Enabled {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required for the API server")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewRunRepository(db)
	if err := repo.Init(ctx); err != nil {
		logger.Error("failed to initialize schema: %v", err)
		os.Exit(1)
	}

	server := api.NewServer(repo, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("gridfit API listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
