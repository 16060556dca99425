package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"voicehost/internal/infra"
	"voicehost/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag   string
		modelFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "Replicate API token (falls back to REPLICATE_API_TOKEN)")
	flag.StringVar(&modelFlag, "model", "", "Optional model version stored alongside the token")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "REPLICATE API token is required via -key or environment")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "providerkey").Str("provider", credentials.ProviderReplicate).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if err := store.SetReplicate(ctx, credentials.Credential{Token: key, Model: modelFlag}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist replicate api token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("REPLICATE API token stored successfully")
}
