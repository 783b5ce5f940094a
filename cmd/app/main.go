package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"TopMover/internal/di"
	"TopMover/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	payload := flag.String("payload", "", "invocation payload JSON; empty runs the scheduled mode")
	serve := flag.Bool("serve", false, "run as a daemon (cron, HTTP, kafka consumer)")
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *serve {
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
		return
	}

	res, runErr := app.Invoke(context.Background(), []byte(*payload))
	if res != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	}
	if runErr != nil {
		log.Printf("run failed: %v", runErr)
		os.Exit(1)
	}
}
