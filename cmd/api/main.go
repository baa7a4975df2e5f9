package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/eshaffer321/ticketsplit-backend/internal/cli"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/config"
)

func main() {
	flags, err := cli.ParseServeFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	// .env is a development convenience; production takes the real environment
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err == nil {
			fmt.Fprintln(os.Stderr, "loaded environment from .env")
		}
	}

	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
