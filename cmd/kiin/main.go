package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/basilkensington1-hash/kiin-content-sub002/cmd/kiin/cmd"
)

func main() {
	// .env is for local development; CI and cron set real env vars
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
