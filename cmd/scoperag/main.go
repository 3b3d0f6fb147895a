package main

import (
	"github.com/joho/godotenv"
	"scoperag/internal/cli"
)

func main() {
	// Best effort: embedding API keys are commonly kept in a local .env.
	_ = godotenv.Load()

	cli.Execute()
}
