package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/kisscinema/booking-api/internal/app"
)

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := app.Run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
}
