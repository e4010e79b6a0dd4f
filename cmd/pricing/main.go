package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"pricing-service/internal/app"
)

func main() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		slog.Info(".env file not found, using process environment")
	}

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
