package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/legalize/backoffice/internal/server"
	"github.com/legalize/backoffice/internal/server/config"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
