// Command update_reminders runs one reminder sweep and prints its counts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/legalize/backoffice/internal/server"
	"github.com/legalize/backoffice/internal/server/config"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg := config.LoadConfig()
	logger, err := server.NewLogger(os.Stderr, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	comp, err := server.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer comp.Close()

	res, err := comp.Reminders.Sweep(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reminder sweep failed: %v\n", err)
		comp.Close()
		os.Exit(1)
	}
	fmt.Println(res.String())
}
