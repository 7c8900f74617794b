// Command normalize_documents clears custom requirement names that only
// repeat the default label of a standard document type.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/legalize/backoffice/internal/flagx"
	"github.com/legalize/backoffice/internal/server"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/config"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	fs := flag.NewFlagSet("normalize_documents", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report without writing")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-dry-run", "--dry-run"}))

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

	res, err := catalog.ClearRedundantNames(ctx, comp.Repos.Requirements(comp.DB), *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "normalize failed: %v\n", err)
		comp.Close()
		os.Exit(1)
	}
	fmt.Println(res.String())
}
