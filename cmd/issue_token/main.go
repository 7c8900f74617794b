// Command issue_token prints a staff bearer token for the JSON API, signed
// with the configured API secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/legalize/backoffice/internal/flagx"
	"github.com/legalize/backoffice/internal/server/auth"
	"github.com/legalize/backoffice/internal/server/config"
)

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("issue_token", flag.ExitOnError)
	operator := fs.String("operator", "", "staff login recorded in the audit log")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-operator", "--operator", "-ttl", "--ttl"}))

	cfg := config.LoadConfig()
	if cfg.APISecret == "" {
		fmt.Fprintln(os.Stderr, "API_SECRET is not set")
		os.Exit(1)
	}
	if *operator == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		os.Exit(2)
	}
	tok, err := auth.GenerateToken(*operator, []byte(cfg.APISecret), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
