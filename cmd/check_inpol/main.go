// Command check_inpol signs in to the inPOL portal, compares the active
// proceedings with the stored snapshots and updates matching clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/flagx"
	"github.com/legalize/backoffice/internal/server"
	"github.com/legalize/backoffice/internal/server/config"
	"github.com/legalize/backoffice/internal/server/inpol"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(context.Background(), os.Stdout, os.Stderr))
}

func run(ctx context.Context, stdout, stderr io.Writer) int {
	var explicit inpol.Settings
	var silent bool

	fs := flag.NewFlagSet("check_inpol", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&explicit.Email, "email", "", "portal login e-mail")
	fs.StringVar(&explicit.Password, "password", "", "portal password")
	fs.StringVar(&explicit.BaseURL, "base-url", "", "portal base URL")
	fs.BoolVar(&silent, "silent", false, "print errors only")
	args := flagx.FilterArgs(os.Args[1:], []string{"-email", "--email", "-password", "--password",
		"-base-url", "--base-url", "-silent", "--silent"})
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if explicit.Email != "" && explicit.Password == "" && os.Getenv(inpol.EnvPassword) == "" &&
		term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(stderr, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "read password: %v\n", err)
			return 1
		}
		explicit.Password = string(pw)
	}

	cfg := config.LoadConfig()
	logger, err := server.NewLogger(stderr, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	comp, err := server.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer comp.Close()

	res, err := server.CheckInpol(ctx, comp, explicit)
	if err != nil {
		if errors.Is(err, common.ErrMissingCredentials) {
			fmt.Fprintf(stderr, "Missing inPOL credentials: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "inPOL check failed: %v\n", err)
		}
		return 1
	}
	if !silent {
		inpol.WriteReport(stdout, res)
	}
	return 0
}
