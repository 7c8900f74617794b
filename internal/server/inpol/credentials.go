package inpol

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/inpolaccounts"
)

// Environment variables consulted after explicit values.
const (
	EnvEmail    = "INPOL_EMAIL"
	EnvPassword = "INPOL_PASSWORD"
	EnvBaseURL  = "INPOL_BASE_URL"
)

// Settings is a partially filled portal configuration.
type Settings struct {
	Email    string
	Password string
	BaseURL  string
}

func (s Settings) complete() bool {
	return s.Email != "" && s.Password != "" && s.BaseURL != ""
}

// ResolvedConfig is a usable portal configuration. Account is set when the
// stored account filled at least one value.
type ResolvedConfig struct {
	Credentials Credentials
	BaseURL     string
	Account     *models.InpolAccount
}

// Getenv reads an environment variable; os.Getenv by default.
var Getenv = os.Getenv

// ResolveConfig fills each value from the first source that has it:
// explicit, then environment, then the newest active stored account.
func ResolveConfig(ctx context.Context, explicit Settings, accounts inpolaccounts.Repository) (*ResolvedConfig, error) {
	s := explicit
	fill(&s.Email, Getenv(EnvEmail))
	fill(&s.Password, Getenv(EnvPassword))
	fill(&s.BaseURL, Getenv(EnvBaseURL))

	var account *models.InpolAccount
	if !s.complete() && accounts != nil {
		a, err := accounts.Active(ctx)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return nil, fmt.Errorf("load inpol account: %w", err)
		default:
			account = a
			fill(&s.Email, a.Email)
			fill(&s.Password, a.Password)
			fill(&s.BaseURL, a.BaseURL)
		}
	}
	if !s.complete() {
		return nil, fmt.Errorf("set an active account or %s, %s and %s: %w",
			EnvEmail, EnvPassword, EnvBaseURL, common.ErrMissingCredentials)
	}
	return &ResolvedConfig{
		Credentials: Credentials{Email: s.Email, Password: s.Password},
		BaseURL:     s.BaseURL,
		Account:     account,
	}, nil
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
