package fx

import (
	"context"
	"time"

	"github.com/legalize/backoffice/internal/logging"
	"github.com/shopspring/decimal"
)

const (
	DefaultTTL = 12 * time.Hour
	eurKey     = "EUR_PLN"
)

// DefaultFallback is used when NBP cannot be reached and nothing is cached.
var DefaultFallback = decimal.RequireFromString("4.3")

// Source fetches a live rate.
type Source interface {
	EURRate(ctx context.Context) (decimal.Decimal, error)
}

// Where a quote came from.
const (
	FromCache    = "cache"
	FromNBP      = "nbp"
	FromFallback = "fallback"
)

type Quote struct {
	Rate   decimal.Decimal `json:"rate"`
	Source string          `json:"source"`
}

// Provider answers from the cache, then NBP, then the fallback rate. It
// never fails; lookup errors are logged.
type Provider struct {
	source   Source
	cache    Cache
	ttl      time.Duration
	fallback decimal.Decimal
	log      logging.Logger
}

func NewProvider(source Source, cache Cache, ttl time.Duration, fallback decimal.Decimal, log logging.Logger) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if !fallback.IsPositive() {
		fallback = DefaultFallback
	}
	return &Provider{source: source, cache: cache, ttl: ttl, fallback: fallback, log: log.With("module", "fx")}
}

func (p *Provider) EURRate(ctx context.Context) Quote {
	if rate, ok, err := p.cache.Get(ctx, eurKey); err != nil {
		p.log.Warn(ctx, "fx cache read failed", "error", err)
	} else if ok {
		return Quote{Rate: rate, Source: FromCache}
	}

	rate, err := p.source.EURRate(ctx)
	if err != nil {
		p.log.Warn(ctx, "nbp rate unavailable, using fallback", "fallback", p.fallback.String(), "error", err)
		return Quote{Rate: p.fallback, Source: FromFallback}
	}
	if err := p.cache.Set(ctx, eurKey, rate, p.ttl); err != nil {
		p.log.Warn(ctx, "fx cache write failed", "error", err)
	}
	return Quote{Rate: rate, Source: FromNBP}
}
