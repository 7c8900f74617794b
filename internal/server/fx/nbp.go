// Package fx provides the EUR to PLN rate used by the bank-statement
// calculator: the NBP table A mid rate, cached, with a fixed fallback.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/shopspring/decimal"
)

const DefaultNBPURL = "http://api.nbp.pl/api/exchangerates/rates/a/eur/?format=json"

// NBPClient reads the current EUR mid rate from the National Bank of Poland.
type NBPClient struct {
	url  string
	http *http.Client
}

func NewNBPClient(url string, timeout time.Duration) *NBPClient {
	if url == "" {
		url = DefaultNBPURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NBPClient{url: url, http: &http.Client{Timeout: timeout}}
}

type nbpTable struct {
	Code  string `json:"code"`
	Rates []struct {
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

func (c *NBPClient) EURRate(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("nbp: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return decimal.Zero, fmt.Errorf("nbp: status %d", resp.StatusCode)
	}

	var t nbpTable
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return decimal.Zero, fmt.Errorf("nbp: decode: %w", err)
	}
	if len(t.Rates) == 0 || !t.Rates[0].Mid.IsPositive() {
		return decimal.Zero, fmt.Errorf("nbp: no rate: %w", common.ErrUnexpectedPayload)
	}
	return t.Rates[0].Mid, nil
}
