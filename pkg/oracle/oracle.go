// Package oracle contains thin clients for external price-feed services.
// Each feed fails independently; aggregation and outlier rejection live in
// internal/pricing.
package oracle

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Oracle returns the current price for a currency pair from one feed.
type Oracle interface {
	Name() string
	PairPrice(ctx context.Context, baseCode, quoteCode string) (float64, error)
}

// ErrPairNotListed signals the feed does not serve the requested pair.
type ErrPairNotListed struct {
	Feed  string
	Base  string
	Quote string
}

func (e ErrPairNotListed) Error() string {
	return fmt.Sprintf("%s does not list %s/%s", e.Feed, e.Base, e.Quote)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
