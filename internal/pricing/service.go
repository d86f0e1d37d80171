package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/oracle"
)

const (
	defaultAllowedDivergence = 0.05
	rateRoundPlaces          = 5
)

// pegCurrencies maps stablecoin codes to the fiat currency they are pegged
// to. Quoting a stablecoin against its peg needs no feed at all.
var pegCurrencies = map[string]string{
	"RLUSD": "USD",
	"USDC":  "USD",
}

// Service aggregates external price feeds into one consensus exchange rate.
type Service interface {
	ExchangeRate(ctx context.Context, baseCode, quoteCode string) (decimal.Decimal, error)
}

type service struct {
	feeds      []oracle.Oracle
	divergence float64
	logg       *logger.Logger
}

// ServiceParams configure the price aggregation service.
type ServiceParams struct {
	Feeds []oracle.Oracle
	// AllowedDivergence is the fractional deviation from the running mean
	// beyond which a feed's price is discarded as an outlier.
	AllowedDivergence float64
	Logger            *logger.Logger
}

// NewService builds the aggregator.
func NewService(params ServiceParams) (Service, error) {
	if len(params.Feeds) == 0 {
		return nil, fmt.Errorf("at least one price feed required")
	}
	divergence := params.AllowedDivergence
	if divergence <= 0 {
		divergence = defaultAllowedDivergence
	}
	return &service{
		feeds:      params.Feeds,
		divergence: divergence,
		logg:       params.Logger,
	}, nil
}

func (s *service) ExchangeRate(ctx context.Context, baseCode, quoteCode string) (decimal.Decimal, error) {
	if peg, ok := pegCurrencies[baseCode]; ok && peg == quoteCode {
		return decimal.NewFromInt(1), nil
	}

	prices, fetchErr := s.collectPrices(ctx, baseCode, quoteCode)
	if len(prices) == 0 {
		err := pkgerrors.Wrap(pkgerrors.CodeUnavailable, fetchErr,
			fmt.Sprintf("no usable price for %s/%s", baseCode, quoteCode))
		return decimal.Zero, err
	}

	plausible := trimOutliers(prices, s.divergence)
	if len(plausible) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeUnavailable,
			fmt.Sprintf("price feeds for %s/%s disagree beyond tolerance", baseCode, quoteCode))
	}

	rate := decimal.NewFromFloat(mean(plausible)).Round(rateRoundPlaces)
	return rate, nil
}

// collectPrices queries every feed, keeping usable (>0) prices and folding
// individual failures into one error for diagnostics. A failing feed never
// aborts the aggregate call.
func (s *service) collectPrices(ctx context.Context, baseCode, quoteCode string) ([]float64, error) {
	var (
		prices   []float64
		combined error
	)
	for _, feed := range s.feeds {
		price, err := feed.PairPrice(ctx, baseCode, quoteCode)
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", feed.Name(), err))
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "feed", feed.Name()), "price feed failed")
			}
			continue
		}
		if price <= 0 {
			combined = multierr.Append(combined, fmt.Errorf("%s: non-positive price %v", feed.Name(), price))
			continue
		}
		prices = append(prices, price)
	}
	return prices, combined
}

// trimOutliers keeps the prices whose deviation from the mean of all
// collected prices stays strictly under the allowed fraction of that mean.
// The filter runs once against the first mean: when the feeds mutually
// disagree nothing survives and the caller refuses to quote rather than
// trust any single feed.
func trimOutliers(prices []float64, divergence float64) []float64 {
	avg := mean(prices)
	retained := make([]float64, 0, len(prices))
	for _, price := range prices {
		if math.Abs(avg-price) < avg*divergence {
			retained = append(retained, price)
		}
	}
	return retained
}

func mean(values []float64) float64 {
	var sum float64
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}
