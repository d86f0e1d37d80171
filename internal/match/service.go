package match

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

const defaultSlippageTolerance = 0.0015

const successResult = "tesSUCCESS"

// Result is the outcome of evaluating a stored transaction against the
// amount a quote asked for.
type Result struct {
	Verdict   enums.PaymentVerdict
	Delivered xrpl.Amount
	// Slippage is the underpayment fraction for native payments,
	// 1 - delivered/requested. Overpayment yields a negative value.
	Slippage decimal.Decimal
}

// Service locates ledger transactions for a quote and decides whether they
// settle it.
type Service interface {
	FindMatch(ctx context.Context, destination string, tag uint32) (*models.XrplTransaction, error)
	Evaluate(ctx context.Context, tx *models.XrplTransaction, requested xrpl.Amount) (Result, error)
}

type service struct {
	repo      Repository
	tolerance decimal.Decimal
	logg      *logger.Logger
}

// ServiceParams configure the payment matcher.
type ServiceParams struct {
	Repo Repository
	// SlippageTolerance is the fraction of underpayment still accepted on
	// native payments. Issued currencies never get tolerance.
	SlippageTolerance float64
	Logger            *logger.Logger
}

// NewService wires a payment matcher.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("match repository required")
	}
	tolerance := params.SlippageTolerance
	if tolerance <= 0 {
		tolerance = defaultSlippageTolerance
	}
	if tolerance >= 1 {
		return nil, fmt.Errorf("slippage tolerance %v out of range", tolerance)
	}
	return &service{
		repo:      params.Repo,
		tolerance: decimal.NewFromFloat(tolerance),
		logg:      params.Logger,
	}, nil
}

// FindMatch returns the transaction a quote's destination and tag point at,
// nil when the payer has not shown up on the ledger yet.
func (s *service) FindMatch(ctx context.Context, destination string, tag uint32) (*models.XrplTransaction, error) {
	if destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
	}
	tx, err := s.repo.FindByDestinationAndTag(ctx, destination, tag)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up transaction")
	}
	return tx, nil
}

// Evaluate decides whether the transaction settles a quote asking for the
// given amount. Only delivered_amount from the validated metadata counts;
// the Amount field a payer signed can exceed what actually moved.
func (s *service) Evaluate(ctx context.Context, tx *models.XrplTransaction, requested xrpl.Amount) (Result, error) {
	if tx == nil {
		return Result{Verdict: enums.PaymentVerdictNoMatch}, nil
	}
	if requested.IsZero() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "requested amount is required")
	}

	var meta xrpl.TxMeta
	if err := json.Unmarshal(tx.Meta, &meta); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding transaction metadata")
	}
	if meta.TransactionResult != successResult {
		return Result{Verdict: enums.PaymentVerdictNoMatch}, nil
	}

	delivered, err := xrpl.ParseDeliveredAmount(meta.DeliveredAmount)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "hash", tx.Hash), "transaction has no usable delivered amount")
		}
		return Result{Verdict: enums.PaymentVerdictNoMatch}, nil
	}

	switch requested.Kind {
	case xrpl.AmountKindNative:
		return s.evaluateNative(delivered, requested), nil
	case xrpl.AmountKindIssued:
		return s.evaluateIssued(delivered, requested), nil
	default:
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown amount kind %q", requested.Kind))
	}
}

// evaluateNative accepts underpayment strictly below the tolerance fraction.
// Exactly at the boundary is rejected, so the decision is deterministic on
// both sides of it.
func (s *service) evaluateNative(delivered, requested xrpl.Amount) Result {
	if delivered.Kind != xrpl.AmountKindNative {
		return Result{Verdict: enums.PaymentVerdictInsufficient, Delivered: delivered}
	}

	slippage := decimal.NewFromInt(1).Sub(delivered.Value.Div(requested.Value))
	verdict := enums.PaymentVerdictInsufficient
	if slippage.LessThan(s.tolerance) {
		verdict = enums.PaymentVerdictPaid
	}
	return Result{Verdict: verdict, Delivered: delivered, Slippage: slippage}
}

// evaluateIssued demands the exact value in the exact currency from the
// exact issuer. Stablecoins are denominated in the checkout currency, so
// there is no rate drift to tolerate.
func (s *service) evaluateIssued(delivered, requested xrpl.Amount) Result {
	result := Result{Verdict: enums.PaymentVerdictInsufficient, Delivered: delivered}
	if delivered.Kind != xrpl.AmountKindIssued {
		return result
	}
	if delivered.Currency != requested.Currency || delivered.Issuer != requested.Issuer {
		return result
	}
	if delivered.Value.Equal(requested.Value) {
		result.Verdict = enums.PaymentVerdictPaid
	}
	return result
}
