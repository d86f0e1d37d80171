package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/internal/ingest"
	"github.com/hardcastle/ledger-direct-backend/internal/match"
	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/internal/pricing"
	"github.com/hardcastle/ledger-direct-backend/internal/tags"
	"github.com/hardcastle/ledger-direct-backend/pkg/config"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

const chainName = "XRPL"

// amountPlaces bounds the requested amount to drops resolution so the payer
// can enter it exactly.
const amountPlaces = 6

// PaymentStatus is the result of checking an order's quote against the
// ledger.
type PaymentStatus struct {
	Verdict enums.PaymentVerdict
	Expired bool
	Quote   *Quote
}

// Service manages the payment quote attached to an order and drives its
// reconciliation.
type Service interface {
	// CreateQuote strikes (or reuses) a quote for the order in the given
	// asset.
	CreateQuote(ctx context.Context, orderID uuid.UUID, paymentType enums.PaymentType) (*Quote, error)

	// GetQuote returns the quote stored on the order.
	GetQuote(ctx context.Context, orderID uuid.UUID) (*Quote, error)

	// CheckPayment syncs the ledger, looks for a transaction settling the
	// order's quote, and completes the order when one is found.
	CheckPayment(ctx context.Context, orderID uuid.UUID) (*PaymentStatus, error)
}

type service struct {
	orders  orders.Service
	pricing pricing.Service
	tags    tags.Service
	ingest  ingest.Service
	match   match.Service
	cfg     config.XRPLConfig
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams configure the quote manager.
type ServiceParams struct {
	Orders  orders.Service
	Pricing pricing.Service
	Tags    tags.Service
	Ingest  ingest.Service
	Match   match.Service
	XRPL    config.XRPLConfig
	Logger  *logger.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewService wires the quote manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if params.Tags == nil {
		return nil, fmt.Errorf("tag service required")
	}
	if params.Ingest == nil {
		return nil, fmt.Errorf("ingest service required")
	}
	if params.Match == nil {
		return nil, fmt.Errorf("match service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:  params.Orders,
		pricing: params.Pricing,
		tags:    params.Tags,
		ingest:  params.Ingest,
		match:   params.Match,
		cfg:     params.XRPL,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) CreateQuote(ctx context.Context, orderID uuid.UUID, paymentType enums.PaymentType) (*Quote, error) {
	if !paymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment type %q", paymentType))
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s is %s", orderID, order.Status))
	}

	if !s.cfg.AssetEnabled(paymentType) {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration,
			fmt.Sprintf("payment type %s is not enabled", paymentType))
	}
	destination := s.cfg.DestinationAccount()
	if destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration,
			fmt.Sprintf("no destination account configured for %s", s.cfg.Network))
	}

	existing := s.decodeQuote(ctx, order)
	if existing != nil && existing.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s is already paid", orderID))
	}
	now := s.now()
	if existing != nil && existing.Type == paymentType && !existing.IsExpired(now) {
		return existing, nil
	}

	// A new rate gets struck, but the order keeps its destination tag: the
	// payer may have copied it already.
	var tag uint32
	if existing != nil {
		tag = existing.DestinationTag
	} else {
		tag, err = s.tags.Allocate(ctx, destination)
		if err != nil {
			return nil, err
		}
	}

	amount, rate, pairing, err := s.priceOrder(ctx, order, paymentType)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Chain:              chainName,
		Network:            s.cfg.Network,
		Version:            quoteVersion,
		Type:               paymentType,
		DestinationAccount: destination,
		DestinationTag:     tag,
		Pairing:            pairing,
		ExchangeRate:       rate,
		AmountRequested:    amount,
		ExpiresAt:          now.Add(s.cfg.QuoteExpiry()),
		PageTitle:          s.cfg.PaymentPageTitle,
	}
	if err := s.storeQuote(ctx, orderID, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) GetQuote(ctx context.Context, orderID uuid.UUID) (*Quote, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	quote := s.decodeQuote(ctx, order)
	if quote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("order %s has no payment quote", orderID))
	}
	return quote, nil
}

func (s *service) CheckPayment(ctx context.Context, orderID uuid.UUID) (*PaymentStatus, error) {
	quote, err := s.GetQuote(ctx, orderID)
	if err != nil {
		return nil, err
	}

	status := &PaymentStatus{
		Quote:   quote,
		Expired: quote.IsExpired(s.now()),
	}
	if quote.IsSettled() {
		status.Verdict = enums.PaymentVerdictPaid
		return status, nil
	}

	// A sync failure is not fatal: matching still runs against what earlier
	// passes ingested.
	if _, err := s.ingest.SyncAccount(ctx, quote.DestinationAccount); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "ledger sync failed, matching against stored transactions")
		}
	}

	tx, err := s.match.FindMatch(ctx, quote.DestinationAccount, quote.DestinationTag)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		status.Verdict = enums.PaymentVerdictNoMatch
		return status, nil
	}

	result, err := s.match.Evaluate(ctx, tx, quote.AmountRequested)
	if err != nil {
		return nil, err
	}
	status.Verdict = result.Verdict
	if result.Verdict != enums.PaymentVerdictPaid {
		return status, nil
	}

	if err := s.settle(ctx, orderID, quote, tx, result); err != nil {
		return nil, err
	}
	return status, nil
}

// settle pins the settling transaction onto the quote and completes the
// order. The quote is persisted first so the transaction reference survives
// even if the status transition races.
func (s *service) settle(ctx context.Context, orderID uuid.UUID, quote *Quote, tx *models.XrplTransaction, result match.Result) error {
	delivered := result.Delivered
	quote.Hash = tx.Hash
	quote.CTID = tx.CTID
	quote.DeliveredAmount = &delivered

	if err := s.storeQuote(ctx, orderID, quote); err != nil {
		return err
	}
	return s.orders.MarkPaid(ctx, orderID)
}

func (s *service) priceOrder(ctx context.Context, order *models.Order, paymentType enums.PaymentType) (xrpl.Amount, decimal.Decimal, string, error) {
	base := s.baseCode(paymentType)
	pairing := fmt.Sprintf("%s/%s", base, order.Currency)

	rate, err := s.pricing.ExchangeRate(ctx, base, order.Currency)
	if err != nil {
		return xrpl.Amount{}, decimal.Zero, "", err
	}
	if !rate.IsPositive() {
		return xrpl.Amount{}, decimal.Zero, "", pkgerrors.New(pkgerrors.CodeUnavailable,
			fmt.Sprintf("non-positive rate for %s", pairing))
	}

	value := order.TotalAmount.Div(rate).Round(amountPlaces)

	var amount xrpl.Amount
	if paymentType.IsIssued() {
		issuer := s.cfg.IssuerFor(paymentType)
		if issuer == "" {
			return xrpl.Amount{}, decimal.Zero, "", pkgerrors.New(pkgerrors.CodeConfiguration,
				fmt.Sprintf("no issuer configured for %s on %s", paymentType, s.cfg.Network))
		}
		amount = xrpl.NewIssuedAmount(base, issuer, value)
	} else {
		amount = xrpl.NewNativeAmount(value)
	}
	return amount, rate, pairing, nil
}

// baseCode maps a payment type to the currency code quoted against the order
// currency.
func (s *service) baseCode(paymentType enums.PaymentType) string {
	switch paymentType {
	case enums.PaymentTypeRLUSD:
		return "RLUSD"
	case enums.PaymentTypeUSDC:
		return "USDC"
	case enums.PaymentTypeToken:
		return s.cfg.TokenCurrency
	default:
		return "XRP"
	}
}

func (s *service) decodeQuote(ctx context.Context, order *models.Order) *Quote {
	if order == nil || len(order.PaymentMeta) == 0 {
		return nil
	}
	var quote Quote
	if err := json.Unmarshal(order.PaymentMeta, &quote); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "discarding unreadable payment metadata")
		}
		return nil
	}
	if quote.Chain != chainName {
		return nil
	}
	return &quote
}

func (s *service) storeQuote(ctx context.Context, orderID uuid.UUID, quote *Quote) error {
	meta, err := json.Marshal(quote)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding payment quote")
	}
	return s.orders.SetPaymentMeta(ctx, orderID, meta)
}
