package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hardcastle/ledger-direct-backend/internal/ingest"
	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/internal/quotes"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
)

// paymentSyncBatchSize bounds how many open orders one cycle reconciles.
// Anything left over is picked up next cycle.
const paymentSyncBatchSize = 100

type pendingOrderLister interface {
	ListAwaitingPayment(ctx context.Context, limit int) ([]*models.Order, error)
}

type paymentChecker interface {
	GetQuote(ctx context.Context, orderID uuid.UUID) (*quotes.Quote, error)
	CheckPayment(ctx context.Context, orderID uuid.UUID) (*quotes.PaymentStatus, error)
}

type accountSyncer interface {
	SyncAccount(ctx context.Context, account string) (int, error)
}

// PaymentSyncJobParams configure the reconciliation job.
type PaymentSyncJobParams struct {
	Logger *logger.Logger
	Orders pendingOrderLister
	Quotes paymentChecker
	Ingest accountSyncer
	// DestinationAccount is the merchant account the job pre-syncs once per
	// cycle, so per-order checks mostly hit warm local storage.
	DestinationAccount string
}

// NewPaymentSyncJob builds the job that settles open orders against the
// ledger.
func NewPaymentSyncJob(params PaymentSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if params.Quotes == nil {
		return nil, fmt.Errorf("quote service required")
	}
	if params.Ingest == nil {
		return nil, fmt.Errorf("ingest service required")
	}
	return &paymentSyncJob{
		logg:        params.Logger,
		orders:      params.Orders,
		quotes:      params.Quotes,
		ingest:      params.Ingest,
		destination: params.DestinationAccount,
	}, nil
}

type paymentSyncJob struct {
	logg        *logger.Logger
	orders      pendingOrderLister
	quotes      paymentChecker
	ingest      accountSyncer
	destination string
}

func (j *paymentSyncJob) Name() string { return "payment-sync" }

func (j *paymentSyncJob) Run(ctx context.Context) error {
	if j.destination != "" {
		if _, err := j.ingest.SyncAccount(ctx, j.destination); err != nil {
			j.logg.Warn(j.logg.WithAccount(ctx, j.destination), "ledger pre-sync failed, continuing with stored transactions")
		}
	}

	pending, err := j.orders.ListAwaitingPayment(ctx, paymentSyncBatchSize)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}

	var (
		errs    []error
		settled int
	)
	for _, order := range pending {
		status, err := j.quotes.CheckPayment(ctx, order.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if status.Verdict == enums.PaymentVerdictPaid {
			settled++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked": len(pending),
		"settled": settled,
	})
	j.logg.Info(logCtx, "payment reconciliation loop complete")
	return multierr.Combine(errs...)
}

var _ pendingOrderLister = (orders.Service)(nil)
var _ accountSyncer = (ingest.Service)(nil)
