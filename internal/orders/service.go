package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/pagination"
)

// Service is the order store the payment engine reconciles against.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetPaymentMeta(ctx context.Context, id uuid.UUID, meta json.RawMessage) error
	// MarkPaid completes a pending order. Calling it on an already completed
	// order is a no-op; cancelled orders refuse the transition.
	MarkPaid(ctx context.Context, id uuid.UUID) error
	ListAwaitingPayment(ctx context.Context, limit int) ([]*models.Order, error)
}

// CreateParams describe a new order.
type CreateParams struct {
	TotalAmount decimal.Decimal
	Currency    string
}

type service struct {
	repo Repository
}

// NewService wires the order store.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Order, error) {
	if !params.TotalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	if params.Currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}

	order := &models.Order{
		ID:          uuid.New(),
		TotalAmount: params.TotalAmount,
		Currency:    params.Currency,
		Status:      enums.OrderStatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
	}
	return order, nil
}

func (s *service) SetPaymentMeta(ctx context.Context, id uuid.UUID, meta json.RawMessage) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdatePaymentMeta(ctx, id, meta); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment metadata")
	}
	return nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	switch order.Status {
	case enums.OrderStatusCompleted:
		return nil
	case enums.OrderStatusCancelled:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s is cancelled", id))
	}

	changed, err := s.repo.UpdateStatus(ctx, id, enums.OrderStatusPending, enums.OrderStatusCompleted)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing order")
	}
	if !changed {
		// Lost the race to another transition; re-read to decide whether
		// that transition was the one we wanted.
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %s moved to %s", id, current.Status))
		}
	}
	return nil
}

func (s *service) ListAwaitingPayment(ctx context.Context, limit int) ([]*models.Order, error) {
	pending, err := s.repo.ListPendingWithQuote(ctx, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing open orders")
	}
	return pending, nil
}
