package orders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
)

type memoryOrders struct {
	rows map[uuid.UUID]*models.Order
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{rows: map[uuid.UUID]*models.Order{}}
}

func (m *memoryOrders) Create(ctx context.Context, order *models.Order) error {
	copied := *order
	m.rows[order.ID] = &copied
	return nil
}

func (m *memoryOrders) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *memoryOrders) UpdatePaymentMeta(ctx context.Context, id uuid.UUID, meta json.RawMessage) error {
	if order, ok := m.rows[id]; ok {
		order.PaymentMeta = meta
	}
	return nil
}

func (m *memoryOrders) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	order, ok := m.rows[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	return true, nil
}

func (m *memoryOrders) ListPendingWithQuote(ctx context.Context, limit int) ([]*models.Order, error) {
	var pending []*models.Order
	for _, order := range m.rows {
		if order.Status == enums.OrderStatusPending && len(order.PaymentMeta) > 0 {
			copied := *order
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func newOrderService(t *testing.T) (Service, *memoryOrders) {
	t.Helper()
	repo := newMemoryOrders()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{TotalAmount: decimal.Zero, Currency: "USD"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	_, err = svc.Create(ctx, CreateParams{TotalAmount: decimal.NewFromInt(10)})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing currency, got %v", err)
	}
}

func TestCreateStartsPending(t *testing.T) {
	svc, _ := newOrderService(t)

	order, err := svc.Create(context.Background(), CreateParams{
		TotalAmount: decimal.RequireFromString("49.99"),
		Currency:    "EUR",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
}

func TestGetUnknownOrder(t *testing.T) {
	svc, _ := newOrderService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkPaidTransitions(t *testing.T) {
	svc, repo := newOrderService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateParams{
		TotalAmount: decimal.NewFromInt(10),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.MarkPaid(ctx, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rows[order.ID].Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed status")
	}

	// Paying twice is harmless.
	if err := svc.MarkPaid(ctx, order.ID); err != nil {
		t.Fatalf("expected idempotent completion, got %v", err)
	}
}

func TestMarkPaidRejectsCancelledOrder(t *testing.T) {
	svc, repo := newOrderService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateParams{
		TotalAmount: decimal.NewFromInt(10),
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.rows[order.ID].Status = enums.OrderStatusCancelled

	err = svc.MarkPaid(ctx, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
