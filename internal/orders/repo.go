package orders

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hardcastle/ledger-direct-backend/internal/repo"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
)

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdatePaymentMeta(ctx context.Context, id uuid.UUID, meta json.RawMessage) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	ListPendingWithQuote(ctx context.Context, limit int) ([]*models.Order, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns an order repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdatePaymentMeta(ctx context.Context, id uuid.UUID, meta json.RawMessage) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_meta", meta).Error
}

// UpdateStatus transitions the order from one status to another and reports
// whether a row actually changed. The status guard in the WHERE clause makes
// concurrent transitions race-safe.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListPendingWithQuote(ctx context.Context, limit int) ([]*models.Order, error) {
	var pending []*models.Order
	query := r.DB(ctx).
		Where("status = ? AND payment_meta IS NOT NULL", enums.OrderStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}
