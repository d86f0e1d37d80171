package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
)

// Order is the local stand-in for the external order store: a fiat total, a
// currency, and a metadata blob holding the payment quote for the life of the
// order.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(20,8);not null"`
	Currency    string            `gorm:"column:currency;size:8;not null"`
	Status      enums.OrderStatus `gorm:"column:status;size:16;not null;default:'pending'"`
	PaymentMeta json.RawMessage   `gorm:"column:payment_meta;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements gorm's Tabler.
func (Order) TableName() string {
	return "orders"
}
