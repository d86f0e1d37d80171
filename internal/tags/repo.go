package tags

import (
	"context"

	"gorm.io/gorm"

	"github.com/hardcastle/ledger-direct-backend/internal/repo"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
)

// Repository persists destination-tag reservations.
type Repository interface {
	// Reserve inserts the reservation row. The primary key on the tag column
	// is the uniqueness guarantee; a duplicate tag surfaces as a
	// unique-violation error, never as silent success.
	Reserve(ctx context.Context, reservation *models.DestinationTag) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a tag repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Reserve(ctx context.Context, reservation *models.DestinationTag) error {
	return r.DB(ctx).Create(reservation).Error
}
