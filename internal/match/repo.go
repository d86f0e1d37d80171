package match

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hardcastle/ledger-direct-backend/internal/repo"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
)

// Repository reads ingested ledger transactions for matching.
type Repository interface {
	// FindByDestinationAndTag returns the earliest stored transaction
	// addressed to the destination with the given tag, nil when none exists.
	FindByDestinationAndTag(ctx context.Context, destination string, tag uint32) (*models.XrplTransaction, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a matching repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindByDestinationAndTag(ctx context.Context, destination string, tag uint32) (*models.XrplTransaction, error) {
	var tx models.XrplTransaction
	err := r.DB(ctx).
		Where("destination = ? AND destination_tag = ?", destination, tag).
		Order("ledger_index ASC, id ASC").
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
