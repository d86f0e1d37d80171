package ingest

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hardcastle/ledger-direct-backend/internal/repo"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
)

// Repository persists ingested ledger transactions.
type Repository interface {
	// MaxLedgerIndex returns the highest ledger index stored for the given
	// destination account, 0 when nothing has been ingested yet.
	MaxLedgerIndex(ctx context.Context, destination string) (uint32, error)

	// ExistingHashes reports which of the given transaction hashes are
	// already stored.
	ExistingHashes(ctx context.Context, hashes []string) (map[string]struct{}, error)

	// InsertBatch stores the transactions, silently skipping rows whose hash
	// is already present, and returns the number actually inserted.
	InsertBatch(ctx context.Context, transactions []*models.XrplTransaction) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a transaction repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) MaxLedgerIndex(ctx context.Context, destination string) (uint32, error) {
	var max uint32
	err := r.DB(ctx).
		Model(&models.XrplTransaction{}).
		Where("destination = ?", destination).
		Select("COALESCE(MAX(ledger_index), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *repository) ExistingHashes(ctx context.Context, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	var found []string
	err := r.DB(ctx).
		Model(&models.XrplTransaction{}).
		Where("hash IN ?", hashes).
		Pluck("hash", &found).Error
	if err != nil {
		return nil, err
	}
	for _, hash := range found {
		existing[hash] = struct{}{}
	}
	return existing, nil
}

func (r *repository) InsertBatch(ctx context.Context, transactions []*models.XrplTransaction) (int64, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	// Two sync passes can race past the ExistingHashes pre-filter; the
	// conflict clause lets the unique hash index settle it without failing
	// the batch.
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(&transactions)
	return res.RowsAffected, res.Error
}
