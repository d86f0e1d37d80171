package tags

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/hardcastle/ledger-direct-backend/pkg/db"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
)

// Destination tags below 10000 are left to manual/legacy use; the upper bound
// stays clear of the uint32 ceiling some wallets mishandle.
const (
	TagRangeMin uint32 = 10_000
	TagRangeMax uint32 = 2_140_000_000
)

// maxAllocateAttempts caps collision retries. The range holds >2 billion
// values, so hitting this bound means something is broken, not unlucky.
const maxAllocateAttempts = 256

// Service allocates collision-free destination tags for merchant accounts.
type Service interface {
	Allocate(ctx context.Context, account string) (uint32, error)
}

type service struct {
	repo Repository
}

// NewService wires a tag allocator with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tag repository required")
	}
	return &service{repo: repo}, nil
}

// Allocate draws random tags until one inserts cleanly. Uniqueness is
// enforced by the reservation table's primary key, so two concurrent callers
// drawing the same tag resolve at the database: one wins, the other redraws.
func (s *service) Allocate(ctx context.Context, account string) (uint32, error) {
	if account == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "account is required")
	}

	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		tag, err := randomTag()
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drawing destination tag")
		}

		reservation := &models.DestinationTag{Tag: tag, Account: account}
		err = s.repo.Reserve(ctx, reservation)
		if err == nil {
			return tag, nil
		}
		if db.IsUniqueViolation(err, "") {
			continue
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserving destination tag")
	}

	return 0, pkgerrors.New(pkgerrors.CodeInternal,
		fmt.Sprintf("no free destination tag after %d attempts", maxAllocateAttempts))
}

func randomTag() (uint32, error) {
	span := big.NewInt(int64(TagRangeMax-TagRangeMin) + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return TagRangeMin + uint32(n.Uint64()), nil
}
