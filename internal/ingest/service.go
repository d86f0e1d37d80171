package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

// LedgerClient is the slice of the JSON-RPC client the ingestor needs.
type LedgerClient interface {
	FetchAccountTransactions(ctx context.Context, account string, sinceLedgerIndex int64, marker json.RawMessage) (*xrpl.AccountTxPage, error)
	NetworkID() uint16
}

// Service pulls an account's validated ledger history into local storage so
// matching never has to touch the network.
type Service interface {
	// SyncAccount drains all new transactions addressed to the account and
	// returns how many were stored.
	SyncAccount(ctx context.Context, account string) (int, error)
}

type service struct {
	repo   Repository
	client LedgerClient
	logg   *logger.Logger
}

// ServiceParams configure the ledger ingestor.
type ServiceParams struct {
	Repo   Repository
	Client LedgerClient
	Logger *logger.Logger
}

// NewService wires a ledger ingestor.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ingest repository required")
	}
	if params.Client == nil {
		return nil, fmt.Errorf("ledger client required")
	}
	return &service{
		repo:   params.Repo,
		client: params.Client,
		logg:   params.Logger,
	}, nil
}

// SyncAccount walks account_tx pages forward from the stored high-water mark,
// persisting each page before requesting the next. A crash mid-drain loses
// nothing: the next pass resumes from the last stored ledger index and the
// hash dedup absorbs the overlap.
func (s *service) SyncAccount(ctx context.Context, account string) (int, error) {
	if account == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "account is required")
	}

	highWater, err := s.repo.MaxLedgerIndex(ctx, account)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading ledger high-water mark")
	}

	// The boundary ledger is re-fetched on purpose: other transactions may
	// have closed in it after the previous pass stored its first ones.
	since := int64(-1)
	if highWater > 0 {
		since = int64(highWater)
	}

	var (
		marker json.RawMessage
		total  int
	)
	for {
		page, err := s.client.FetchAccountTransactions(ctx, account, since, marker)
		if err != nil {
			return total, err
		}

		inserted, err := s.storePage(ctx, account, page.Transactions)
		if err != nil {
			return total, err
		}
		total += inserted

		if len(page.Marker) == 0 || string(page.Marker) == "null" {
			break
		}
		marker = page.Marker
	}

	return total, nil
}

func (s *service) storePage(ctx context.Context, account string, entries []xrpl.AccountTransaction) (int, error) {
	rows := s.normalize(ctx, account, entries)
	if len(rows) == 0 {
		return 0, nil
	}

	hashes := make([]string, 0, len(rows))
	for _, row := range rows {
		hashes = append(hashes, row.Hash)
	}
	existing, err := s.repo.ExistingHashes(ctx, hashes)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking stored hashes")
	}

	fresh := rows[:0]
	for _, row := range rows {
		if _, dup := existing[row.Hash]; dup {
			continue
		}
		fresh = append(fresh, row)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	inserted, err := s.repo.InsertBatch(ctx, fresh)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing ledger transactions")
	}
	return int(inserted), nil
}

// normalize keeps validated payments addressed to the account and maps them
// to storage rows. Anything else on the page, outgoing transfers included, is
// irrelevant to reconciliation.
func (s *service) normalize(ctx context.Context, account string, entries []xrpl.AccountTransaction) []*models.XrplTransaction {
	rows := make([]*models.XrplTransaction, 0, len(entries))
	for _, entry := range entries {
		if !entry.Validated {
			continue
		}
		if entry.Tx.TransactionType != "Payment" {
			continue
		}
		if entry.Tx.Destination != account {
			continue
		}

		ctid, err := xrpl.EncodeCTID(entry.Tx.LedgerIndex, entry.Meta.TransactionIndex, s.client.NetworkID())
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "hash", entry.Tx.Hash), "ctid derivation failed")
			}
			continue
		}

		rows = append(rows, &models.XrplTransaction{
			LedgerIndex:    entry.Tx.LedgerIndex,
			Hash:           entry.Tx.Hash,
			CTID:           ctid,
			Account:        entry.Tx.Account,
			Destination:    entry.Tx.Destination,
			DestinationTag: entry.Tx.DestinationTag,
			CloseTime:      entry.Tx.Date,
			Meta:           entry.RawMeta,
			Tx:             entry.RawTx,
		})
	}
	return rows
}
