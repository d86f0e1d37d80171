package match

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.XrplTransaction{}))
	return conn
}

func storedTx(t *testing.T, conn *gorm.DB, hash string, ledgerIndex uint32, destination string, tag *uint32) {
	t.Helper()
	require.NoError(t, conn.Create(&models.XrplTransaction{
		LedgerIndex:    ledgerIndex,
		Hash:           hash,
		CTID:           "C000006400010000",
		Account:        "rPayer",
		Destination:    destination,
		DestinationTag: tag,
		CloseTime:      772000000,
		Meta:           json.RawMessage(`{}`),
		Tx:             json.RawMessage(`{}`),
	}).Error)
}

func TestFindByDestinationAndTag(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tag := uint32(20001)
	otherTag := uint32(20002)
	storedTx(t, conn, "AA02", 200, "rMerchant", &tag)
	storedTx(t, conn, "AA01", 100, "rMerchant", &tag)
	storedTx(t, conn, "AA03", 50, "rMerchant", &otherTag)

	tx, err := repo.FindByDestinationAndTag(ctx, "rMerchant", tag)
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, "AA01", tx.Hash, "earliest ledger transaction wins")
}

func TestFindByDestinationAndTagAbsent(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	tx, err := repo.FindByDestinationAndTag(context.Background(), "rMerchant", 99999)
	require.NoError(t, err)
	require.Nil(t, tx)
}

func TestFindByDestinationAndTagIgnoresUntagged(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	storedTx(t, conn, "BB01", 100, "rMerchant", nil)

	tx, err := repo.FindByDestinationAndTag(context.Background(), "rMerchant", 0)
	require.NoError(t, err)
	require.Nil(t, tx, "rows without a tag never match")
}
