package models

import (
	"encoding/json"
	"time"
)

// XrplTransaction is a normalized, immutable copy of a validated ledger
// transaction addressed to a merchant account. The unique index on hash is
// what keeps concurrent sync passes from double-ingesting a transaction.
type XrplTransaction struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement"`
	LedgerIndex    uint32          `gorm:"column:ledger_index;not null;index:idx_xrpl_transactions_ledger_index"`
	Hash           string          `gorm:"column:hash;size:64;not null;uniqueIndex:uq_xrpl_transactions_hash"`
	CTID           string          `gorm:"column:ctid;size:16;not null"`
	Account        string          `gorm:"column:account;size:35;not null"`
	Destination    string          `gorm:"column:destination;size:35;not null;index:idx_xrpl_transactions_destination,priority:1"`
	DestinationTag *uint32         `gorm:"column:destination_tag;index:idx_xrpl_transactions_destination,priority:2"`
	CloseTime      int64           `gorm:"column:close_time;not null"`
	Meta           json.RawMessage `gorm:"column:meta;type:jsonb;not null"`
	Tx             json.RawMessage `gorm:"column:tx;type:jsonb;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements gorm's Tabler.
func (XrplTransaction) TableName() string {
	return "xrpl_transactions"
}
