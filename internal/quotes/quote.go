package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

// quoteVersion is bumped whenever the serialized shape changes.
const quoteVersion = 1

// Quote is the payment offer attached to an order: where to pay, how much of
// which asset, and at which rate it was struck. Once a matching ledger
// transaction settles it, the settlement fields are filled in and the quote
// becomes terminal.
type Quote struct {
	Chain              string            `json:"chain"`
	Network            enums.Network     `json:"network"`
	Version            int               `json:"version"`
	Type               enums.PaymentType `json:"type"`
	DestinationAccount string            `json:"destination_account"`
	DestinationTag     uint32            `json:"destination_tag"`
	Pairing            string            `json:"pairing"`
	ExchangeRate       decimal.Decimal   `json:"exchange_rate"`
	AmountRequested    xrpl.Amount       `json:"amount_requested"`
	ExpiresAt          time.Time         `json:"expires_at"`
	PageTitle          string            `json:"page_title,omitempty"`

	Hash            string       `json:"hash,omitempty"`
	CTID            string       `json:"ctid,omitempty"`
	DeliveredAmount *xrpl.Amount `json:"delivered_amount,omitempty"`
}

// IsExpired reports whether the quote's rate is too old to offer to a payer.
// Expiry does not invalidate the destination tag, only the struck rate.
func (q Quote) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// IsSettled reports whether a ledger transaction has already paid this quote.
func (q Quote) IsSettled() bool {
	return q.Hash != ""
}
