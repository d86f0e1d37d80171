package xrpl

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountKind discriminates the two wire representations of a ledger amount.
type AmountKind string

const (
	AmountKindNative AmountKind = "native"
	AmountKindIssued AmountKind = "issued"
)

var dropsPerXRP = decimal.NewFromInt(1_000_000)

// Amount is a tagged union over the two ledger amount shapes: native XRP
// (held here in XRP units, not drops) and issued currency
// {currency, issuer, value}. It is resolved once when a transaction or quote
// is decoded, never re-sniffed at comparison sites.
type Amount struct {
	Kind     AmountKind
	Value    decimal.Decimal
	Currency string
	Issuer   string
}

// NewNativeAmount builds a native amount denominated in XRP units.
func NewNativeAmount(value decimal.Decimal) Amount {
	return Amount{Kind: AmountKindNative, Value: value}
}

// NewIssuedAmount builds an issued-currency amount.
func NewIssuedAmount(currency, issuer string, value decimal.Decimal) Amount {
	return Amount{Kind: AmountKindIssued, Currency: currency, Issuer: issuer, Value: value}
}

// IsZero reports whether the amount carries no value.
func (a Amount) IsZero() bool {
	return a.Kind == "" || a.Value.IsZero()
}

type issuedAmountWire struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// MarshalJSON renders native amounts as a decimal string and issued amounts
// as the {currency, issuer, value} object the ledger uses.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Kind == AmountKindIssued {
		return json.Marshal(issuedAmountWire{
			Currency: a.Currency,
			Issuer:   a.Issuer,
			Value:    a.Value.String(),
		})
	}
	return json.Marshal(a.Value.String())
}

// UnmarshalJSON accepts either representation. Bare strings and numbers are
// treated as native XRP units; objects as issued amounts.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var wire issuedAmountWire
	if err := json.Unmarshal(data, &wire); err == nil && wire.Currency != "" {
		value, err := decimal.NewFromString(wire.Value)
		if err != nil {
			return fmt.Errorf("parsing issued amount value %q: %w", wire.Value, err)
		}
		*a = NewIssuedAmount(wire.Currency, wire.Issuer, value)
		return nil
	}

	var scalar string
	if err := json.Unmarshal(data, &scalar); err != nil {
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return fmt.Errorf("unrecognized amount payload: %s", data)
		}
		scalar = number.String()
	}

	value, err := decimal.NewFromString(scalar)
	if err != nil {
		return fmt.Errorf("parsing native amount %q: %w", scalar, err)
	}
	*a = NewNativeAmount(value)
	return nil
}

// DropsToXRP converts a drops string (the native integer wire unit) to XRP.
func DropsToXRP(drops string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(drops)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing drops %q: %w", drops, err)
	}
	return value.Div(dropsPerXRP), nil
}

// ParseDeliveredAmount decodes the delivered_amount field of transaction
// metadata. A bare string holds drops and becomes a native amount in XRP
// units; an object is an issued-currency amount.
func ParseDeliveredAmount(raw json.RawMessage) (Amount, error) {
	if len(raw) == 0 {
		return Amount{}, fmt.Errorf("delivered amount is empty")
	}

	var wire issuedAmountWire
	if err := json.Unmarshal(raw, &wire); err == nil && wire.Currency != "" {
		value, err := decimal.NewFromString(wire.Value)
		if err != nil {
			return Amount{}, fmt.Errorf("parsing issued delivered amount %q: %w", wire.Value, err)
		}
		return NewIssuedAmount(wire.Currency, wire.Issuer, value), nil
	}

	var drops string
	if err := json.Unmarshal(raw, &drops); err != nil {
		return Amount{}, fmt.Errorf("unrecognized delivered amount payload: %s", raw)
	}
	xrp, err := DropsToXRP(drops)
	if err != nil {
		return Amount{}, err
	}
	return NewNativeAmount(xrp), nil
}
