package enums

import "fmt"

// PaymentVerdict is the outcome of evaluating a ledger transaction against a
// quote.
type PaymentVerdict string

const (
	PaymentVerdictPaid         PaymentVerdict = "paid"
	PaymentVerdictInsufficient PaymentVerdict = "insufficient_amount"
	PaymentVerdictNoMatch      PaymentVerdict = "no_match"
)

var validPaymentVerdicts = []PaymentVerdict{
	PaymentVerdictPaid,
	PaymentVerdictInsufficient,
	PaymentVerdictNoMatch,
}

// String implements fmt.Stringer.
func (v PaymentVerdict) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentVerdict.
func (v PaymentVerdict) IsValid() bool {
	for _, candidate := range validPaymentVerdicts {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentVerdict converts raw input into a PaymentVerdict.
func ParsePaymentVerdict(value string) (PaymentVerdict, error) {
	for _, candidate := range validPaymentVerdicts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment verdict %q", value)
}
