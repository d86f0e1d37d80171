package enums

import "fmt"

// PaymentType names the asset a buyer settles an order with.
type PaymentType string

const (
	PaymentTypeXRP   PaymentType = "xrp"
	PaymentTypeToken PaymentType = "token"
	PaymentTypeRLUSD PaymentType = "rlusd"
	PaymentTypeUSDC  PaymentType = "usdc"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeXRP,
	PaymentTypeToken,
	PaymentTypeRLUSD,
	PaymentTypeUSDC,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsIssued reports whether payments of this type arrive as issued-currency
// amounts rather than native drops.
func (p PaymentType) IsIssued() bool {
	return p != PaymentTypeXRP
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
