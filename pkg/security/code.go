package security

import (
	"strings"

	"github.com/google/uuid"
)

// PaymentCodeLength is the number of characters in a purchase voucher.
const PaymentCodeLength = 12

// NewPaymentCode returns a random upper-case hexadecimal voucher.
func NewPaymentCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:PaymentCodeLength])
}

// NormalizePaymentCode trims and upper-cases user input.
func NormalizePaymentCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
