package enums

import "fmt"

// PaymentMethod describes how a generated receipt was settled.
type PaymentMethod string

const (
	PaymentMethodCreditCard    PaymentMethod = "Credit Card"
	PaymentMethodDebitCard     PaymentMethod = "Debit Card"
	PaymentMethodCash          PaymentMethod = "Cash"
	PaymentMethodMobilePayment PaymentMethod = "Mobile Payment"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodCash,
	PaymentMethodMobilePayment,
}

// PaymentMethods returns the enumerated set in a stable order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(validPaymentMethods))
	copy(out, validPaymentMethods)
	return out
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
