package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCheckout is wrapped by every checkout validation failure.
var ErrInvalidCheckout = errors.New("invalid checkout")

// ValidationError reports the first checkout field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCheckout
}

// CheckoutRules are the delivery constraints applied to new orders.
type CheckoutRules struct {
	// DeliveryCity is the only city the store delivers to.
	DeliveryCity string
}

// Mobile numbers: optional +92 or 0 prefix, then 3 and nine digits.
var phonePattern = regexp.MustCompile(`^(\+92|0)?3\d{9}$`)

// ValidateCheckout checks the fields a customer enters at checkout. It runs on the
// raw input, before defaults are filled in, so that a missing field is not masked.
func ValidateCheckout(raw RawOrder, rules CheckoutRules) error {
	if stringField(raw, "customerName") == "" {
		return &ValidationError{Field: "customerName", Message: "name is required"}
	}

	phone := stringOr("", raw, "phoneNumber", "customerPhone", "phone")
	if phone == "" {
		return &ValidationError{Field: "phoneNumber", Message: "phone number is required"}
	}
	compact := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	if !phonePattern.MatchString(compact) {
		return &ValidationError{Field: "phoneNumber", Message: "phone number must look like 03XXXXXXXXX or +923XXXXXXXXX"}
	}

	address := stringField(raw, "address")
	if address == "" {
		return &ValidationError{Field: "address", Message: "address is required"}
	}
	if rules.DeliveryCity != "" && !strings.Contains(strings.ToLower(address), strings.ToLower(rules.DeliveryCity)) {
		return &ValidationError{Field: "address", Message: fmt.Sprintf("we only deliver within %s", rules.DeliveryCity)}
	}

	if pm := stringField(raw, "paymentMethod"); pm != "" && !strings.EqualFold(pm, PaymentCashOnDelivery) {
		return &ValidationError{Field: "paymentMethod", Message: "only Cash on Delivery is accepted"}
	}

	if len(normalizeItems(raw["items"])) == 0 {
		return &ValidationError{Field: "items", Message: "at least one item is required"}
	}

	return nil
}
