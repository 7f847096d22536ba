package order

import "strings"

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// ProviderRazorpay is the gateway recorded for online payments.
const ProviderRazorpay = "razorpay"

// Payment is the payment block stored on an order. No gateway is called;
// online payments stay pending.
type Payment struct {
	Method PaymentMethod
	// Provider is empty for cash on delivery.
	Provider      string
	TransactionID string
	Status        PaymentStatus
}

// NewPayment derives the payment block from the requested method. "COD" in
// any case is cash on delivery; every other value is an online payment.
func NewPayment(method string) Payment {
	if strings.EqualFold(strings.TrimSpace(method), string(PaymentCOD)) {
		return Payment{Method: PaymentCOD, Status: PaymentPaid}
	}
	return Payment{Method: PaymentOnline, Provider: ProviderRazorpay, Status: PaymentPending}
}
