package enums

// PaymentStatus is derived from the paid amount relative to the order total.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

var paymentStatuses = newSet("payment status", PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid)

func (p PaymentStatus) IsValid() bool { return paymentStatuses.has(p) }

func ParsePaymentStatus(raw string) (PaymentStatus, error) { return paymentStatuses.parse(raw) }
