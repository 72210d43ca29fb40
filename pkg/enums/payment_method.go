package enums

// PaymentMethod is the tender used for one payment.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodEwallet PaymentMethod = "ewallet"
	PaymentMethodOther   PaymentMethod = "other"
)

var paymentMethods = newSet("payment method",
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodEwallet,
	PaymentMethodOther,
)

func (p PaymentMethod) IsValid() bool { return paymentMethods.has(p) }

func ParsePaymentMethod(raw string) (PaymentMethod, error) { return paymentMethods.parse(raw) }
