package enums

// PaymentRecordStatus is the state of one recorded payment row. Payments are
// only written once they have settled, so completed is the sole value today.
type PaymentRecordStatus string

const PaymentRecordStatusCompleted PaymentRecordStatus = "completed"

var paymentRecordStatuses = newSet("payment record status", PaymentRecordStatusCompleted)

func (p PaymentRecordStatus) IsValid() bool { return paymentRecordStatuses.has(p) }
