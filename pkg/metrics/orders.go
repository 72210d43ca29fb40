package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// OrderMetrics counts order, payment and ticket activity. A nil receiver or
// one built without a registerer records nothing.
type OrderMetrics struct {
	created     prometheus.Counter
	transitions *prometheus.CounterVec
	payments    *prometheus.CounterVec
	collected   *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	tickets     *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on reg.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders assembled from a cart.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions applied.",
		}, []string{"from", "to"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments applied to orders.",
		}, []string{"method"}),
		collected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_amount_total",
			Help:      "Sum of applied payment amounts.",
		}, []string{"method"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_rejected_total",
			Help:      "Payments rejected by reconciliation.",
		}, []string{"code"}),
		tickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_tickets_issued_total",
			Help:      "Kitchen tickets issued.",
		}, []string{"priority"}),
	}
	reg.MustRegister(m.created, m.transitions, m.payments, m.collected, m.rejected, m.tickets)
	return m
}

func (m *OrderMetrics) OrderCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *OrderMetrics) Transition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// PaymentRecorded counts the payment and adds its amount. Amounts are
// exported as floats, which is fine for dashboards but not for accounting.
func (m *OrderMetrics) PaymentRecorded(method string, amount decimal.Decimal) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(method).Inc()
	m.collected.WithLabelValues(method).Add(amount.InexactFloat64())
}

func (m *OrderMetrics) PaymentRejected(code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *OrderMetrics) TicketIssued(priority string) {
	if m == nil || m.tickets == nil {
		return
	}
	m.tickets.WithLabelValues(priority).Inc()
}

// normalizeLabel keeps blank codes from producing an empty label value.
func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
