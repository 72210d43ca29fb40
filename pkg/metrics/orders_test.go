package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func TestOrderMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.OrderCreated()
	m.Transition("draft", "confirmed")
	m.PaymentRecorded("cash", decimal.RequireFromString("50000"))
	m.PaymentRecorded("cash", decimal.RequireFromString("25000.50"))
	m.PaymentRejected("OVERPAYMENT_REJECTED")
	m.TicketIssued("normal")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_payments_recorded_total", "method", "cash"); err != nil || got != 2 {
		t.Fatalf("expected 2 cash payments, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_payments_amount_total", "method", "cash"); err != nil || got != 75000.5 {
		t.Fatalf("expected 75000.5 collected, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_order_transitions_total", "to", "confirmed"); err != nil || got != 1 {
		t.Fatalf("expected 1 transition, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_payments_rejected_total", "code", "OVERPAYMENT_REJECTED"); err != nil || got != 1 {
		t.Fatalf("expected 1 rejection, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_kitchen_tickets_issued_total", "priority", "normal"); err != nil || got != 1 {
		t.Fatalf("expected 1 ticket, got %f (%v)", got, err)
	}
}

func TestPaymentRejectedBlankCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.PaymentRejected(" ")
	m.PaymentRejected(" VALIDATION_ERROR ")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_payments_rejected_total", "code", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected blank code counted as unknown, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "tablepos_payments_rejected_total", "code", "VALIDATION_ERROR"); err != nil || got != 1 {
		t.Fatalf("expected trimmed code label, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *OrderMetrics
	m.OrderCreated()
	m.PaymentRecorded("card", decimal.NewFromInt(1))
	NewOrderMetrics(nil).TicketIssued("high")

	var h *HTTPMetrics
	h.Observe(http.MethodGet, "/x", http.StatusOK, time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe(http.MethodPost, "/api/v1/orders", http.StatusCreated, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "tablepos_http_request_duration_seconds", "route", "/api/v1/orders"); err != nil || got <= 0 {
		t.Fatalf("expected histogram sample, got %f (%v)", got, err)
	}
}
