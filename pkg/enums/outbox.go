package enums

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateKitchenTicket OutboxAggregateType = "kitchen_ticket"
)

var aggregateTypes = newSet("aggregate type", AggregateOrder, AggregateKitchenTicket)

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

// OutboxEventType is the event_type column of outbox_events. Each value maps
// to one relay channel in the event registry.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventOrderItemStatus     OutboxEventType = "order_item_status_changed"
	EventPaymentRecorded     OutboxEventType = "payment_recorded"
	EventOrderPaid           OutboxEventType = "order_paid"
	EventKitchenTicketIssued OutboxEventType = "kitchen_ticket_issued"
	EventOrderExpired        OutboxEventType = "order_expired"
)

var eventTypes = newSet("event type",
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderItemStatus,
	EventPaymentRecorded,
	EventOrderPaid,
	EventKitchenTicketIssued,
	EventOrderExpired,
)

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }
