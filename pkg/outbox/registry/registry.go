// Package registry maps outbox event types onto Redis channels and decodes
// their typed payloads for the relay.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/db/models"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox/payloads"
)

// EventDescriptor binds an event type to the aggregate it must carry and the
// channel it is relayed on.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Channel       string
	decode        func(json.RawMessage) (any, error)
}

// ResolvedEvent is a decoded outbox row ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks rows that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func decodeInto[T any](raw json.RawMessage) (any, error) {
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func on[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, channel string) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: aggregate,
		Channel:       channel,
		decode:        decodeInto[T],
	}
}

// NewEventRegistry routes order lifecycle events to <prefix>.orders, money
// events to <prefix>.payments and line progress to <prefix>.kitchen.
func NewEventRegistry(cfg config.OutboxConfig) (*EventRegistry, error) {
	prefix := strings.TrimSpace(cfg.ChannelPrefix)
	if prefix == "" {
		return nil, fmt.Errorf("outbox channel prefix is required")
	}
	orders := prefix + ".orders"
	money := prefix + ".payments"
	kitchen := prefix + ".kitchen"

	descriptors := []EventDescriptor{
		on[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder, orders),
		on[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder, orders),
		on[payloads.OrderExpiredEvent](enums.EventOrderExpired, enums.AggregateOrder, orders),
		on[payloads.PaymentRecordedEvent](enums.EventPaymentRecorded, enums.AggregateOrder, money),
		on[payloads.OrderPaidEvent](enums.EventOrderPaid, enums.AggregateOrder, money),
		on[payloads.KitchenTicketIssuedEvent](enums.EventKitchenTicketIssued, enums.AggregateKitchenTicket, kitchen),
		on[payloads.OrderItemStatusChangedEvent](enums.EventOrderItemStatus, enums.AggregateOrder, kitchen),
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Channels lists the distinct channels events can land on.
func (r *EventRegistry) Channels() []string {
	seen := map[string]struct{}{}
	for _, desc := range r.entries {
		seen[desc.Channel] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure here is non-retryable.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("event %s expects aggregate %s, row has %s", event.EventType, desc.AggregateType, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(fmt.Errorf("event %s has no aggregate id", event.EventType))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("event %s has an empty payload", event.EventType))
	}
	payload, err := desc.decode(data)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
