package enums

// OrderItemStatus tracks preparation of a single line. Values are declared
// in line order: an item only ever moves forward.
type OrderItemStatus string

const (
	OrderItemStatusPending   OrderItemStatus = "pending"
	OrderItemStatusPreparing OrderItemStatus = "preparing"
	OrderItemStatusReady     OrderItemStatus = "ready"
	OrderItemStatusServed    OrderItemStatus = "served"
)

var orderItemStatuses = newSet("order item status",
	OrderItemStatusPending,
	OrderItemStatusPreparing,
	OrderItemStatusReady,
	OrderItemStatusServed,
)

func (o OrderItemStatus) IsValid() bool { return orderItemStatuses.has(o) }

func ParseOrderItemStatus(raw string) (OrderItemStatus, error) {
	return orderItemStatuses.parse(raw)
}

// Rank is the position along the line, -1 for unknown values.
func (o OrderItemStatus) Rank() int { return orderItemStatuses.rank(o) }

// IsKitchenPending reports whether the kitchen still has work on the item.
func (o OrderItemStatus) IsKitchenPending() bool {
	return o == OrderItemStatusPending || o == OrderItemStatusPreparing
}
