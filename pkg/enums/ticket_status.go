package enums

// TicketStatus tracks a kitchen ticket on the line.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusDone       TicketStatus = "done"
)

var ticketStatuses = newSet("ticket status", TicketStatusPending, TicketStatusInProgress, TicketStatusDone)

func (t TicketStatus) IsValid() bool { return ticketStatuses.has(t) }
