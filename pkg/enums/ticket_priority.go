package enums

// TicketPriority orders kitchen tickets on the line.
type TicketPriority string

const (
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

var ticketPriorities = newSet("ticket priority", TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent)

func (t TicketPriority) IsValid() bool { return ticketPriorities.has(t) }

func ParseTicketPriority(raw string) (TicketPriority, error) { return ticketPriorities.parse(raw) }
