package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PayloadEnvelope wraps every outbox payload. Version tracks the shape of
// Data for its event type; consumers dedupe on EventID, which is also the
// outbox row id.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	TenantID   *uuid.UUID      `json:"tenantId,omitempty"`
	Data       json.RawMessage `json:"data"`
}
