package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. Worker-emitted events leave it nil.
type ActorRef struct {
	Operator string `json:"operator,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
