package event

type Type string

const (
	TypeUnauthorized     Type = "gateway.unauthorized"
	TypeSessionStarted   Type = "session.started"
	TypeSessionEnded     Type = "session.ended"
	TypeNavigate         Type = "navigation.requested"
	TypeCacheInvalidated Type = "cache.invalidated"
	TypeMutationFailed   Type = "mutation.failed"
)

type Event struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	Payload   map[string]string `json:"payload,omitempty"`
	Timestamp string            `json:"timestamp"`
	ActorID   string            `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
