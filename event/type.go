package event

// EventType represents the type of frame-loop event
type EventType int

const (
	// EventExplosionRequest spawns a batch of slivers
	// Trigger: destroyed objects, sandbox input
	// Consumer: engine.Frame | Payload: GameEvent.Explosion
	EventExplosionRequest EventType = iota

	// EventSliverReset disposes every active sliver
	// Trigger: game reset
	// Consumer: engine.Frame | Payload: none
	EventSliverReset
)

func (t EventType) String() string {
	switch t {
	case EventExplosionRequest:
		return "ExplosionRequest"
	case EventSliverReset:
		return "SliverReset"
	}
	return "Unknown"
}
