package cart

import "time"

const (
	EventLineAdded   = "cart.line_added"
	EventLineUpdated = "cart.line_updated"
	EventLineRemoved = "cart.line_removed"
)

// LineAddedEvent is emitted when the store persists a new cart line.
type LineAddedEvent struct {
	Line       Line
	OccurredAt time.Time
}

func (LineAddedEvent) EventName() string { return EventLineAdded }

func NewLineAddedEvent(l Line) LineAddedEvent {
	return LineAddedEvent{Line: l, OccurredAt: time.Now().UTC()}
}

// LineUpdatedEvent is emitted when a line's amount changes.
type LineUpdatedEvent struct {
	Line           Line
	PreviousAmount int
	OccurredAt     time.Time
}

func (LineUpdatedEvent) EventName() string { return EventLineUpdated }

func NewLineUpdatedEvent(l Line, previous int) LineUpdatedEvent {
	return LineUpdatedEvent{Line: l, PreviousAmount: previous, OccurredAt: time.Now().UTC()}
}

// LineRemovedEvent is emitted when a line is deleted, including by checkout.
type LineRemovedEvent struct {
	Line       Line
	OccurredAt time.Time
}

func (LineRemovedEvent) EventName() string { return EventLineRemoved }

func NewLineRemovedEvent(l Line) LineRemovedEvent {
	return LineRemovedEvent{Line: l, OccurredAt: time.Now().UTC()}
}
