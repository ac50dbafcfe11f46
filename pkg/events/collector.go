package events

// EventCollector accumulates the events an aggregate raises. The zero value
// is ready to use.
type EventCollector struct {
	pending []DomainEvent
}

func (c *EventCollector) Record(e DomainEvent) {
	c.pending = append(c.pending, e)
}

// Events returns the recorded events in order. The slice is a copy, so
// callers cannot alter what the aggregate later reports.
func (c *EventCollector) Events() []DomainEvent {
	out := make([]DomainEvent, len(c.pending))
	copy(out, c.pending)
	return out
}
