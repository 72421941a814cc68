package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type   EventType
	Entity Entity
	Data   any
}

type EventType string

const (
	// EventCommandFinished carries the finished command's kind.
	EventCommandFinished EventType = "command_finished"
	// EventPathFailed carries the search error.
	EventPathFailed EventType = "path_failed"
	// EventPathReady carries the waypoint count.
	EventPathReady EventType = "path_ready"
)

// EventQueue is a simple FIFO queue, emptied at the start of every frame.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
