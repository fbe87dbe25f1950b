package game

import "github.com/lallassu/citydrive/internal/assets"

type EventType int

const (
	EventAssetLoaded EventType = iota
	EventAssetFailed
)

type Event struct {
	Type  EventType
	Asset assets.Result
}

// AssetEvent classifies a loader result.
func AssetEvent(res assets.Result) Event {
	if res.Err != nil {
		return Event{Type: EventAssetFailed, Asset: res}
	}
	return Event{Type: EventAssetLoaded, Asset: res}
}

type EventHandler func(Event)

// EventBus dispatches synchronously on the caller's goroutine, which is
// always the render thread.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
