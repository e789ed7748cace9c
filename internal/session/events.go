package session

import (
	"sync"

	"flight-board/internal/domain"
)

const subscriberBuffer = 16

type EventKind string

const (
	EventProfileChanged  EventKind = "profile"
	EventSettingsChanged EventKind = "settings"
)

// Event carries the session state right after a change.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Profile  domain.Profile  `json:"profile"`
	Settings domain.Settings `json:"settings"`
}

// Subscribe registers for change events. The returned func unsubscribes and
// closes the channel; calling it more than once is harmless. Events are dropped
// for a subscriber whose buffer is full.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.events.subscribe()
}

type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
