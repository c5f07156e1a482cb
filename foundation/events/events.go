// Package events allows for the registering and receiving of events that are
// fanned out to live subscribers such as websocket clients.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event is the envelope delivered to every subscriber.
type Event struct {
	Name string    `json:"event"`
	Data any       `json:"data,omitempty"`
	Time time.Time `json:"time"`
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	mu sync.RWMutex
	m  map[string]chan []byte
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan []byte),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive encoded events.
func (evt *Events) Acquire(id string) <-chan []byte {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.m[id]; exists {
		return ch
	}

	// Since a message will be dropped if the websocket receiver is
	// not ready to receive, this arbitrary buffer should give the receiver
	// enough time to not lose a message. Websocket send could take long.
	const messageBuffer = 100

	ch := make(chan []byte, messageBuffer)
	evt.m[id] = ch
	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered channels.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send encodes the named event and signals it to every registered channel.
// Send will not block waiting for a receiver on any given channel.
func (evt *Events) Send(name string, data any) error {
	msg, err := json.Marshal(Event{Name: name, Data: data, Time: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding event %q: %w", name, err)
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- msg:
		default:
		}
	}

	return nil
}

// Sendf formats a plain message and sends it as a "log" event.
func (evt *Events) Sendf(format string, args ...any) {
	evt.Send("log", fmt.Sprintf(format, args...))
}
