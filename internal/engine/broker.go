package engine

import (
	"sync"
	"time"
)

// subscriberBufferSize is the channel buffer for each event subscriber.
// Messages are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// AllTopic receives every published message. It is closed only by
// CloseAll.
const AllTopic = "*"

// Message is one scheduler event as seen by stream subscribers.
type Message struct {
	Event     string    `json:"event"`
	ProcessID string    `json:"process_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Time      time.Time `json:"time"`
}

// EventBroker fans scheduler events out to subscribers by topic. Process
// events go to the process's own topic and to AllTopic. It is safe for
// concurrent use.
//
// Closed topics are retained as markers so that late subscribers (those
// subscribing after a process finished) receive a closed channel instead of
// blocking forever.
type EventBroker struct {
	mu     sync.Mutex
	topics map[string]*eventTopic
}

type eventTopic struct {
	subs   map[int]chan Message
	nextID int
	closed bool
}

// NewEventBroker creates a new event broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{
		topics: make(map[string]*eventTopic),
	}
}

// Subscribe returns a channel that receives messages for topic and an
// unsubscribe function. If the topic was already closed, the returned
// channel is closed immediately.
func (b *EventBroker) Subscribe(topic string) (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[topic]
	if !ok {
		t = &eventTopic{subs: make(map[int]chan Message)}
		b.topics[topic] = t
	}

	ch := make(chan Message, subscriberBufferSize)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish sends msg to the subscribers of topic and of AllTopic.
// Messages are dropped for subscribers whose buffers are full.
func (b *EventBroker) Publish(topic string, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.publishLocked(topic, msg)
	if topic != AllTopic {
		b.publishLocked(AllTopic, msg)
	}
}

func (b *EventBroker) publishLocked(topic string, msg Message) {
	t, ok := b.topics[topic]
	if !ok || t.closed {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- msg:
		default:
			// Drop for slow subscribers so the scheduler never blocks.
		}
	}
}

// Close signals that no more messages will be published on topic. All
// subscriber channels are closed and future Subscribe calls return a closed
// channel.
func (b *EventBroker) Close(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closeLocked(topic)
}

func (b *EventBroker) closeLocked(topic string) {
	t, ok := b.topics[topic]
	if !ok {
		b.topics[topic] = &eventTopic{subs: make(map[int]chan Message), closed: true}
		return
	}

	t.closed = true
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

// CloseAll closes every topic, including AllTopic. It is used on shutdown so
// streaming clients disconnect.
func (b *EventBroker) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.topics[AllTopic]; !ok {
		b.closeLocked(AllTopic)
	}
	for topic := range b.topics {
		b.closeLocked(topic)
	}
}
