package drivers

import (
	"sync"

	"github.com/sirupsen/logrus"

	"husk/canbus"
)

// FrameBroadcaster fans a stream of frames out to any number of subscribers.
// It is a standalone helper, e.g. for a trace console that wants its own tap
// on the bus independent of the isotp layer; Link keeps its own subscriber
// set and does not use it.
type FrameBroadcaster struct {
	subscribers map[chan canbus.Frame]struct{}
	lock        sync.RWMutex
	log         *logrus.Entry
}

// NewFrameBroadcaster creates an empty broadcaster.
func NewFrameBroadcaster(log *logrus.Entry) *FrameBroadcaster {
	return &FrameBroadcaster{
		subscribers: make(map[chan canbus.Frame]struct{}),
		log:         log,
	}
}

// Subscribe adds a new subscriber and returns its channel.
func (b *FrameBroadcaster) Subscribe() chan canbus.Frame {
	ch := make(chan canbus.Frame, 128)
	b.lock.Lock()
	b.subscribers[ch] = struct{}{}
	b.lock.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber's channel.
func (b *FrameBroadcaster) Unsubscribe(ch chan canbus.Frame) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Broadcast sends frame to every current subscriber, dropping it for anyone
// too slow to keep up rather than blocking the sender.
func (b *FrameBroadcaster) Broadcast(frame canbus.Frame) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- frame:
		default:
			b.log.Warn("slow subscriber, dropping frame")
		}
	}
}

// Close unsubscribes everyone.
func (b *FrameBroadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
