package events

import (
	"context"
	"sync"
)

type delivery struct {
	ctx   context.Context
	event Event
}

// mailbox is an unbounded FIFO with a single consumer. push never blocks.
type mailbox struct {
	mu     sync.Mutex
	queue  []delivery
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(d delivery) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, d)
	m.mu.Unlock()
	m.wake()
	return true
}

// next blocks until a delivery is queued. It returns false once the mailbox
// is closed and fully drained.
func (m *mailbox) next() (delivery, bool) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			d := m.queue[0]
			m.queue[0] = delivery{}
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return d, true
		}
		if m.closed {
			m.mu.Unlock()
			return delivery{}, false
		}
		m.mu.Unlock()
		<-m.notify
	}
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
