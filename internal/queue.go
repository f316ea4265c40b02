package internal

import "sync"

type node struct {
	event Event
	next  *node
}

// Queue
// unbounded fifo shared between backend goroutines (producers) and the
// single goroutine calling Drain. A consumer that never drains grows it
// without limit.
type Queue struct {
	mu   sync.Mutex
	head *node
	tail *node
	size int
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends e to the tail. The node is built before taking the lock, the
// lock only guards the link.
func (q *Queue) Push(e Event) {
	n := &node{event: e}

	q.mu.Lock()
	if q.tail != nil {
		q.tail.next = n
	} else {
		q.head = n
	}
	q.tail = n
	q.size++
	q.mu.Unlock()
}

func (q *Queue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.head
	if n == nil {
		return Event{}, false
	}
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	q.size--
	n.next = nil
	return n.event, true
}

// Drain pops events one by one and hands them to handler until the queue is
// found empty. The lock is never held while handler runs, so handler may push
// or start/stop a registry. Returns the number of dispatched events.
func (q *Queue) Drain(handler func(e Event)) int {
	count := 0
	for {
		e, ok := q.pop()
		if !ok {
			return count
		}
		count++
		if handler != nil {
			handler(e)
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
