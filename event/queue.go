package event

import (
	"sync/atomic"

	"github.com/lixenwraith/slivers/parameter"
)

// EventQueue is a lock-free MPSC ring buffer for spawn events
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Consume: Single consumer (frame loop)
//   - Published flags prevent reading partial writes
//
// Overflow: Oldest events overwritten when full
type EventQueue struct {
	events    [parameter.SpawnQueueSize]GameEvent
	published [parameter.SpawnQueueSize]atomic.Bool // True = slot fully written
	head      atomic.Uint64                         // Read index
	tail      atomic.Uint64                         // Write index
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push adds event using lock-free CAS with published flags pattern
func (eq *EventQueue) Push(event GameEvent) {
	for {
		currentTail := eq.tail.Load()
		nextTail := currentTail + 1

		if eq.tail.CompareAndSwap(currentTail, nextTail) {
			idx := currentTail & parameter.SpawnBufferMask

			eq.events[idx] = event
			eq.published[idx].Store(true) // MUST be after write

			// Advance head if overwriting unread events
			currentHead := eq.head.Load()
			if nextTail-currentHead > parameter.SpawnQueueSize {
				eq.head.CompareAndSwap(currentHead, nextTail-parameter.SpawnQueueSize)
			}
			return
		}
	}
}

// PushExplosion queues an explosion request
func (eq *EventQueue) PushExplosion(req ExplosionRequest, frame int64) {
	eq.Push(GameEvent{Type: EventExplosionRequest, Explosion: req, Frame: frame})
}

// ConsumeInto appends pending events in FIFO order to buf and advances head
// Single consumer; reuse buf across frames to avoid allocation
func (eq *EventQueue) ConsumeInto(buf []GameEvent) []GameEvent {
	for {
		currentHead := eq.head.Load()
		currentTail := eq.tail.Load()

		if currentTail == currentHead {
			return buf
		}

		maxAvailable := currentTail - currentHead
		if maxAvailable > parameter.SpawnQueueSize {
			maxAvailable = parameter.SpawnQueueSize
			currentHead = currentTail - parameter.SpawnQueueSize
		}

		base := len(buf)
		for i := uint64(0); i < maxAvailable; i++ {
			idx := (currentHead + i) & parameter.SpawnBufferMask

			if !eq.published[idx].Load() {
				break // Writer incomplete
			}

			buf = append(buf, eq.events[idx])
			eq.published[idx].Store(false)
		}

		newHead := currentHead + uint64(len(buf)-base)
		if eq.head.CompareAndSwap(currentHead, newHead) {
			return buf
		}
		buf = buf[:base]
	}
}

// Len returns approximate pending event count
func (eq *EventQueue) Len() int {
	head := eq.head.Load()
	tail := eq.tail.Load()
	if tail <= head {
		return 0
	}
	diff := int(tail - head)
	if diff > parameter.SpawnQueueSize {
		return parameter.SpawnQueueSize
	}
	return diff
}
