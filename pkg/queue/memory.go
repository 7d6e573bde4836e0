package queue

// InMemoryQueue implements a bounded in-memory queue backed by a channel.
// Enqueue never blocks: it fails with ErrQueueFull when the buffer is full.
type InMemoryQueue struct {
	ch chan interface{}
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue(size int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, size),
	}
}

// Enqueue adds an item to the end of the queue.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// ReadAllMessages removes and returns all items currently in the queue.
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	var items []interface{}
	for {
		select {
		case item := <-q.ch:
			items = append(items, item)
		default:
			return items, nil
		}
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	return len(q.ch)
}

// Clear removes all items from the queue.
func (q *InMemoryQueue) Clear() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
