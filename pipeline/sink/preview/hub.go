package preview

import (
	"sync"
)

// Hub hands the newest JPEG to every subscriber, slow subscribers skip frames instead of blocking the publisher
type Hub struct {
	locker      sync.Mutex
	latest      []byte
	subscribers map[chan []byte]struct{}
}

func (h *Hub) Publish(frame []byte) {
	h.locker.Lock()
	defer h.locker.Unlock()

	h.latest = frame

	for ch := range h.subscribers {
		select {
		case ch <- frame:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- frame
		}
	}
}

func (h *Hub) Latest() []byte {
	h.locker.Lock()
	defer h.locker.Unlock()
	return h.latest
}

// Subscribe returns a channel receiving frames, starting with the newest one if there is any
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	h.locker.Lock()
	defer h.locker.Unlock()

	ch := make(chan []byte, 1)
	if h.latest != nil {
		ch <- h.latest
	}
	h.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.locker.Lock()
			defer h.locker.Unlock()
			delete(h.subscribers, ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.locker.Lock()
	defer h.locker.Unlock()
	return len(h.subscribers)
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan []byte]struct{}),
	}
}
