package api

import (
	"sync"
	"time"
)

// Notice is one "authorization required" broadcast.
type Notice struct {
	Message string
	At      time.Time
}

// AuthSignal is the process-wide "authorization required" subject. The
// network layer broadcasts on it whenever a request is rejected for lack of
// a valid credential; guards subscribe to it.
type AuthSignal struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Notice)
	order  []int
}

func NewAuthSignal() *AuthSignal {
	return &AuthSignal{subs: make(map[int]func(Notice))}
}

// Subscribe registers fn and returns a function that removes it again.
func (s *AuthSignal) Subscribe(fn func(Notice)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Broadcast delivers message to every subscriber, in subscription order.
func (s *AuthSignal) Broadcast(message string) {
	s.mu.Lock()
	fns := make([]func(Notice), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	n := Notice{Message: message, At: time.Now()}
	for _, fn := range fns {
		fn(n)
	}
}

// Subscribers reports the number of live subscriptions.
func (s *AuthSignal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
