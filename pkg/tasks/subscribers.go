package tasks

import (
	"sync"

	"github.com/aretw0/dona/pkg/domain"
)

type subscribers struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(domain.ChangeEvent)
}

func newSubscribers() *subscribers {
	return &subscribers{fns: make(map[int]func(domain.ChangeEvent))}
}

func (s *subscribers) add(fn func(domain.ChangeEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.fns, id)
		})
	}
}

func (s *subscribers) publish(ev domain.ChangeEvent) {
	s.mu.RLock()
	fns := make([]func(domain.ChangeEvent), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
