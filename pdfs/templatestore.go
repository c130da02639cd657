package pdfs

import "sync"

// TemplateStore keeps reusable page templates by key.
// T: Concrete Template Type -> depends on each implementation
type TemplateStore[T any] struct {
	mu        sync.RWMutex
	templates map[string]T
}

func NewTemplateStore[T any]() *TemplateStore[T] {
	return &TemplateStore[T]{templates: make(map[string]T)}
}

func (s *TemplateStore[T]) Store(key string, template T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[key] = template
}

func (s *TemplateStore[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[key]
	return t, ok
}

func (s *TemplateStore[T]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, key)
}

func (s *TemplateStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
