package query

import (
	"context"
	"sync"
	"time"
)

// Searcher liga um Debouncer a um snapshot consultável: cada tecla entra via
// Input e o snapshot só muda quando a geração vencedora responde. UIs leem o
// snapshot quando recebem a notificação.
type Searcher[T any] struct {
	deb    *Debouncer[T]
	notify func(term string)

	mu    sync.Mutex
	term  string
	items []T
	err   error
}

func NewSearcher[T any](delay time.Duration, fetch Fetch[T], notify func(term string)) *Searcher[T] {
	s := &Searcher[T]{notify: notify}
	s.deb = NewDebouncer(delay, fetch, s.store)
	return s
}

func (s *Searcher[T]) store(term string, items []T, err error) {
	s.mu.Lock()
	s.term = term
	s.items = items
	s.err = err
	s.mu.Unlock()
	if s.notify != nil {
		s.notify(term)
	}
}

// Input registra uma tecla do operador.
func (s *Searcher[T]) Input(ctx context.Context, term string) {
	s.deb.Input(ctx, term)
}

// Snapshot devolve o último resultado aplicado e o termo que o produziu.
func (s *Searcher[T]) Snapshot() (string, []T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return s.term, items, s.err
}
