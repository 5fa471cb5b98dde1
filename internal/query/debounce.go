package query

import (
	"context"
	"sync"
	"time"
)

// Fetch executa a consulta remota pra um termo.
type Fetch[T any] func(ctx context.Context, term string) ([]T, error)

// Apply recebe o resultado da geração mais recente. Nunca é chamado pra uma
// geração superada. Roda sob o lock do debouncer: não chamar Input de dentro.
type Apply[T any] func(term string, items []T, err error)

// Debouncer coalesce entradas rápidas numa única consulta remota atrasada.
// Cada entrada reinicia o timer e avança uma geração: timers pendentes de
// gerações anteriores nunca disparam, e respostas em voo de gerações antigas
// são descartadas na chegada em vez de sobrescrever estado mais novo.
type Debouncer[T any] struct {
	delay time.Duration
	fetch Fetch[T]
	apply Apply[T]

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

func NewDebouncer[T any](delay time.Duration, fetch Fetch[T], apply Apply[T]) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fetch: fetch, apply: apply}
}

// Input registra uma tecla. Termo vazio curto-circuita de forma síncrona pra
// resultado vazio, sem chamada remota, e invalida gerações anteriores.
func (d *Debouncer[T]) Input(ctx context.Context, term string) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if term == "" {
		d.apply(term, []T{}, nil)
		d.mu.Unlock()
		return
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(ctx, gen, term)
	})
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(ctx context.Context, gen uint64, term string) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	items, err := d.fetch(ctx, term)

	// checagem de staleness e apply sob o mesmo lock: uma tecla entre os dois
	// não pode deixar a resposta superada sobrescrever o estado mais novo
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return
	}
	d.apply(term, items, err)
}

// Flush dispara imediatamente qualquer timer pendente (útil em testes e em
// "enter" explícito do operador).
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	t := d.timer
	d.timer = nil
	d.mu.Unlock()
	if t != nil && t.Stop() {
		// reexecuta o callback agora; a checagem de geração continua valendo
		t.Reset(0)
	}
}
