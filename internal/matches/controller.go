package matches

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-admin-console/internal/authority"
)

// Store é a fatia do client da autoridade que o controller consome.
type Store interface {
	ListMatches(ctx context.Context) ([]authority.Match, error)
	CreateMatch(ctx context.Context, spec authority.MatchSpec) (authority.Match, error)
	SetStatus(ctx context.Context, id string, status authority.MatchStatus) (authority.Match, error)
}

var (
	ErrUnknownMatch      = errors.New("unknown match")
	ErrNoSelection       = errors.New("no match selected")
	ErrNotEligible       = errors.New("match not eligible for result entry")
	ErrUnknownOutcome    = errors.New("outcome not among the match choices")
	ErrTerminalStatus    = errors.New("match is in a terminal status")
	ErrCancelState       = errors.New("cancel only allowed from UPCOMING or LIVE")
	ErrCancelUnconfirmed = errors.New("cancel requires explicit confirmation")
	ErrEmptyTeam         = errors.New("team name required")
)

// Selection é a escolha ativa do operador pra entrada de resultado.
type Selection struct {
	MatchID string
	Outcome string
}

// Controller mantém a visão local das partidas e a seleção ativa.
// A progressão "pra frente" não é imposta aqui: qualquer status que o store
// aceitar é refletido, e por isso o conjunto elegível pra resultado é
// re-derivado do zero a cada refresh em vez de confiar em filtro anterior.
type Controller struct {
	log   *zap.Logger
	store Store

	mu        sync.Mutex
	matches   []authority.Match
	eligible  map[string]authority.Match
	selection Selection
}

func NewController(log *zap.Logger, store Store) *Controller {
	return &Controller{
		log:      log,
		store:    store,
		eligible: make(map[string]authority.Match),
	}
}

// statuses elegíveis pra entrada/edição de resultado
func eligibleStatus(s authority.MatchStatus) bool {
	switch s {
	case authority.StatusLive, authority.StatusLocked, authority.StatusCompleted, authority.StatusResultDeclared:
		return true
	}
	return false
}

// Refresh substitui a visão local por re-fetch completo e re-deriva o
// conjunto elegível.
func (c *Controller) Refresh(ctx context.Context) error {
	ms, err := c.store.ListMatches(ctx)
	if err != nil {
		return fmt.Errorf("refresh matches: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.matches = ms
	c.eligible = make(map[string]authority.Match, len(ms))
	for _, m := range ms {
		if eligibleStatus(m.Status) {
			c.eligible[m.ID] = m
		}
	}
	return nil
}

// Matches devolve uma cópia da visão local.
func (c *Controller) Matches() []authority.Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]authority.Match, len(c.matches))
	copy(out, c.matches)
	return out
}

// Eligible devolve, na ordem da listagem, as partidas elegíveis pra resultado.
func (c *Controller) Eligible() []authority.Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []authority.Match
	for _, m := range c.matches {
		if _, ok := c.eligible[m.ID]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Create monta o título "A vs B", deriva as chaves de odds dos nomes dos
// times e cria a partida como UPCOMING. As chaves nunca mudam depois disso.
func (c *Controller) Create(ctx context.Context, firstTeam, secondTeam string, startAt time.Time, minBet, maxBet, defaultOdd float64) (authority.Match, error) {
	firstTeam = strings.TrimSpace(firstTeam)
	secondTeam = strings.TrimSpace(secondTeam)
	if firstTeam == "" || secondTeam == "" {
		return authority.Match{}, ErrEmptyTeam
	}
	// NaN compara falso com tudo, então o teste é "é positivo e finito"
	if !(defaultOdd > 0) || math.IsInf(defaultOdd, 0) {
		defaultOdd = 1.90
	}

	spec := authority.MatchSpec{
		Title:   firstTeam + " vs " + secondTeam,
		StartAt: startAt,
		Status:  authority.StatusUpcoming,
		Odds: map[string]float64{
			firstTeam:  defaultOdd,
			secondTeam: defaultOdd,
		},
		MinBet: minBet,
		MaxBet: maxBet,
	}

	m, err := c.store.CreateMatch(ctx, spec)
	if err != nil {
		return authority.Match{}, err
	}
	c.log.Info("match created", zap.String("match_id", m.ID), zap.String("title", m.Title))

	// membership/elegibilidade vêm sempre da autoridade após mutação
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("refresh after create failed", zap.Error(err))
	}
	return m, nil
}

// SetStatus aplica uma transição. Localmente só se rejeita o que nunca é
// legal: sair de status terminal e cancelar sem confirmação ou fora de
// UPCOMING/LIVE. O resto é decisão do store.
func (c *Controller) SetStatus(ctx context.Context, id string, status authority.MatchStatus, confirmCancel bool) (authority.Match, error) {
	c.mu.Lock()
	var cur *authority.Match
	for i := range c.matches {
		if c.matches[i].ID == id {
			cur = &c.matches[i]
			break
		}
	}
	if cur == nil {
		c.mu.Unlock()
		return authority.Match{}, ErrUnknownMatch
	}
	if cur.Status.Terminal() {
		c.mu.Unlock()
		return authority.Match{}, ErrTerminalStatus
	}
	if status == authority.StatusCancelled {
		if cur.Status != authority.StatusUpcoming && cur.Status != authority.StatusLive {
			c.mu.Unlock()
			return authority.Match{}, ErrCancelState
		}
		if !confirmCancel {
			c.mu.Unlock()
			return authority.Match{}, ErrCancelUnconfirmed
		}
	}
	c.mu.Unlock()

	m, err := c.store.SetStatus(ctx, id, status)
	if err != nil {
		return authority.Match{}, err
	}
	c.log.Info("match status updated", zap.String("match_id", id), zap.String("status", string(m.Status)))

	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("refresh after status change failed", zap.Error(err))
	}
	return m, nil
}

// SelectMatch troca a partida ativa e zera qualquer resultado escolhido.
func (c *Controller) SelectMatch(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := false
	for _, m := range c.matches {
		if m.ID == id {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownMatch
	}
	c.selection = Selection{MatchID: id}
	return nil
}

// SelectOutcome escolhe um resultado pra partida ativa. Rejeitado localmente
// (antes de qualquer chamada remota) se a partida não for elegível ou o
// resultado não estiver entre as opções derivadas do título.
func (c *Controller) SelectOutcome(outcome string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection.MatchID == "" {
		return ErrNoSelection
	}
	m, ok := c.eligible[c.selection.MatchID]
	if !ok {
		return ErrNotEligible
	}
	choices, err := OutcomeChoices(m.Title)
	if err != nil {
		return err
	}
	for _, ch := range choices {
		if ch == outcome {
			c.selection.Outcome = outcome
			return nil
		}
	}
	return ErrUnknownOutcome
}

// Selection devolve a escolha ativa.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// ClearSelection limpa a escolha ativa (após publicação confirmada).
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = Selection{}
}

// EligibleMatch devolve a partida elegível pelo id, se houver.
func (c *Controller) EligibleMatch(id string) (authority.Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.eligible[id]
	return m, ok
}
