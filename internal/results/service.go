package results

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wager-admin-console/internal/authority"
	"github.com/radieske/wager-admin-console/internal/matches"
	"github.com/radieske/wager-admin-console/internal/shared/metrics"
	cevents "github.com/radieske/wager-admin-console/pkg/contracts/events"
)

// Declarer é a fatia do client da autoridade usada na publicação.
type Declarer interface {
	DeclareResult(ctx context.Context, id, outcome string) (string, error)
}

// Lifecycle é o que o serviço precisa do controller de partidas.
type Lifecycle interface {
	Refresh(ctx context.Context) error
	SelectMatch(id string) error
	SelectOutcome(outcome string) error
	Selection() matches.Selection
	ClearSelection()
	EligibleMatch(id string) (authority.Match, bool)
}

// Auditor registra a ação do operador no trilho local.
type Auditor interface {
	Record(ctx context.Context, action, entityID, detail string) error
}

// EventSink publica o evento de domínio após confirmação remota.
type EventSink interface {
	ResultPublished(ctx context.Context, e cevents.ResultPublished) error
}

var (
	ErrEmptyMatchID = errors.New("matchId required")
	ErrEmptyOutcome = errors.New("outcome required")
	ErrNoPrior      = errors.New("no published result for match")
)

// Service implementa a publicação de resultados com reconciliação contra a
// autoridade: o cache local só muda depois da confirmação remota, e o upsert
// por matchID garante no máximo uma entrada por partida.
type Service struct {
	log       *zap.Logger
	store     Store
	declarer  Declarer
	lifecycle Lifecycle
	audit     Auditor
	events    EventSink

	now   func() time.Time
	newID func() string
}

func NewService(log *zap.Logger, store Store, d Declarer, lc Lifecycle, audit Auditor, events EventSink) *Service {
	return &Service{
		log:       log,
		store:     store,
		declarer:  d,
		lifecycle: lc,
		audit:     audit,
		events:    events,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Publish declara o resultado na autoridade e, só em caso de sucesso, faz o
// upsert da projeção local (substituição completa de qualquer entrada
// anterior do mesmo matchID), limpa a seleção ativa e dispara um refresh da
// listagem pra re-derivar elegibilidade.
func (s *Service) Publish(ctx context.Context, matchID, outcome string) (PublishedResult, string, error) {
	if matchID == "" {
		return PublishedResult{}, "", ErrEmptyMatchID
	}
	if outcome == "" {
		return PublishedResult{}, "", ErrEmptyOutcome
	}

	// snapshot do título antes da declaração mudar a listagem
	title := ""
	if m, ok := s.lifecycle.EligibleMatch(matchID); ok {
		title = m.Title
	} else if prior, ok, err := s.store.Get(ctx, matchID); err == nil && ok {
		title = prior.Title
	}

	msg, err := s.declarer.DeclareResult(ctx, matchID, outcome)
	if err != nil {
		// falha remota: cache e seleção ficam intactos
		return PublishedResult{}, "", err
	}

	entry := PublishedResult{
		ID:          s.newID(),
		MatchID:     matchID,
		Title:       title,
		Outcome:     outcome,
		PublishedAt: s.now(),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return PublishedResult{}, "", err
	}

	s.lifecycle.ClearSelection()
	if err := s.lifecycle.Refresh(ctx); err != nil {
		s.log.Warn("refresh after publish failed", zap.Error(err))
	}

	metrics.ResultsPublished.Inc()
	s.log.Info("result published",
		zap.String("match_id", matchID),
		zap.String("outcome", outcome))

	if err := s.events.ResultPublished(ctx, cevents.ResultPublished{
		MatchID: matchID,
		Title:   title,
		Outcome: outcome,
	}); err != nil {
		s.log.Warn("publish event failed", zap.Error(err))
	}
	if err := s.audit.Record(ctx, "RESULT_PUBLISHED", matchID, outcome); err != nil {
		s.log.Warn("audit record failed", zap.Error(err))
	}

	return entry, msg, nil
}

// PublishSelection publica a seleção ativa do operador.
func (s *Service) PublishSelection(ctx context.Context) (PublishedResult, string, error) {
	sel := s.lifecycle.Selection()
	return s.Publish(ctx, sel.MatchID, sel.Outcome)
}

// PrefillExisting pré-preenche a seleção com o resultado já publicado de uma
// partida; a re-submissão segue exatamente o mesmo caminho da primeira
// publicação.
func (s *Service) PrefillExisting(ctx context.Context, matchID string) error {
	prior, ok, err := s.store.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPrior
	}
	if err := s.lifecycle.SelectMatch(matchID); err != nil {
		return err
	}
	return s.lifecycle.SelectOutcome(prior.Outcome)
}

// SubmitLabel escolhe o rótulo do botão: a existência de entrada prévia é
// usada só pra isso, o caminho de publicação é único.
func (s *Service) SubmitLabel(ctx context.Context, matchID string) string {
	if _, ok, err := s.store.Get(ctx, matchID); err == nil && ok {
		return "Update"
	}
	return "Publish"
}

// List devolve a projeção local, mais recente primeiro.
func (s *Service) List(ctx context.Context) ([]PublishedResult, error) {
	return s.store.List(ctx)
}
