package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/wager-admin-console/internal/audit"
	"github.com/radieske/wager-admin-console/internal/authority"
	"github.com/radieske/wager-admin-console/internal/console/ws"
	"github.com/radieske/wager-admin-console/internal/ledger"
	"github.com/radieske/wager-admin-console/internal/matches"
	"github.com/radieske/wager-admin-console/internal/query"
	"github.com/radieske/wager-admin-console/internal/report"
	"github.com/radieske/wager-admin-console/internal/results"
	"github.com/radieske/wager-admin-console/internal/shared/metrics"
)

// BetLister é a fatia do client da autoridade usada no relatório.
type BetLister interface {
	ListBets(ctx context.Context, userID string) ([]authority.Bet, error)
}

// AuditReader expõe o trilho de auditoria pra consulta. Nil quando o deploy
// roda sem Postgres.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Server expõe a API REST do operador por cima dos controllers do console.
// Cada handler é fino: validação local primeiro, autoridade depois, resposta
// derivada do estado confirmado.
type Server struct {
	log     *zap.Logger
	matches *matches.Controller
	results *results.Service
	ledger  *ledger.Workflow
	bets    BetLister
	search  *query.Searcher[authority.Bet]
	hub     *ws.Hub
	trail   AuditReader
}

func NewServer(log *zap.Logger, mc *matches.Controller, rs *results.Service, lw *ledger.Workflow, bets BetLister, search *query.Searcher[authority.Bet], hub *ws.Hub, trail AuditReader) *Server {
	return &Server{log: log, matches: mc, results: rs, ledger: lw, bets: bets, search: search, hub: hub, trail: trail}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/v1/matches", s.listMatches)
	r.Post("/v1/matches", s.createMatch)
	r.Put("/v1/matches/{id}/status", s.setStatus)

	r.Get("/v1/results", s.listResults)
	r.Get("/v1/results/eligible", s.listEligible)
	r.Post("/v1/results/select", s.selectResult)
	r.Post("/v1/results/publish", s.publishResult)

	r.Get("/v1/users", s.listUsers)
	r.Post("/v1/users", s.createUser)
	r.Post("/v1/users/{id}/credit", s.credit)
	r.Post("/v1/users/{id}/debit", s.debit)
	r.Get("/v1/users/{id}/transactions", s.history)

	r.Get("/v1/audit", s.auditTrail)

	r.Get("/v1/bets/report", s.betsReport)
	r.Post("/v1/bets/search", s.searchInput)
	r.Get("/v1/bets/search", s.searchSnapshot)

	r.Get("/ws", s.hub.HandleWS)

	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr mapeia rejeições locais pra 4xx e falhas remotas pra mensagem da
// autoridade (ou fallback genérico).
func writeErr(w http.ResponseWriter, err error) {
	var apiErr *authority.APIError
	switch {
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": apiErr.Error()})
	case errors.Is(err, matches.ErrUnknownMatch), errors.Is(err, results.ErrNoPrior):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, authority.ErrUnexpectedShape):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.Is(err, matches.ErrNoSelection),
		errors.Is(err, matches.ErrNotEligible),
		errors.Is(err, matches.ErrUnknownOutcome),
		errors.Is(err, matches.ErrTerminalStatus),
		errors.Is(err, matches.ErrCancelState),
		errors.Is(err, matches.ErrCancelUnconfirmed),
		errors.Is(err, matches.ErrEmptyTeam),
		errors.Is(err, matches.ErrBadTitle),
		errors.Is(err, results.ErrEmptyMatchID),
		errors.Is(err, results.ErrEmptyOutcome),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrMissingField):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	if err := s.matches.Refresh(r.Context()); err != nil {
		metrics.AuthorityErrors.WithLabelValues("list_matches").Inc()
		writeErr(w, err)
		return
	}
	s.hub.Broadcast("matches_refreshed", "")
	writeJSON(w, http.StatusOK, map[string]any{"matches": s.matches.Matches()})
}

type createMatchRequest struct {
	FirstTeam  string    `json:"firstTeam"`
	SecondTeam string    `json:"secondTeam"`
	StartAt    time.Time `json:"startAt"`
	MinBet     float64   `json:"minBet"`
	MaxBet     float64   `json:"maxBet"`
	DefaultOdd float64   `json:"defaultOdd,omitempty"`
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	m, err := s.matches.Create(r.Context(), req.FirstTeam, req.SecondTeam, req.StartAt, req.MinBet, req.MaxBet, req.DefaultOdd)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.hub.Broadcast("matches_refreshed", m.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"match": m})
}

type setStatusRequest struct {
	Status  authority.MatchStatus `json:"status"`
	Confirm bool                  `json:"confirm,omitempty"`
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	m, err := s.matches.SetStatus(r.Context(), id, req.Status, req.Confirm)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.hub.Broadcast("matches_refreshed", id)
	writeJSON(w, http.StatusOK, map[string]any{"match": m})
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	rs, err := s.results.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": rs})
}

// listEligible entrega o material da tela de resultados: partidas elegíveis,
// opções derivadas do título e o rótulo do botão por partida.
func (s *Server) listEligible(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Match   authority.Match `json:"match"`
		Choices []string        `json:"choices"`
		Label   string          `json:"label"`
	}
	out := []entry{}
	for _, m := range s.matches.Eligible() {
		choices, err := matches.OutcomeChoices(m.Title)
		if err != nil {
			s.log.Warn("bad match title", zap.String("match_id", m.ID), zap.Error(err))
			continue
		}
		out = append(out, entry{Match: m, Choices: choices, Label: s.results.SubmitLabel(r.Context(), m.ID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"eligible": out})
}

type selectRequest struct {
	MatchID string `json:"matchId"`
	Outcome string `json:"outcome,omitempty"`
	Prefill bool   `json:"prefill,omitempty"`
}

func (s *Server) selectResult(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	if req.Prefill {
		if err := s.results.PrefillExisting(r.Context(), req.MatchID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"selection": s.matches.Selection()})
		return
	}

	if err := s.matches.SelectMatch(req.MatchID); err != nil {
		writeErr(w, err)
		return
	}
	if req.Outcome != "" {
		if err := s.matches.SelectOutcome(req.Outcome); err != nil {
			writeErr(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"selection": s.matches.Selection()})
}

type publishRequest struct {
	MatchID string `json:"matchId,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

func (s *Server) publishResult(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	var (
		entry results.PublishedResult
		msg   string
		err   error
	)
	if req.MatchID != "" || req.Outcome != "" {
		entry, msg, err = s.results.Publish(r.Context(), req.MatchID, req.Outcome)
	} else {
		entry, msg, err = s.results.PublishSelection(r.Context())
	}
	if err != nil {
		metrics.AuthorityErrors.WithLabelValues("declare_result").Inc()
		writeErr(w, err)
		return
	}
	s.hub.Broadcast("result_published", entry.MatchID)
	writeJSON(w, http.StatusOK, map[string]any{"result": entry, "message": msg})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RefreshUsers(r.Context()); err != nil {
		metrics.AuthorityErrors.WithLabelValues("list_users").Inc()
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": s.ledger.Users()})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var spec authority.UserSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	u, err := s.ledger.CreateUser(r.Context(), spec)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	s.adjust(w, r, s.ledger.Credit)
}

func (s *Server) debit(w http.ResponseWriter, r *http.Request) {
	s.adjust(w, r, s.ledger.Debit)
}

func (s *Server) adjust(w http.ResponseWriter, r *http.Request, op func(context.Context, string, float64) (float64, error)) {
	id := chi.URLParam(r, "id")
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	newBalance, err := op(r.Context(), id, req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.hub.Broadcast("ledger_adjusted", id)
	writeJSON(w, http.StatusOK, map[string]any{"newBalance": newBalance})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h, err := s.ledger.OpenHistory(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": h.Transactions})
}

func (s *Server) auditTrail(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []audit.Entry{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.trail.Recent(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// betsReport busca as apostas na autoridade e aplica filtro e totais locais.
// Limites de data em RFC3339; ausência de limite não restringe aquele lado.
func (s *Server) betsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f report.Filter
	f.UserID = q.Get("userId")
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad from"})
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad to"})
			return
		}
		f.To = &t
	}

	bets, err := s.bets.ListBets(r.Context(), "")
	if err != nil {
		metrics.AuthorityErrors.WithLabelValues("list_bets").Inc()
		writeErr(w, err)
		return
	}

	rows := report.Apply(bets, f)
	writeJSON(w, http.StatusOK, map[string]any{
		"bets":   rows,
		"totals": report.Sum(rows),
	})
}

type searchRequest struct {
	Term string `json:"term"`
}

// searchInput registra uma tecla; a consulta remota só sai quando o debounce
// vence. O resultado chega via snapshot e dica no websocket.
func (s *Server) searchInput(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	s.search.Input(context.WithoutCancel(r.Context()), req.Term)
	writeJSON(w, http.StatusAccepted, map[string]string{"term": req.Term})
}

func (s *Server) searchSnapshot(w http.ResponseWriter, r *http.Request) {
	term, items, err := s.search.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"term": term, "bets": items, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"term": term, "bets": items})
}
