package ledger

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/wager-admin-console/internal/authority"
	"github.com/radieske/wager-admin-console/internal/shared/metrics"
	cevents "github.com/radieske/wager-admin-console/pkg/contracts/events"
)

// WalletClient é a fatia do client da autoridade consumida pelo workflow.
type WalletClient interface {
	ListUsers(ctx context.Context) ([]authority.User, error)
	CreateUser(ctx context.Context, spec authority.UserSpec) (authority.User, error)
	AddTokens(ctx context.Context, userID string, amount float64) (authority.LedgerResult, error)
	WithdrawTokens(ctx context.Context, userID string, amount float64) (authority.LedgerResult, error)
	ListTransactions(ctx context.Context, userID string) ([]authority.Transaction, error)
}

// Auditor registra a ação do operador no trilho local.
type Auditor interface {
	Record(ctx context.Context, action, entityID, detail string) error
}

// EventSink publica o evento de domínio após confirmação remota.
type EventSink interface {
	LedgerAdjusted(ctx context.Context, e cevents.LedgerAdjusted) error
}

var (
	ErrInvalidAmount = errors.New("amount must be a positive finite number")
	ErrMissingField  = errors.New("name and password required")
)

// History é a visão de histórico aberta pra um usuário, já filtrada pro
// conjunto de tipos administrativos.
type History struct {
	UserID       string
	Transactions []authority.Transaction
}

// Workflow aplica crédito/débito e mantém a visão local de usuários. O saldo
// exibido é consultivo: sempre sobrescrito pelo saldo que o servidor devolve,
// nunca calculado aqui a partir do delta.
type Workflow struct {
	log    *zap.Logger
	client WalletClient
	audit  Auditor
	events EventSink

	mu      sync.Mutex
	users   []authority.User
	history *History
}

func NewWorkflow(log *zap.Logger, client WalletClient, audit Auditor, events EventSink) *Workflow {
	return &Workflow{log: log, client: client, audit: audit, events: events}
}

// RefreshUsers substitui a visão local por re-fetch completo.
func (w *Workflow) RefreshUsers(ctx context.Context) error {
	users, err := w.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.users = users
	w.mu.Unlock()
	return nil
}

// Users devolve uma cópia da visão local.
func (w *Workflow) Users() []authority.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]authority.User, len(w.users))
	copy(out, w.users)
	return out
}

// CreateUser cria o usuário na autoridade e re-busca a listagem.
func (w *Workflow) CreateUser(ctx context.Context, spec authority.UserSpec) (authority.User, error) {
	if spec.Name == "" || spec.Password == "" {
		return authority.User{}, ErrMissingField
	}
	u, err := w.client.CreateUser(ctx, spec)
	if err != nil {
		return authority.User{}, err
	}
	if err := w.RefreshUsers(ctx); err != nil {
		w.log.Warn("refresh users after create failed", zap.Error(err))
	}
	return u, nil
}

// Credit aplica um crédito administrativo. Valor não positivo ou não finito é
// rejeitado localmente, sem ida à rede.
func (w *Workflow) Credit(ctx context.Context, userID string, amount float64) (float64, error) {
	return w.adjust(ctx, "CREDIT", userID, amount)
}

// Debit aplica um débito administrativo, simétrico ao crédito.
func (w *Workflow) Debit(ctx context.Context, userID string, amount float64) (float64, error) {
	return w.adjust(ctx, "DEBIT", userID, amount)
}

func validAmount(amount float64) bool {
	return amount > 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

func (w *Workflow) adjust(ctx context.Context, kind, userID string, amount float64) (float64, error) {
	if !validAmount(amount) {
		return 0, ErrInvalidAmount
	}

	var res authority.LedgerResult
	var err error
	if kind == "CREDIT" {
		res, err = w.client.AddTokens(ctx, userID, amount)
	} else {
		res, err = w.client.WithdrawTokens(ctx, userID, amount)
	}
	if err != nil {
		// falha remota: nada foi aplicado localmente, estado anterior intacto
		return 0, err
	}

	w.applyConfirmed(userID, res)

	// o histórico aberto ganha o registro do servidor de imediato e em
	// seguida um refresh completo corrige qualquer divergência
	if w.historyOpenFor(userID) {
		if err := w.refreshHistory(ctx, userID); err != nil {
			w.log.Warn("history refresh failed", zap.Error(err))
		}
	}

	metrics.LedgerOps.WithLabelValues(kind).Inc()
	w.log.Info("ledger adjusted",
		zap.String("user_id", userID),
		zap.String("kind", kind),
		zap.Float64("amount", amount),
		zap.Float64("new_balance", res.NewBalance))

	if err := w.events.LedgerAdjusted(ctx, cevents.LedgerAdjusted{
		UserID:     userID,
		Kind:       kind,
		Amount:     amount,
		NewBalance: res.NewBalance,
	}); err != nil {
		w.log.Warn("publish event failed", zap.Error(err))
	}
	if err := w.audit.Record(ctx, "LEDGER_"+kind, userID, ""); err != nil {
		w.log.Warn("audit record failed", zap.Error(err))
	}

	return res.NewBalance, nil
}

// applyConfirmed sobrescreve o saldo exibido com o valor autoritativo e
// prependa a transação devolvida (quando houver) na visão aberta.
func (w *Workflow) applyConfirmed(userID string, res authority.LedgerResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.users {
		if w.users[i].ID == userID {
			w.users[i].WalletBalance = res.NewBalance
			break
		}
	}

	if w.history != nil && w.history.UserID == userID && res.Transaction != nil && IsAdminType(res.Transaction.Type) {
		w.history.Transactions = append([]authority.Transaction{*res.Transaction}, w.history.Transactions...)
	}
}

func (w *Workflow) historyOpenFor(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history != nil && w.history.UserID == userID
}

// OpenHistory abre a visão de histórico de um usuário com re-fetch completo.
func (w *Workflow) OpenHistory(ctx context.Context, userID string) (History, error) {
	txs, err := w.client.ListTransactions(ctx, userID)
	if err != nil {
		return History{}, err
	}
	h := History{UserID: userID, Transactions: FilterAdmin(txs)}
	w.mu.Lock()
	w.history = &h
	w.mu.Unlock()
	return h, nil
}

// CloseHistory fecha a visão aberta.
func (w *Workflow) CloseHistory() {
	w.mu.Lock()
	w.history = nil
	w.mu.Unlock()
}

// HistoryView devolve uma cópia da visão aberta, se houver.
func (w *Workflow) HistoryView() (History, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.history == nil {
		return History{}, false
	}
	out := History{UserID: w.history.UserID}
	out.Transactions = make([]authority.Transaction, len(w.history.Transactions))
	copy(out.Transactions, w.history.Transactions)
	return out, true
}

func (w *Workflow) refreshHistory(ctx context.Context, userID string) error {
	txs, err := w.client.ListTransactions(ctx, userID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.history != nil && w.history.UserID == userID {
		w.history.Transactions = FilterAdmin(txs)
	}
	return nil
}
