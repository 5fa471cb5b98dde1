package ledger

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/wager-admin-console/internal/authority"
	cevents "github.com/radieske/wager-admin-console/pkg/contracts/events"
)

type fakeWallet struct {
	users []authority.User
	txs   []authority.Transaction

	addCalls      int
	withdrawCalls int
	txListCalls   int

	nextBalance float64
	nextTx      *authority.Transaction
	opErr       error
}

func (f *fakeWallet) ListUsers(ctx context.Context) ([]authority.User, error) {
	out := make([]authority.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeWallet) CreateUser(ctx context.Context, spec authority.UserSpec) (authority.User, error) {
	u := authority.User{ID: "u-new", Name: spec.Name, Email: spec.Email}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeWallet) AddTokens(ctx context.Context, userID string, amount float64) (authority.LedgerResult, error) {
	f.addCalls++
	if f.opErr != nil {
		return authority.LedgerResult{}, f.opErr
	}
	return authority.LedgerResult{NewBalance: f.nextBalance, Transaction: f.nextTx}, nil
}

func (f *fakeWallet) WithdrawTokens(ctx context.Context, userID string, amount float64) (authority.LedgerResult, error) {
	f.withdrawCalls++
	if f.opErr != nil {
		return authority.LedgerResult{}, f.opErr
	}
	return authority.LedgerResult{NewBalance: f.nextBalance, Transaction: f.nextTx}, nil
}

func (f *fakeWallet) ListTransactions(ctx context.Context, userID string) ([]authority.Transaction, error) {
	f.txListCalls++
	out := make([]authority.Transaction, len(f.txs))
	copy(out, f.txs)
	return out, nil
}

type sinkRec struct{ events []cevents.LedgerAdjusted }

func (s *sinkRec) LedgerAdjusted(ctx context.Context, e cevents.LedgerAdjusted) error {
	s.events = append(s.events, e)
	return nil
}

type auditRec struct{ actions []string }

func (a *auditRec) Record(ctx context.Context, action, entityID, detail string) error {
	a.actions = append(a.actions, action)
	return nil
}

func newTestWorkflow(t *testing.T, wallet *fakeWallet) (*Workflow, *sinkRec, *auditRec) {
	t.Helper()
	sink := &sinkRec{}
	au := &auditRec{}
	w := NewWorkflow(zap.NewNop(), wallet, au, sink)
	require.NoError(t, w.RefreshUsers(context.Background()))
	return w, sink, au
}

func TestCredit_RejectsInvalidAmountWithoutRemoteCall(t *testing.T) {
	wallet := &fakeWallet{users: []authority.User{{ID: "U1", WalletBalance: 100}}}
	w, _, _ := newTestWorkflow(t, wallet)

	for _, amount := range []float64{0, -10, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := w.Credit(context.Background(), "U1", amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = w.Debit(context.Background(), "U1", amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Zero(t, wallet.addCalls)
	assert.Zero(t, wallet.withdrawCalls)
}

func TestCredit_OverwritesBalanceWithServerValue(t *testing.T) {
	// saldo 100, crédito de 50, mas o servidor responde 150 com taxa própria:
	// o valor exibido é o do servidor, nunca 100+50 calculado aqui
	wallet := &fakeWallet{
		users:       []authority.User{{ID: "U1", Name: "Asha", WalletBalance: 100}},
		nextBalance: 150,
	}
	w, sink, au := newTestWorkflow(t, wallet)

	newBalance, err := w.Credit(context.Background(), "U1", 50)
	require.NoError(t, err)
	assert.Equal(t, 150.0, newBalance)

	users := w.Users()
	require.Len(t, users, 1)
	assert.Equal(t, 150.0, users[0].WalletBalance)

	require.Len(t, sink.events, 1)
	assert.Equal(t, cevents.LedgerAdjusted{UserID: "U1", Kind: "CREDIT", Amount: 50, NewBalance: 150}, sink.events[0])
	assert.Equal(t, []string{"LEDGER_CREDIT"}, au.actions)
}

func TestDebit_OverwritesBalanceWithServerValue(t *testing.T) {
	wallet := &fakeWallet{
		users:       []authority.User{{ID: "U1", WalletBalance: 100}},
		nextBalance: 42.5,
	}
	w, _, _ := newTestWorkflow(t, wallet)

	newBalance, err := w.Debit(context.Background(), "U1", 60)
	require.NoError(t, err)
	assert.Equal(t, 42.5, newBalance)
	assert.Equal(t, 42.5, w.Users()[0].WalletBalance)
	assert.Equal(t, 1, wallet.withdrawCalls)
	assert.Zero(t, wallet.addCalls)
}

func TestAdjust_RemoteFailureLeavesStateIntact(t *testing.T) {
	wallet := &fakeWallet{
		users: []authority.User{{ID: "U1", WalletBalance: 100}},
		opErr: errors.New("insufficient funds"),
	}
	w, sink, _ := newTestWorkflow(t, wallet)

	_, err := w.Debit(context.Background(), "U1", 60)
	require.Error(t, err)
	assert.Equal(t, 100.0, w.Users()[0].WalletBalance, "saldo anterior preservado")
	assert.Empty(t, sink.events)
}

func TestAdjust_OpenHistoryPrependThenRefresh(t *testing.T) {
	serverTx := &authority.Transaction{ID: "t9", UserID: "U1", Type: TypeAdminCredit, Amount: 50}
	wallet := &fakeWallet{
		users:       []authority.User{{ID: "U1", WalletBalance: 100}},
		txs:         []authority.Transaction{{ID: "t1", UserID: "U1", Type: TypeAdminCredit, Amount: 10}},
		nextBalance: 150,
		nextTx:      serverTx,
	}
	w, _, _ := newTestWorkflow(t, wallet)

	_, err := w.OpenHistory(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, 1, wallet.txListCalls)

	// o refresh devolve o ledger já com a transação nova
	wallet.txs = []authority.Transaction{*serverTx, {ID: "t1", UserID: "U1", Type: TypeAdminCredit, Amount: 10}}

	_, err = w.Credit(context.Background(), "U1", 50)
	require.NoError(t, err)

	assert.Equal(t, 2, wallet.txListCalls, "refresh completo após o prepend otimista")
	h, ok := w.HistoryView()
	require.True(t, ok)
	require.Len(t, h.Transactions, 2)
	assert.Equal(t, "t9", h.Transactions[0].ID, "transação do servidor na frente")
}

func TestAdjust_ClosedHistoryNotRefreshed(t *testing.T) {
	wallet := &fakeWallet{
		users:       []authority.User{{ID: "U1", WalletBalance: 100}},
		nextBalance: 150,
	}
	w, _, _ := newTestWorkflow(t, wallet)

	_, err := w.Credit(context.Background(), "U1", 50)
	require.NoError(t, err)
	assert.Zero(t, wallet.txListCalls, "sem visão aberta não há fetch de histórico")
}

func TestAdjust_HistoryOfOtherUserUntouched(t *testing.T) {
	wallet := &fakeWallet{
		users:       []authority.User{{ID: "U1"}, {ID: "U2"}},
		txs:         []authority.Transaction{{ID: "t1", UserID: "U2", Type: TypeAdminDebit, Amount: 5}},
		nextBalance: 10,
	}
	w, _, _ := newTestWorkflow(t, wallet)

	_, err := w.OpenHistory(context.Background(), "U2")
	require.NoError(t, err)
	calls := wallet.txListCalls

	_, err = w.Credit(context.Background(), "U1", 5)
	require.NoError(t, err)
	assert.Equal(t, calls, wallet.txListCalls, "histórico aberto é de outro usuário")
}

func TestOpenHistory_FiltersAdminTypes(t *testing.T) {
	wallet := &fakeWallet{
		users: []authority.User{{ID: "U1"}},
		txs: []authority.Transaction{
			{ID: "t1", Type: TypeAdminCredit, Amount: 10, CreatedAt: time.Now()},
			{ID: "t2", Type: "BET_STAKE", Amount: 30},
			{ID: "t3", Type: TypeWithdraw, Amount: 20},
			{ID: "t4", Type: "BET_WIN", Amount: 55},
			{ID: "t5", Type: TypeAdminWithdraw, Amount: 5},
			{ID: "t6", Type: TypeAdminDebit, Amount: 1},
		},
	}
	w, _, _ := newTestWorkflow(t, wallet)

	h, err := w.OpenHistory(context.Background(), "U1")
	require.NoError(t, err)

	var ids []string
	for _, tx := range h.Transactions {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"t1", "t3", "t5", "t6"}, ids, "tipos desconhecidos silenciosamente excluídos")
}

func TestDisplayAmount_SignNormalizedByType(t *testing.T) {
	assert.Equal(t, 10.0, DisplayAmount(authority.Transaction{Type: TypeAdminCredit, Amount: 10}))
	assert.Equal(t, 10.0, DisplayAmount(authority.Transaction{Type: TypeAdminCredit, Amount: -10}))
	assert.Equal(t, -20.0, DisplayAmount(authority.Transaction{Type: TypeWithdraw, Amount: 20}))
	assert.Equal(t, -20.0, DisplayAmount(authority.Transaction{Type: TypeAdminDebit, Amount: -20}))
}

func TestDisplayEmail_Default(t *testing.T) {
	assert.Equal(t, "-", DisplayEmail(authority.User{}))
	assert.Equal(t, "a@b.c", DisplayEmail(authority.User{Email: "a@b.c"}))
}

func TestCreateUser_RequiresNameAndPassword(t *testing.T) {
	wallet := &fakeWallet{}
	w, _, _ := newTestWorkflow(t, wallet)

	_, err := w.CreateUser(context.Background(), authority.UserSpec{Name: "", Password: "x"})
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = w.CreateUser(context.Background(), authority.UserSpec{Name: "x", Password: ""})
	assert.ErrorIs(t, err, ErrMissingField)

	u, err := w.CreateUser(context.Background(), authority.UserSpec{Name: "Asha", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "u-new", u.ID)
}
