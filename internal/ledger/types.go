package ledger

import "github.com/radieske/wager-admin-console/internal/authority"

// Tipos de transação originados pelo console administrativo. O histórico só
// exibe membros deste conjunto; outros tipos existem no ledger mas ficam fora
// desta visão.
const (
	TypeAdminCredit   = "ADMIN_CREDIT"
	TypeAdminDebit    = "ADMIN_DEBIT"
	TypeWithdraw      = "WITHDRAW"
	TypeAdminWithdraw = "ADMIN_WITHDRAW"
)

var adminTypes = map[string]bool{
	TypeAdminCredit:   true,
	TypeAdminDebit:    true,
	TypeWithdraw:      true,
	TypeAdminWithdraw: true,
}

func IsAdminType(t string) bool { return adminTypes[t] }

// FilterAdmin mantém só as transações administrativas, na ordem recebida.
func FilterAdmin(txs []authority.Transaction) []authority.Transaction {
	out := make([]authority.Transaction, 0, len(txs))
	for _, tx := range txs {
		if IsAdminType(tx.Type) {
			out = append(out, tx)
		}
	}
	return out
}

// DisplayAmount normaliza o sinal pela natureza do tipo, não pelo sinal que
// veio do servidor: crédito positivo, família de débito negativa.
func DisplayAmount(tx authority.Transaction) float64 {
	amount := tx.Amount
	if amount < 0 {
		amount = -amount
	}
	if tx.Type == TypeAdminCredit {
		return amount
	}
	return -amount
}

// DisplayEmail aplica o default de exibição quando o cadastro não tem email.
func DisplayEmail(u authority.User) string {
	if u.Email == "" {
		return "-"
	}
	return u.Email
}
