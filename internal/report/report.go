package report

import (
	"strings"
	"time"

	"github.com/radieske/wager-admin-console/internal/authority"
)

// Filter delimita o relatório de apostas. Limite ausente (nil) não restringe
// aquele lado; os limites são inclusivos.
type Filter struct {
	From   *time.Time
	To     *time.Time
	UserID string // busca por substring, sem distinção de maiúsculas
}

// Totals agrega o conjunto filtrado. Net pode ser negativo.
type Totals struct {
	Stake float64
	Win   float64
	Net   float64
}

// Apply devolve exatamente o subconjunto com From <= createdAt <= To e, se
// informado, userId contendo o termo.
func Apply(bets []authority.Bet, f Filter) []authority.Bet {
	term := strings.ToLower(f.UserID)
	out := make([]authority.Bet, 0, len(bets))
	for _, b := range bets {
		if f.From != nil && b.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && b.CreatedAt.After(*f.To) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(b.UserID), term) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Sum fecha os totais do conjunto filtrado: soma aritmética linha a linha,
// net = win - stake.
func Sum(bets []authority.Bet) Totals {
	var t Totals
	for _, b := range bets {
		t.Stake += b.Stake
		t.Win += b.Win
	}
	t.Net = t.Win - t.Stake
	return t
}
