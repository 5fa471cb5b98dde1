package authority

import "time"

// MatchStatus é o enum de status do ciclo de vida de uma partida, conforme
// exposto pela autoridade remota.
type MatchStatus string

const (
	StatusUpcoming       MatchStatus = "UPCOMING"
	StatusLive           MatchStatus = "LIVE"
	StatusLocked         MatchStatus = "LOCKED"
	StatusResultDeclared MatchStatus = "RESULT_DECLARED"
	StatusCompleted      MatchStatus = "COMPLETED"
	StatusCancelled      MatchStatus = "CANCELLED"
)

// Terminal indica status dos quais nenhuma transição é aceita.
func (s MatchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Match é a partida como a autoridade a devolve. As chaves do mapa de odds são
// derivadas dos nomes dos times na criação e nunca renomeadas depois.
type Match struct {
	ID          string             `json:"_id"`
	Title       string             `json:"title"`
	StartAt     time.Time          `json:"startAt"`
	LastBetTime *time.Time         `json:"lastBetTime,omitempty"`
	Status      MatchStatus        `json:"status"`
	Odds        map[string]float64 `json:"odds"`
	MinBet      float64            `json:"minBet"`
	MaxBet      float64            `json:"maxBet"`
	Result      string             `json:"result,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// MatchSpec é o payload de criação de partida.
type MatchSpec struct {
	Title       string             `json:"title"`
	StartAt     time.Time          `json:"startAt"`
	Status      MatchStatus        `json:"status"`
	Odds        map[string]float64 `json:"odds"`
	MinBet      float64            `json:"minBet"`
	MaxBet      float64            `json:"maxBet"`
	LastBetTime *time.Time         `json:"lastBetTime,omitempty"`
}

// User tem saldo autoritativo apenas do lado remoto; o valor local é
// consultivo e sempre sobrescrito pela resposta do servidor.
type User struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	WalletBalance float64   `json:"walletBalance"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserSpec é o payload de criação de usuário.
type UserSpec struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Transaction é uma entrada do ledger de um usuário. O sentido de exibição é
// normalizado pelo tipo, não pelo sinal vindo do servidor.
type Transaction struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bet é somente leitura deste subsistema; liquidação acontece do lado remoto.
type Bet struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	MatchID   string    `json:"matchId"`
	Side      string    `json:"side"`
	Stake     float64   `json:"stake"`
	Win       float64   `json:"win"`
	CreatedAt time.Time `json:"createdAt"`
}

// LedgerResult é a resposta de add-tokens/withdraw-tokens. Transaction pode
// ser omitida por versões antigas do backend.
type LedgerResult struct {
	NewBalance  float64      `json:"newBalance"`
	Transaction *Transaction `json:"transaction,omitempty"`
}
