package events

// Evento emitido após crédito/débito confirmado pela autoridade.
type LedgerAdjusted struct {
	UserID     string  `json:"user_id"`
	Kind       string  `json:"kind"` // "CREDIT" | "DEBIT"
	Amount     float64 `json:"amount"`
	NewBalance float64 `json:"new_balance"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}
