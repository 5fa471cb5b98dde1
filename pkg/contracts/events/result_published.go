package events

// Evento emitido após a autoridade confirmar a declaração de um resultado.
type ResultPublished struct {
	MatchID  string `json:"match_id"`
	Title    string `json:"title"`
	Outcome  string `json:"outcome"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
