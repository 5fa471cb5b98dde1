package topics

// Tópicos Kafka emitidos pelo admin-console
const (
	ResultPublished = "console.result_published"
	LedgerAdjusted  = "console.ledger_adjusted"
)
