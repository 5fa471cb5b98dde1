package metrics

import "github.com/prometheus/client_golang/prometheus"

// Contadores do console, registrados no registry padrão exposto pelo servidor acima
var (
	ResultsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "console_results_published_total",
		Help: "resultados publicados com confirmação da autoridade",
	})
	LedgerOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_ledger_ops_total",
		Help: "operações de crédito/débito confirmadas",
	}, []string{"kind"})
	AuthorityErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_authority_errors_total",
		Help: "falhas em chamadas à autoridade remota",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(ResultsPublished, LedgerOps, AuthorityErrors)
}
