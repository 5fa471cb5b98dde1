package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/wager-admin-console/internal/audit"
	"github.com/radieske/wager-admin-console/internal/authority"
	chttp "github.com/radieske/wager-admin-console/internal/console/http"
	"github.com/radieske/wager-admin-console/internal/console/ws"
	"github.com/radieske/wager-admin-console/internal/events"
	"github.com/radieske/wager-admin-console/internal/ledger"
	"github.com/radieske/wager-admin-console/internal/matches"
	"github.com/radieske/wager-admin-console/internal/query"
	"github.com/radieske/wager-admin-console/internal/results"
	"github.com/radieske/wager-admin-console/internal/shared/cache"
	"github.com/radieske/wager-admin-console/internal/shared/config"
	"github.com/radieske/wager-admin-console/internal/shared/db"
	"github.com/radieske/wager-admin-console/internal/shared/logger"
	"github.com/radieske/wager-admin-console/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis: projeção de resultados publicados + sessão do operador
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Postgres: trilho de auditoria (opcional; sem DSN o trilho vira noop)
	var auditor interface {
		Record(ctx context.Context, action, entityID, detail string) error
	} = audit.Noop{}
	var trail chttp.AuditReader
	if cfg.PostgresDSN != "" {
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("pg", zap.Error(err))
		}
		defer pg.Close()
		t := audit.NewTrail(pg)
		if err := t.EnsureSchema(context.Background()); err != nil {
			log.Fatal("audit schema", zap.Error(err))
		}
		auditor = t
		trail = t
	}

	// Sessão: token estático em local/dev, session store no Redis caso contrário
	var tokens authority.TokenSource
	if cfg.StaticToken != "" {
		tokens = authority.StaticToken(cfg.StaticToken)
	} else {
		tokens = &authority.RedisToken{Client: rdb, Key: cfg.SessionTokenKey}
	}

	client := authority.New(cfg.AuthorityBaseURL, cfg.AuthorityTimeout, tokens)

	// Eventos: kafka quando configurado, noop caso contrário
	var sink interface {
		results.EventSink
		ledger.EventSink
	} = events.Noop{}
	if cfg.KafkaBrokers != "" {
		pub := events.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.TopicResultPublished, cfg.TopicLedgerAdjusted)
		defer pub.Close()
		sink = pub
	}

	hub := ws.NewHub(func(r *http.Request) bool { return true })

	// controllers do console
	mc := matches.NewController(log, client)
	store := results.NewRedisStore(rdb)
	rs := results.NewService(log, store, client, mc, auditor, sink)
	lw := ledger.NewWorkflow(log, client, auditor, sink)

	search := query.NewSearcher(cfg.DebounceDelay,
		func(ctx context.Context, term string) ([]authority.Bet, error) {
			return client.ListBets(ctx, term)
		},
		func(term string) { hub.Broadcast("bets_search", term) },
	)

	// visão inicial; falha aqui não é fatal, o próximo refresh converge
	if err := mc.Refresh(context.Background()); err != nil {
		log.Warn("initial match refresh failed", zap.Error(err))
	}
	if err := lw.RefreshUsers(context.Background()); err != nil {
		log.Warn("initial user refresh failed", zap.Error(err))
	}

	api := chttp.NewServer(log, mc, rs, lw, client, search, hub, trail)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("admin-console listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
