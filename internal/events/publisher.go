package events

import (
	"context"
	"encoding/json"
	"time"

	skafka "github.com/radieske/wager-admin-console/internal/shared/kafka"
	cevents "github.com/radieske/wager-admin-console/pkg/contracts/events"
)

// KafkaPublisher emite os eventos de domínio do console. Cada mensagem é
// chaveada pela entidade pra manter a ordem por partição.
type KafkaPublisher struct {
	Results *skafka.Writer
	Ledger  *skafka.Writer
}

func NewKafkaPublisher(brokers []string, resultTopic, ledgerTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		Results: skafka.NewWriter(brokers, resultTopic),
		Ledger:  skafka.NewWriter(brokers, ledgerTopic),
	}
}

func (p *KafkaPublisher) ResultPublished(ctx context.Context, e cevents.ResultPublished) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return skafka.WriteJSON(ctx, p.Results, e.MatchID, b)
}

func (p *KafkaPublisher) LedgerAdjusted(ctx context.Context, e cevents.LedgerAdjusted) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return skafka.WriteJSON(ctx, p.Ledger, e.UserID, b)
}

func (p *KafkaPublisher) Close() error {
	err1 := p.Results.Close()
	err2 := p.Ledger.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Noop é usado quando KAFKA_BROKERS não está configurado.
type Noop struct{}

func (Noop) ResultPublished(ctx context.Context, e cevents.ResultPublished) error { return nil }
func (Noop) LedgerAdjusted(ctx context.Context, e cevents.LedgerAdjusted) error   { return nil }
