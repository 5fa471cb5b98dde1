package results

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// PublishedResult é a projeção local de um resultado publicado, chaveada
// unicamente por MatchID. No máximo uma entrada por partida.
type PublishedResult struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"matchId"`
	Title       string    `json:"title"`
	Outcome     string    `json:"outcome"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Store é o cache durável de resultados publicados: get/upsert/list em vez de
// estado compartilhado ambiente.
type Store interface {
	Get(ctx context.Context, matchID string) (PublishedResult, bool, error)
	Upsert(ctx context.Context, r PublishedResult) error
	List(ctx context.Context) ([]PublishedResult, error)
}

const hashKey = "results:published"

// RedisStore guarda cada resultado como campo de um hash Redis, campo =
// matchID. Upsert substitui a entrada inteira; nunca há duplicata por chave.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(c *redis.Client) *RedisStore { return &RedisStore{Client: c} }

func (s *RedisStore) Get(ctx context.Context, matchID string) (PublishedResult, bool, error) {
	b, err := s.Client.HGet(ctx, hashKey, matchID).Bytes()
	if err == redis.Nil {
		return PublishedResult{}, false, nil
	}
	if err != nil {
		return PublishedResult{}, false, err
	}
	var r PublishedResult
	if err := json.Unmarshal(b, &r); err != nil {
		return PublishedResult{}, false, err
	}
	return r, true, nil
}

func (s *RedisStore) Upsert(ctx context.Context, r PublishedResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.Client.HSet(ctx, hashKey, r.MatchID, b).Err()
}

// List devolve as entradas mais recentes primeiro.
func (s *RedisStore) List(ctx context.Context) ([]PublishedResult, error) {
	vals, err := s.Client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]PublishedResult, 0, len(vals))
	for _, v := range vals {
		var r PublishedResult
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}
