package authority

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// TokenSource fornece a credencial bearer anexada a toda chamada. A aquisição
// e o armazenamento da sessão são colaboradores externos a este core.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken devolve sempre a mesma credencial (útil em local/dev e testes).
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// RedisToken lê a credencial da sessão do operador gravada no Redis pelo
// fluxo de login (fora do escopo deste serviço).
type RedisToken struct {
	Client *redis.Client
	Key    string
}

func (r *RedisToken) Token(ctx context.Context) (string, error) {
	return r.Client.Get(ctx, r.Key).Result()
}
