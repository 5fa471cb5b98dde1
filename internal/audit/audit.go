package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trail grava cada ação de operador num trilho append-only em Postgres.
// Falha de auditoria nunca derruba a operação que a originou; o chamador só
// loga o erro.
type Trail struct{ db *sql.DB }

func NewTrail(db *sql.DB) *Trail { return &Trail{db: db} }

// EnsureSchema cria a tabela do trilho quando ainda não existe.
func (t *Trail) EnsureSchema(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS operator_audit (
			id          TEXT PRIMARY KEY,
			action      TEXT NOT NULL,
			entity_id   TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Record insere uma entrada no trilho.
func (t *Trail) Record(ctx context.Context, action, entityID, detail string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO operator_audit (id, action, entity_id, detail)
		VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), action, entityID, detail,
	)
	return err
}

// Entry é uma linha do trilho.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entityId"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// Recent lista as entradas mais novas primeiro.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, action, entity_id, detail, created_at
		FROM operator_audit
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Noop descarta registros (deploys sem Postgres de auditoria).
type Noop struct{}

func (Noop) Record(ctx context.Context, action, entityID, detail string) error { return nil }
