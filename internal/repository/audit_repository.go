package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caesarius1187/tgh/internal/models"
)

type AuditRepository struct {
	db Querier
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, entry models.AuditEntry) error {
	var extra []byte
	if entry.Extra != nil {
		raw, err := json.Marshal(entry.Extra)
		if err != nil {
			return err
		}
		extra = raw
	}

	const query = `
		INSERT INTO auditoria_logs (usuario_id, evento, descripcion, ip_address, user_agent, datos_adicionales, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		entry.UsuarioID,
		entry.Evento,
		entry.Descripcion,
		entry.IPAddress,
		entry.UserAgent,
		extra,
	)
	return err
}
