package models

import "time"

// AuditEntry maps table auditoria_logs. Append-only; one row per
// security-relevant outcome, success or failure.
type AuditEntry struct {
	ID          int64          `json:"id"`
	UsuarioID   *int64         `json:"usuario_id"`
	Evento      string         `json:"evento"`
	Descripcion string         `json:"descripcion"`
	IPAddress   string         `json:"ip_address"`
	UserAgent   string         `json:"user_agent"`
	Extra       map[string]any `json:"datos_adicionales"`
	CreatedAt   time.Time      `json:"created_at"`
}
