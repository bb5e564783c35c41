package models

import "time"

// User is a bracelet owner (table usuarios). PulseraID is set during the
// activation transaction and never reassigned afterwards.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	PulseraID    *int64     `json:"pulsera_id"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session records an issued bearer token (table sesiones_usuarios). The token
// itself is never stored, only its hash. Rows are append-only; a maintenance
// job removes them after expiry.
type Session struct {
	ID        int64     `json:"id"`
	UsuarioID int64     `json:"usuario_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
