package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caesarius1187/tgh/internal/models"
)

// ClaimInput carries everything the activation transaction needs. The caller
// has already validated input and hashed the password.
type ClaimInput struct {
	Username     string
	PasswordHash string
	BraceletID   int64
	PublicURL    string
	IPAddress    string
	UserAgent    string
}

// TokenIssuer mints the bearer token for a newly created user. It runs inside
// the claim transaction because the token embeds the generated user id; its
// hash is what the session row stores.
type TokenIssuer func(userID int64, username string) (token string, tokenHash string, expiresAt time.Time, err error)

// ActivationRepository owns the one transaction in the system: user creation,
// bracelet activation and session creation become visible together or not at
// all.
type ActivationRepository struct {
	pool *pgxpool.Pool
}

func NewActivationRepository(pool *pgxpool.Pool) *ActivationRepository {
	return &ActivationRepository{pool: pool}
}

// ClaimBracelet binds a new user to an unclaimed bracelet. The conditional
// update in BraceletRepository.Activate decides concurrent claims: exactly one
// transaction wins, the loser rolls back with ErrBraceletClaimed.
func (r *ActivationRepository) ClaimBracelet(ctx context.Context, input ClaimInput, issue TokenIssuer) (models.User, string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.User{}, "", fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	user := models.User{
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		PulseraID:    &input.BraceletID,
		IsActive:     true,
	}

	users := NewUserRepository(r.pool).WithTx(tx)
	if err := users.Create(ctx, &user); err != nil {
		return models.User{}, "", fmt.Errorf("create user: %w", err)
	}

	bracelets := NewBraceletRepository(r.pool).WithTx(tx)
	if err := bracelets.Activate(ctx, input.BraceletID, input.PublicURL); err != nil {
		return models.User{}, "", err
	}

	token, tokenHash, expiresAt, err := issue(user.ID, user.Username)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	sessions := NewSessionRepository(r.pool).WithTx(tx)
	if err := sessions.Create(ctx, models.Session{
		UsuarioID: user.ID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	}); err != nil {
		return models.User{}, "", fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, "", fmt.Errorf("commit claim tx: %w", err)
	}

	return user, token, nil
}
