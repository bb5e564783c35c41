package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caesarius1187/tgh/internal/models"
)

var (
	ErrBraceletNotFound = errors.New("bracelet not found")
	ErrBraceletClaimed  = errors.New("bracelet already claimed")
)

type BraceletRepository struct {
	db Querier
}

func NewBraceletRepository(pool *pgxpool.Pool) *BraceletRepository {
	return &BraceletRepository{db: pool}
}

func (r *BraceletRepository) WithTx(tx pgx.Tx) *BraceletRepository {
	return &BraceletRepository{db: tx}
}

func (r *BraceletRepository) GetBySerial(ctx context.Context, serial string) (models.Bracelet, error) {
	const query = `
		SELECT id, serial, is_active, public_url, created_at, updated_at
		FROM pulseras WHERE serial = $1
	`

	row := r.db.QueryRow(ctx, query, serial)
	var bracelet models.Bracelet
	if err := row.Scan(
		&bracelet.ID,
		&bracelet.Serial,
		&bracelet.IsActive,
		&bracelet.PublicURL,
		&bracelet.CreatedAt,
		&bracelet.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Bracelet{}, ErrBraceletNotFound
		}
		return models.Bracelet{}, err
	}
	return bracelet, nil
}

func (r *BraceletRepository) GetByID(ctx context.Context, id int64) (models.Bracelet, error) {
	const query = `
		SELECT id, serial, is_active, public_url, created_at, updated_at
		FROM pulseras WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, id)
	var bracelet models.Bracelet
	if err := row.Scan(
		&bracelet.ID,
		&bracelet.Serial,
		&bracelet.IsActive,
		&bracelet.PublicURL,
		&bracelet.CreatedAt,
		&bracelet.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Bracelet{}, ErrBraceletNotFound
		}
		return models.Bracelet{}, err
	}
	return bracelet, nil
}

// Activate flips an unclaimed bracelet to active and records its public URL.
// The is_active guard in the WHERE clause is the race safety for concurrent
// claims: inside the activation transaction, the second claimant sees zero
// rows affected and fails with ErrBraceletClaimed.
func (r *BraceletRepository) Activate(ctx context.Context, id int64, publicURL string) error {
	const query = `
		UPDATE pulseras
		SET is_active = TRUE, public_url = $2, updated_at = NOW()
		WHERE id = $1 AND is_active = FALSE
	`
	cmd, err := r.db.Exec(ctx, query, id, publicURL)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBraceletClaimed
	}
	return nil
}
