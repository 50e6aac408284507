package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

type storeConfigRepository struct {
	db *sql.DB
}

// NewStoreConfigRepository создаёт PostgreSQL-реализацию StoreConfigRepository.
func NewStoreConfigRepository(store *Store) domain.StoreConfigRepository {
	return &storeConfigRepository{db: store.DB()}
}

func (r *storeConfigRepository) Get(ctx context.Context) (domain.StoreConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cfg domain.StoreConfig
	err := r.db.QueryRowContext(ctx, `
		SELECT id, is_open, opening_message, closing_message, updated_at
		FROM store_config
		WHERE id = $1
	`, domain.StoreConfigID).Scan(&cfg.ID, &cfg.IsOpen, &cfg.OpeningMessage, &cfg.ClosingMessage, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoreConfig{}, domain.ErrStoreConfigAbsent
		}
		return domain.StoreConfig{}, fmt.Errorf("select store config: %w", err)
	}
	cfg.UpdatedAt = cfg.UpdatedAt.UTC()
	return cfg, nil
}

// CreateIfAbsent полагается на ON CONFLICT DO NOTHING, поэтому параллельные
// инстансы при старте не перезаписывают друг друга.
func (r *storeConfigRepository) CreateIfAbsent(ctx context.Context, cfg domain.StoreConfig) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO store_config (id, is_open, opening_message, closing_message, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO NOTHING
	`, domain.StoreConfigID, cfg.IsOpen, cfg.OpeningMessage, cfg.ClosingMessage, cfg.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert store config: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *storeConfigRepository) Put(ctx context.Context, cfg domain.StoreConfig) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_config (id, is_open, opening_message, closing_message, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET is_open = EXCLUDED.is_open,
		    opening_message = EXCLUDED.opening_message,
		    closing_message = EXCLUDED.closing_message,
		    updated_at = EXCLUDED.updated_at
	`, domain.StoreConfigID, cfg.IsOpen, cfg.OpeningMessage, cfg.ClosingMessage, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert store config: %w", err)
	}
	return nil
}

var _ domain.StoreConfigRepository = (*storeConfigRepository)(nil)
