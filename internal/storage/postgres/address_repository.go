package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

const addressColumns = `id, user_id, zip_code, street, number, complement, neighborhood, city, state, nickname, created_at, updated_at`

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository создаёт PostgreSQL-реализацию AddressRepository.
func NewAddressRepository(store *Store) domain.AddressRepository {
	return &addressRepository{db: store.DB()}
}

func (r *addressRepository) Create(ctx context.Context, address domain.Address) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		address.ID, address.UserID, address.ZipCode, address.Street, address.Number,
		nullableString(address.Complement), address.Neighborhood, address.City, address.State,
		nullableString(address.Nickname), address.CreatedAt, address.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *addressRepository) GetForOwner(ctx context.Context, id, ownerID string) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	address, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Address{}, domain.ErrAddressNotFound
		}
		return domain.Address{}, fmt.Errorf("select address: %w", err)
	}
	return address, nil
}

func (r *addressRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) Update(ctx context.Context, address domain.Address) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE addresses
		SET zip_code = $3, street = $4, number = $5, complement = $6, neighborhood = $7,
		    city = $8, state = $9, nickname = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2
	`,
		address.ID, address.UserID, address.ZipCode, address.Street, address.Number,
		nullableString(address.Complement), address.Neighborhood, address.City, address.State,
		nullableString(address.Nickname), address.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

// Delete удаляет адрес; заказы сохраняют снимок, а address_id обнуляется внешним ключом.
func (r *addressRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func scanAddress(row rowScanner) (domain.Address, error) {
	var (
		address              domain.Address
		complement, nickname sql.NullString
	)
	if err := row.Scan(
		&address.ID, &address.UserID, &address.ZipCode, &address.Street, &address.Number,
		&complement, &address.Neighborhood, &address.City, &address.State, &nickname,
		&address.CreatedAt, &address.UpdatedAt,
	); err != nil {
		return domain.Address{}, err
	}
	address.Complement = complement.String
	address.Nickname = nickname.String
	address.CreatedAt = address.CreatedAt.UTC()
	address.UpdatedAt = address.UpdatedAt.UTC()
	return address, nil
}

var _ domain.AddressRepository = (*addressRepository)(nil)
