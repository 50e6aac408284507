package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

const (
	productColumns = `id, name, description, price, image_url, category, available, deleted_at, created_at, updated_at`
	addonColumns   = `id, name, price, category, available, deleted_at, created_at, updated_at`
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			product.ID, product.Name, nullableString(product.Description), product.Price,
			nullableString(product.ImageURL), string(product.Category), product.Available,
			nullableTime(product.DeletedAt), product.CreatedAt, product.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return replaceProductAddons(ctx, tx, product.ID, product.AddonIDs)
	})
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = $2, description = $3, price = $4, image_url = $5, category = $6,
			    available = $7, deleted_at = $8, updated_at = $9
			WHERE id = $1
		`,
			product.ID, product.Name, nullableString(product.Description), product.Price,
			nullableString(product.ImageURL), string(product.Category), product.Available,
			nullableTime(product.DeletedAt), product.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return domain.ErrProductNotFound
		}
		return replaceProductAddons(ctx, tx, product.ID, product.AddonIDs)
	})
}

func replaceProductAddons(ctx context.Context, tx *sql.Tx, productID string, addonIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_addons WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear product addons: %w", err)
	}
	seen := make(map[string]struct{}, len(addonIDs))
	for _, addonID := range addonIDs {
		if _, dup := seen[addonID]; dup {
			continue
		}
		seen[addonID] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_addons (product_id, addon_id) VALUES ($1, $2)`,
			productID, addonID,
		); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUnknownAddonRef
			}
			return fmt.Errorf("insert product addon: %w", err)
		}
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	products := []domain.Product{product}
	if err := r.attachAddonIDs(ctx, products); err != nil {
		return domain.Product{}, err
	}
	return products[0], nil
}

func (r *productRepository) List(ctx context.Context, filter domain.CatalogFilter) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args := catalogListQuery(`SELECT `+productColumns+` FROM products`, filter)
	query += " ORDER BY category ASC, name ASC"

	return r.query(ctx, query, args...)
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) AND deleted_at IS NULL`,
		uniqueIDs(ids),
	)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	if err := r.attachAddonIDs(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) attachAddonIDs(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		products[i].AddonIDs = []string{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, addon_id
		FROM product_addons
		WHERE product_id = ANY($1)
		ORDER BY product_id, addon_id
	`, ids)
	if err != nil {
		return fmt.Errorf("load product addons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID, addonID string
		if err := rows.Scan(&productID, &addonID); err != nil {
			return fmt.Errorf("scan product addon: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].AddonIDs = append(products[i].AddonIDs, addonID)
		}
	}
	return rows.Err()
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product               domain.Product
		description, imageURL sql.NullString
		category              string
		deletedAt             sql.NullTime
	)
	if err := row.Scan(
		&product.ID, &product.Name, &description, &product.Price, &imageURL, &category,
		&product.Available, &deletedAt, &product.CreatedAt, &product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	product.Description = description.String
	product.ImageURL = imageURL.String
	product.Category = domain.Category(category)
	product.DeletedAt = timePtr(deletedAt)
	product.CreatedAt = product.CreatedAt.UTC()
	product.UpdatedAt = product.UpdatedAt.UTC()
	return product, nil
}

type addonRepository struct {
	db *sql.DB
}

// NewAddonRepository создаёт PostgreSQL-реализацию AddonRepository.
func NewAddonRepository(store *Store) domain.AddonRepository {
	return &addonRepository{db: store.DB()}
}

func (r *addonRepository) Create(ctx context.Context, addon domain.Addon) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addons (`+addonColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		addon.ID, addon.Name, addon.Price, nullableString(addon.Category), addon.Available,
		nullableTime(addon.DeletedAt), addon.CreatedAt, addon.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert addon: %w", err)
	}
	return nil
}

func (r *addonRepository) Update(ctx context.Context, addon domain.Addon) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE addons
		SET name = $2, price = $3, category = $4, available = $5, deleted_at = $6, updated_at = $7
		WHERE id = $1
	`,
		addon.ID, addon.Name, addon.Price, nullableString(addon.Category), addon.Available,
		nullableTime(addon.DeletedAt), addon.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update addon: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrAddonNotFound
	}
	return nil
}

func (r *addonRepository) Get(ctx context.Context, id string) (domain.Addon, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	addon, err := scanAddon(r.db.QueryRowContext(ctx, `SELECT `+addonColumns+` FROM addons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Addon{}, domain.ErrAddonNotFound
		}
		return domain.Addon{}, fmt.Errorf("select addon: %w", err)
	}
	return addon, nil
}

func (r *addonRepository) List(ctx context.Context, filter domain.CatalogFilter) ([]domain.Addon, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args := catalogListQuery(`SELECT `+addonColumns+` FROM addons`, filter)
	query += " ORDER BY name ASC"
	return r.query(ctx, query, args...)
}

func (r *addonRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Addon, error) {
	if len(ids) == 0 {
		return []domain.Addon{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.query(ctx,
		`SELECT `+addonColumns+` FROM addons WHERE id = ANY($1) AND deleted_at IS NULL`,
		uniqueIDs(ids),
	)
}

func (r *addonRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM addons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete addon: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrAddonNotFound
	}
	return nil
}

func (r *addonRepository) query(ctx context.Context, query string, args ...any) ([]domain.Addon, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query addons: %w", err)
	}
	defer rows.Close()

	addons := make([]domain.Addon, 0)
	for rows.Next() {
		addon, err := scanAddon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan addon: %w", err)
		}
		addons = append(addons, addon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addons: %w", err)
	}
	return addons, nil
}

func scanAddon(row rowScanner) (domain.Addon, error) {
	var (
		addon     domain.Addon
		category  sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&addon.ID, &addon.Name, &addon.Price, &category, &addon.Available,
		&deletedAt, &addon.CreatedAt, &addon.UpdatedAt,
	); err != nil {
		return domain.Addon{}, err
	}
	addon.Category = category.String
	addon.DeletedAt = timePtr(deletedAt)
	addon.CreatedAt = addon.CreatedAt.UTC()
	addon.UpdatedAt = addon.UpdatedAt.UTC()
	return addon, nil
}

// catalogListQuery добавляет к выборке фильтры корзины, категории и доступности.
func catalogListQuery(base string, filter domain.CatalogFilter) (string, []any) {
	where := []string{"deleted_at IS NULL"}
	if filter.Trashed {
		where[0] = "deleted_at IS NOT NULL"
	}
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		where = append(where, fmt.Sprintf("available = $%d", len(args)))
	}
	return base + " WHERE " + strings.Join(where, " AND "), args
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

var (
	_ domain.ProductRepository = (*productRepository)(nil)
	_ domain.AddonRepository   = (*addonRepository)(nil)
)
