package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

const orderColumns = `
	id, customer_id, status, payment_status, order_type, address_id, address_snapshot,
	delivery_fee, estimated_delivery_time, total_price, payment_method, payment_id,
	version, created_at, updated_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// addressSnapshotRow — JSON-представление снимка адреса в колонке address_snapshot.
type addressSnapshotRow struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	snapshot, err := encodeAddressSnapshot(order.Address)
	if err != nil {
		return err
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`,
			order.ID, order.CustomerID, string(order.Status), string(order.PaymentStatus), string(order.Type),
			nullableString(order.AddressID), snapshot,
			order.DeliveryFee, order.EstimatedDeliveryTime, order.TotalPrice, order.PaymentMethod,
			nullableString(order.PaymentID), order.Version, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrOrderVersionConflict
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: order references unknown customer or address", domain.ErrValidation)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for pos, item := range order.Items {
			if err := insertOrderItem(ctx, tx, order.ID, pos, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertOrderItem(ctx context.Context, tx *sql.Tx, orderID string, pos int, item domain.OrderItem) error {
	removed := item.RemovedIngredients
	if removed == nil {
		removed = []string{}
	}
	removedJSON, err := json.Marshal(removed)
	if err != nil {
		return fmt.Errorf("encode removed ingredients: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_items (
			id, order_id, position, product_id, product_name, quantity,
			unit_price, subtotal, observation, meat_point, removed_ingredients
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		item.ID, orderID, pos, item.ProductID, item.ProductName, item.Quantity,
		item.UnitPrice, item.Subtotal, nullableString(item.Observation), nullableString(item.MeatPoint),
		removedJSON,
	); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}

	for addonPos, addon := range item.Addons {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_item_addons (order_item_id, position, addon_id, name, price)
			VALUES ($1,$2,$3,$4,$5)
		`, item.ID, addonPos, addon.AddonID, addon.Name, addon.Price); err != nil {
			return fmt.Errorf("insert order item addon: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = r.loadItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $1,
			    payment_status = $2,
			    payment_id = $3,
			    version = version + 1,
			    updated_at = $4
			WHERE id = $5
			  AND version = $6
		`,
			string(order.Status), string(order.PaymentStatus), nullableString(order.PaymentID),
			order.UpdatedAt, order.ID, order.Version,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}

		exists, err := orderExistsTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	})
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, subtotal,
		       observation, meat_point, removed_ingredients
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			item                   domain.OrderItem
			observation, meatPoint sql.NullString
			removedJSON            []byte
		)
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Subtotal,
			&observation, &meatPoint, &removedJSON,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = orderID
		item.Observation = observation.String
		item.MeatPoint = meatPoint.String
		if len(removedJSON) > 0 {
			if err := json.Unmarshal(removedJSON, &item.RemovedIngredients); err != nil {
				return nil, fmt.Errorf("decode removed ingredients: %w", err)
			}
		}
		item.Addons = []domain.ItemAddon{}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	addonRows, err := r.db.QueryContext(ctx, `
		SELECT a.order_item_id, a.addon_id, a.name, a.price
		FROM order_item_addons a
		JOIN order_items i ON i.id = a.order_item_id
		WHERE i.order_id = $1
		ORDER BY a.order_item_id, a.position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order item addons: %w", err)
	}
	defer addonRows.Close()

	for addonRows.Next() {
		var (
			itemID string
			addon  domain.ItemAddon
		)
		if err := addonRows.Scan(&itemID, &addon.AddonID, &addon.Name, &addon.Price); err != nil {
			return nil, fmt.Errorf("scan order item addon: %w", err)
		}
		if pos, ok := index[itemID]; ok {
			items[pos].Addons = append(items[pos].Addons, addon)
		}
	}
	if err := addonRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item addons: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order                            domain.Order
		status, paymentStatus, orderType string
		addressID, paymentID             sql.NullString
		snapshot                         []byte
	)
	if err := row.Scan(
		&order.ID, &order.CustomerID, &status, &paymentStatus, &orderType, &addressID, &snapshot,
		&order.DeliveryFee, &order.EstimatedDeliveryTime, &order.TotalPrice, &order.PaymentMethod, &paymentID,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	order.Type = domain.OrderType(orderType)
	order.AddressID = addressID.String
	order.PaymentID = paymentID.String
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()

	address, err := decodeAddressSnapshot(snapshot)
	if err != nil {
		return domain.Order{}, err
	}
	order.Address = address
	return order, nil
}

func encodeAddressSnapshot(snapshot *domain.AddressSnapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, nil
	}
	raw, err := json.Marshal(addressSnapshotRow(*snapshot))
	if err != nil {
		return nil, fmt.Errorf("encode address snapshot: %w", err)
	}
	return raw, nil
}

func decodeAddressSnapshot(raw []byte) (*domain.AddressSnapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var row addressSnapshotRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode address snapshot: %w", err)
	}
	snapshot := domain.AddressSnapshot(row)
	return &snapshot, nil
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

type dashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository создаёт агрегатные запросы панели поверх таблицы orders.
func NewDashboardRepository(store *Store) domain.DashboardRepository {
	return &dashboardRepository{db: store.DB()}
}

func (r *dashboardRepository) Summary(ctx context.Context) (domain.DashboardSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, payment_status, COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		GROUP BY status, payment_status
	`)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("query dashboard summary: %w", err)
	}
	defer rows.Close()

	summary := domain.DashboardSummary{
		Revenue:  decimal.Zero,
		ByStatus: make(map[domain.OrderStatus]int),
	}
	for rows.Next() {
		var (
			status, paymentStatus string
			count                 int
			revenue               decimal.Decimal
		)
		if err := rows.Scan(&status, &paymentStatus, &count, &revenue); err != nil {
			return domain.DashboardSummary{}, fmt.Errorf("scan dashboard summary: %w", err)
		}
		orderStatus := domain.OrderStatus(status)
		summary.ByStatus[orderStatus] += count
		if orderStatus == domain.OrderStatusCanceled {
			continue
		}
		summary.TotalOrders += count
		summary.Revenue = summary.Revenue.Add(revenue)
		if !orderStatus.Terminal() && domain.PaymentStatus(paymentStatus) == domain.PaymentStatusPending {
			summary.PendingPayments += count
		}
	}
	if err := rows.Err(); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("iterate dashboard summary: %w", err)
	}
	return summary, nil
}

func (r *dashboardRepository) DailyRevenue(ctx context.Context, since time.Time, loc *time.Location) ([]domain.DailyRevenue, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day,
		       COALESCE(SUM(total_price), 0),
		       COUNT(*)
		FROM orders
		WHERE status <> $3
		  AND created_at >= $1
		GROUP BY day
		ORDER BY day
	`, since.UTC(), postgresZoneName(loc), string(domain.OrderStatusCanceled))
	if err != nil {
		return nil, fmt.Errorf("query daily revenue: %w", err)
	}
	defer rows.Close()

	days := make([]domain.DailyRevenue, 0)
	for rows.Next() {
		var day domain.DailyRevenue
		if err := rows.Scan(&day.Date, &day.Revenue, &day.Orders); err != nil {
			return nil, fmt.Errorf("scan daily revenue: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily revenue: %w", err)
	}
	return days, nil
}

func (r *dashboardRepository) TopProducts(ctx context.Context, since time.Time, limit int) ([]domain.TopProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.product_id, MAX(i.product_name) AS name, SUM(i.quantity) AS qty
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status <> $2
		  AND o.created_at >= $1
		GROUP BY i.product_id
		ORDER BY qty DESC, name ASC
		LIMIT $3
	`, since.UTC(), string(domain.OrderStatusCanceled), limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	top := make([]domain.TopProduct, 0, limit)
	for rows.Next() {
		var product domain.TopProduct
		if err := rows.Scan(&product.ProductID, &product.Name, &product.Quantity); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		top = append(top, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products: %w", err)
	}
	return top, nil
}

// postgresZoneName возвращает IANA-имя зоны; time.Local у PostgreSQL не существует.
func postgresZoneName(loc *time.Location) string {
	if loc == nil || loc.String() == "Local" || loc.String() == "" {
		return "UTC"
	}
	return loc.String()
}

var (
	_ domain.OrderRepository     = (*orderRepository)(nil)
	_ domain.DashboardRepository = (*dashboardRepository)(nil)
)
