package repository

import (
	"context"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const orderColumns = `id, buyer_id, seller_id, source, offer_id, tender_id, tender_response_id, total_amount, delivery_date, created_at`

// PostgresOrderRepository - реализация OrderRepository для базы данных.
type PostgresOrderRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresOrderRepository создаёт новый экземпляр PostgresOrderRepository.
func NewPostgresOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// CreateOrder сохраняет заголовок заказа и его строки. Атомарность обеспечивает вызывающий через Transactor.
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, order models.Order) error {
	q := conn(ctx, r.DB)
	_, err := q.Exec(ctx, `
		INSERT INTO purchase_order (id, buyer_id, seller_id, source, offer_id, tender_id, tender_response_id, total_amount, delivery_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID,
		order.BuyerID,
		order.SellerID,
		order.Source,
		order.OfferID,
		order.TenderID,
		order.TenderResponseID,
		order.TotalAmount,
		order.DeliveryDate,
		order.CreatedAt)
	if err != nil {
		return wrapErr("insert order", err)
	}

	for i, line := range order.Lines {
		_, err = q.Exec(ctx, `
			INSERT INTO order_line (id, order_id, position, product_id, kind, quantity, unit_price, is_priority)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			line.ID,
			order.ID,
			i,
			line.ProductID,
			line.Kind,
			line.Quantity,
			line.UnitPrice,
			line.IsPriority)
		if err != nil {
			return wrapErr("insert order line", err)
		}
	}
	return nil
}

// GetOrder возвращает заказ со строками.
func (r *PostgresOrderRepository) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	q := conn(ctx, r.DB)
	order, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_order WHERE id = $1`, orderID))
	if err != nil {
		return nil, wrapErr("get order", err)
	}
	lines, err := r.lines(ctx, q, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[order.ID]
	return &order, nil
}

// ResponseOrderExists проверяет, есть ли заказ по отклику.
func (r *PostgresOrderRepository) ResponseOrderExists(ctx context.Context, responseID string) (bool, error) {
	var exists bool
	err := conn(ctx, r.DB).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchase_order WHERE tender_response_id = $1)`, responseID).Scan(&exists)
	if err != nil {
		return false, wrapErr("check response order", err)
	}
	return exists, nil
}

// GetUserOrders возвращает заказы, где пользователь покупатель или продавец.
func (r *PostgresOrderRepository) GetUserOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	q := conn(ctx, r.DB)
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM purchase_order
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, wrapErr("scan order", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list orders", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := r.lines(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *PostgresOrderRepository) lines(ctx context.Context, q querier, orderIDs []string) (map[string][]models.OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, kind, quantity, unit_price, is_priority
		FROM order_line WHERE order_id = ANY($1) ORDER BY order_id, position`, pq.Array(orderIDs))
	if err != nil {
		return nil, wrapErr("list order lines", err)
	}
	defer rows.Close()

	lines := make(map[string][]models.OrderLine, len(orderIDs))
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Kind, &l.Quantity, &l.UnitPrice, &l.IsPriority); err != nil {
			return nil, wrapErr("scan order line", err)
		}
		lines[l.OrderID] = append(lines[l.OrderID], l)
	}
	return lines, wrapErr("list order lines", rows.Err())
}

func scanOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.SellerID,
		&o.Source,
		&o.OfferID,
		&o.TenderID,
		&o.TenderResponseID,
		&o.TotalAmount,
		&o.DeliveryDate,
		&o.CreatedAt)
	return o, err
}

var _ OrderRepository = (*PostgresOrderRepository)(nil)
