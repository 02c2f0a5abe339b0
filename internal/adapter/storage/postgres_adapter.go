package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

const orderColumns = `id, COALESCE(checkout_id, ''), user_name, total_price::text, first_name, last_name,
	email_address, shipping_address, invoice_address, status, created_at, updated_at`

// PostgresAdapter stores orders. Creating an order from a checkout also
// records the checkout id in processed_checkouts inside the same
// transaction, so a redelivered checkout cannot produce a second order.
type PostgresAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresAdapter(pool *pgxpool.Pool) *PostgresAdapter {
	return &PostgresAdapter{pool: pool}
}

func (p *PostgresAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if checkoutID := order.CheckoutID(); checkoutID != "" {
		_, err = tx.Exec(ctx, `INSERT INTO processed_checkouts (checkout_id, processed_at) VALUES ($1, $2)`,
			checkoutID, time.Now().UTC())
		if isUniqueViolation(err) {
			return port.ErrDuplicateCheckout
		}
		if err != nil {
			return fmt.Errorf("insert processed checkout: %w", err)
		}
	}

	d := order.Details()
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (checkout_id, user_name, total_price, first_name, last_name,
			email_address, shipping_address, invoice_address, status, created_at, updated_at)
		VALUES (NULLIF($1, ''), $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		order.CheckoutID(), d.UserName, d.TotalPrice.String(), d.FirstName, d.LastName,
		d.EmailAddress, d.ShippingAddress, d.InvoiceAddress, string(order.Status()),
		order.CreatedAt(), order.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	order.AssignID(id)
	return nil
}

func (p *PostgresAdapter) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND deleted_at IS NULL`, id)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return order, nil
}

func (p *PostgresAdapter) ListOrdersByUser(ctx context.Context, userName string) ([]*domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_name = $1 AND deleted_at IS NULL
		ORDER BY id`, userName)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (p *PostgresAdapter) UpdateOrder(ctx context.Context, order *domain.Order) error {
	d := order.Details()
	tag, err := p.pool.Exec(ctx, `
		UPDATE orders
		SET user_name = $2, total_price = $3::numeric, first_name = $4, last_name = $5,
			email_address = $6, shipping_address = $7, invoice_address = $8,
			status = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL`,
		order.ID(), d.UserName, d.TotalPrice.String(), d.FirstName, d.LastName,
		d.EmailAddress, d.ShippingAddress, d.InvoiceAddress,
		string(order.Status()), order.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrOrderNotFound
	}
	return nil
}

func (p *PostgresAdapter) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE orders SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		id                   int64
		checkoutID, total    string
		status               string
		d                    domain.OrderDetails
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &checkoutID, &d.UserName, &total, &d.FirstName, &d.LastName,
		&d.EmailAddress, &d.ShippingAddress, &d.InvoiceAddress, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.TotalPrice, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	return domain.RehydrateOrder(id, checkoutID, d, domain.OrderStatus(status), createdAt, updatedAt), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
