package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"alterations-manager/internal/domain/orders"

	"github.com/doug-martin/goqu/v9"
)

// numberRetries acota los reintentos cuando dos órdenes toman el mismo correlativo.
const numberRetries = 5

type OrdersRepo struct {
	db *sql.DB
}

func NewOrdersRepo(db *sql.DB) *OrdersRepo {
	return &OrdersRepo{db: db}
}

func (r *OrdersRepo) Create(ctx context.Context, o *orders.Order) error {
	for attempt := 0; attempt < numberRetries; attempt++ {
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO orders (
				id, shop_id, client_id, order_number,
				status, discount_cents, paid_cents,
				notes, due_date,
				created_at, updated_at
			)
			SELECT $1, $2, $3, COALESCE(MAX(order_number), 0) + 1, $4, $5, $6, $7, $8, $9, $10
			FROM orders WHERE shop_id = $2
			RETURNING order_number
		`,
			o.ID,
			o.ShopID,
			o.ClientID,
			string(o.Status),
			o.DiscountCents,
			o.PaidCents,
			o.Notes,
			toNullDate(o.DueDate),
			o.CreatedAt,
			o.UpdatedAt,
		).Scan(&o.Number)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err, "orders_shop_number_key") {
			return err
		}
	}
	return fmt.Errorf("order number: too many concurrent attempts")
}

func (r *OrdersRepo) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

var orderColumns = []any{
	"id", "shop_id", "client_id", "order_number",
	"status", "discount_cents", "paid_cents",
	"notes", "due_date",
	"created_at", "updated_at",
}

func (r *OrdersRepo) GetByID(ctx context.Context, shopID, id string) (orders.Order, error) {
	q, args, err := dialect.From("orders").
		Select(orderColumns...).
		Where(goqu.Ex{"shop_id": shopID, "id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return orders.Order{}, err
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return orders.Order{}, rowErr(err)
	}
	return o, nil
}

func (r *OrdersRepo) List(ctx context.Context, shopID string, f orders.ListFilter) ([]orders.Order, error) {
	ds := dialect.From("orders").
		Select(orderColumns...).
		Where(goqu.C("shop_id").Eq(shopID))

	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(f.Status)))
	}
	if f.ClientID != "" {
		ds = ds.Where(goqu.C("client_id").Eq(f.ClientID))
	}
	ds = ds.Order(goqu.C("order_number").Desc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orders.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update no toca paid_cents ni order_number.
func (r *OrdersRepo) Update(ctx context.Context, o orders.Order) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			status = $3,
			discount_cents = $4,
			notes = $5,
			due_date = $6,
			updated_at = $7
		WHERE shop_id = $1 AND id = $2
	`,
		o.ShopID,
		o.ID,
		string(o.Status),
		o.DiscountCents,
		o.Notes,
		toNullDate(o.DueDate),
		o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *OrdersRepo) AddPayment(ctx context.Context, p orders.Payment) (orders.Order, error) {
	var out orders.Order
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_payments (
				id, shop_id, order_id, amount_cents, method, external_id, note, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			p.ID,
			p.ShopID,
			p.OrderID,
			p.AmountCents,
			string(p.Method),
			toNullString(p.ExternalID),
			p.Note,
			p.CreatedAt,
		); err != nil {
			if isUniqueViolation(err, "order_payments_external_id_key") {
				return orders.ErrDuplicatePayment
			}
			return err
		}

		o, err := scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders SET
				paid_cents = paid_cents + $3,
				updated_at = GREATEST(updated_at, $4)
			WHERE shop_id = $1 AND id = $2
			RETURNING id, shop_id, client_id, order_number,
				status, discount_cents, paid_cents,
				notes, due_date,
				created_at, updated_at
		`, p.ShopID, p.OrderID, p.AmountCents, p.CreatedAt))
		if err != nil {
			return rowErr(err)
		}
		out = o
		return nil
	})
	if err != nil {
		if errors.Is(err, orders.ErrDuplicatePayment) || errors.Is(err, ErrNotFound) {
			return orders.Order{}, err
		}
		return orders.Order{}, fmt.Errorf("add payment: %w", err)
	}
	return out, nil
}

func (r *OrdersRepo) ListPayments(ctx context.Context, shopID, orderID string) ([]orders.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shop_id, order_id, amount_cents, method, external_id, note, created_at
		FROM order_payments
		WHERE shop_id = $1 AND order_id = $2
		ORDER BY created_at ASC, id ASC
	`, shopID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orders.Payment, 0)
	for rows.Next() {
		var (
			p          orders.Payment
			method     string
			externalID sql.NullString
		)
		if err := rows.Scan(
			&p.ID,
			&p.ShopID,
			&p.OrderID,
			&p.AmountCents,
			&method,
			&externalID,
			&p.Note,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Method = orders.PaymentMethod(method)
		p.ExternalID = externalID.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *OrdersRepo) CountByClient(ctx context.Context, shopID, clientID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE shop_id = $1 AND client_id = $2
	`, shopID, clientID).Scan(&n)
	return n, err
}

func scanOrder(s scanner) (orders.Order, error) {
	var (
		o      orders.Order
		status string
		due    sql.NullTime
	)
	err := s.Scan(
		&o.ID,
		&o.ShopID,
		&o.ClientID,
		&o.Number,
		&status,
		&o.DiscountCents,
		&o.PaidCents,
		&o.Notes,
		&due,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return orders.Order{}, err
	}
	o.Status = orders.Status(status)
	o.DueDate = fromNullTime(due)
	return o, nil
}
