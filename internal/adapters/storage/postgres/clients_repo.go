package postgres

import (
	"context"
	"database/sql"

	"alterations-manager/internal/domain/clients"

	"github.com/doug-martin/goqu/v9"
)

type ClientsRepo struct {
	db *sql.DB
}

func NewClientsRepo(db *sql.DB) *ClientsRepo {
	return &ClientsRepo{db: db}
}

func (r *ClientsRepo) Create(ctx context.Context, c clients.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (
			id, shop_id,
			first_name, last_name, email, phone,
			mailing_address, notes,
			accept_email, accept_sms,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		c.ID,
		c.ShopID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.MailingAddress,
		c.Notes,
		c.AcceptEmail,
		c.AcceptSMS,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *ClientsRepo) Update(ctx context.Context, c clients.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients SET
			first_name = $3,
			last_name = $4,
			email = $5,
			phone = $6,
			mailing_address = $7,
			notes = $8,
			accept_email = $9,
			accept_sms = $10,
			updated_at = $11
		WHERE shop_id = $1 AND id = $2
	`,
		c.ShopID,
		c.ID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.MailingAddress,
		c.Notes,
		c.AcceptEmail,
		c.AcceptSMS,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *ClientsRepo) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

var clientColumns = []any{
	"id", "shop_id",
	"first_name", "last_name", "email", "phone",
	"mailing_address", "notes",
	"accept_email", "accept_sms",
	"created_at", "updated_at",
}

func (r *ClientsRepo) GetByID(ctx context.Context, shopID, id string) (clients.Client, error) {
	q, args, err := dialect.From("clients").
		Select(clientColumns...).
		Where(goqu.Ex{"shop_id": shopID, "id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return clients.Client{}, err
	}

	c, err := scanClient(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return clients.Client{}, rowErr(err)
	}
	return c, nil
}

// Search busca por nombre completo, email o teléfono (ILIKE), ordenado por apellido.
func (r *ClientsRepo) Search(ctx context.Context, shopID string, f clients.SearchFilter) ([]clients.Client, error) {
	ds := dialect.From("clients").
		Select(clientColumns...).
		Where(goqu.C("shop_id").Eq(shopID))

	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		ds = ds.Where(goqu.Or(
			goqu.L("(first_name || ' ' || last_name) ILIKE ?", like),
			goqu.C("email").ILike(like),
			goqu.C("phone").ILike(like),
		))
	}

	ds = ds.Order(
		goqu.L("lower(last_name)").Asc(),
		goqu.L("lower(first_name)").Asc(),
		goqu.C("id").Asc(),
	)
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

	out := make([]clients.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (clients.Client, error) {
	var c clients.Client
	err := s.Scan(
		&c.ID,
		&c.ShopID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.MailingAddress,
		&c.Notes,
		&c.AcceptEmail,
		&c.AcceptSMS,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func escapeLike(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range v {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
