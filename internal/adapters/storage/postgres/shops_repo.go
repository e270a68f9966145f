package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"alterations-manager/internal/domain/shops"
)

type ShopsRepo struct {
	db *sql.DB
}

func NewShopsRepo(db *sql.DB) *ShopsRepo {
	return &ShopsRepo{db: db}
}

// hoursJSON es la forma en que working_hours vive en la columna JSONB.
type hoursJSON struct {
	Weekday int    `json:"weekday"`
	Open    string `json:"open,omitempty"`
	Close   string `json:"close,omitempty"`
	Closed  bool   `json:"closed"`
}

func encodeHours(hours []shops.WorkingHours) ([]byte, error) {
	out := make([]hoursJSON, 0, len(hours))
	for _, h := range hours {
		out = append(out, hoursJSON{Weekday: int(h.Weekday), Open: h.Open, Close: h.Close, Closed: h.Closed})
	}
	return json.Marshal(out)
}

func decodeHours(raw []byte) ([]shops.WorkingHours, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var in []hoursJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make([]shops.WorkingHours, 0, len(in))
	for _, h := range in {
		out = append(out, shops.WorkingHours{Weekday: time.Weekday(h.Weekday), Open: h.Open, Close: h.Close, Closed: h.Closed})
	}
	return out, nil
}

func (r *ShopsRepo) Create(ctx context.Context, s shops.Shop) error {
	hours, err := encodeHours(s.Hours)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shops (
			id, owner_user_id,
			name, email, phone, address,
			timezone, currency, working_hours,
			payment_account_id, charges_enabled, payouts_enabled, details_submitted, payments_updated_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		s.ID,
		s.OwnerUserID,
		s.Name,
		s.Email,
		s.Phone,
		s.Address,
		s.Timezone,
		s.Currency,
		hours,
		toNullString(s.Payments.AccountID),
		s.Payments.ChargesEnabled,
		s.Payments.PayoutsEnabled,
		s.Payments.DetailsSubmitted,
		toNullDate(s.Payments.UpdatedAt),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *ShopsRepo) Update(ctx context.Context, s shops.Shop) error {
	hours, err := encodeHours(s.Hours)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shops SET
			name = $2,
			email = $3,
			phone = $4,
			address = $5,
			timezone = $6,
			currency = $7,
			working_hours = $8,
			payment_account_id = $9,
			charges_enabled = $10,
			payouts_enabled = $11,
			details_submitted = $12,
			payments_updated_at = $13,
			updated_at = $14
		WHERE id = $1
	`,
		s.ID,
		s.Name,
		s.Email,
		s.Phone,
		s.Address,
		s.Timezone,
		s.Currency,
		hours,
		toNullString(s.Payments.AccountID),
		s.Payments.ChargesEnabled,
		s.Payments.PayoutsEnabled,
		s.Payments.DetailsSubmitted,
		toNullDate(s.Payments.UpdatedAt),
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

const shopColumns = `
	id, owner_user_id,
	name, email, phone, address,
	timezone, currency, working_hours,
	payment_account_id, charges_enabled, payouts_enabled, details_submitted, payments_updated_at,
	created_at, updated_at
`

func (r *ShopsRepo) GetByID(ctx context.Context, id string) (shops.Shop, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return shops.Shop{}, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id)
}

func (r *ShopsRepo) GetByOwner(ctx context.Context, ownerUserID string) (shops.Shop, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return shops.Shop{}, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+shopColumns+` FROM shops WHERE owner_user_id = $1`, ownerUserID)
}

func (r *ShopsRepo) GetByPaymentAccount(ctx context.Context, accountID string) (shops.Shop, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return shops.Shop{}, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+shopColumns+` FROM shops WHERE payment_account_id = $1`, accountID)
}

func (r *ShopsRepo) getOne(ctx context.Context, query string, arg string) (shops.Shop, error) {
	var (
		s          shops.Shop
		hours      []byte
		accountID  sql.NullString
		paymentsAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID,
		&s.OwnerUserID,
		&s.Name,
		&s.Email,
		&s.Phone,
		&s.Address,
		&s.Timezone,
		&s.Currency,
		&hours,
		&accountID,
		&s.Payments.ChargesEnabled,
		&s.Payments.PayoutsEnabled,
		&s.Payments.DetailsSubmitted,
		&paymentsAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return shops.Shop{}, rowErr(err)
	}

	s.Hours, err = decodeHours(hours)
	if err != nil {
		return shops.Shop{}, err
	}
	s.Payments.AccountID = accountID.String
	s.Payments.UpdatedAt = fromNullTime(paymentsAt)
	return s, nil
}
