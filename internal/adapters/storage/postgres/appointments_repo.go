package postgres

import (
	"context"
	"database/sql"
	"time"

	"alterations-manager/internal/domain/appointments"

	"github.com/doug-martin/goqu/v9"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (
			id, shop_id, client_id,
			type, status,
			starts_at, ends_at, notes,
			reminder_sent_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		a.ID,
		a.ShopID,
		a.ClientID,
		string(a.Type),
		string(a.Status),
		a.StartsAt,
		a.EndsAt,
		a.Notes,
		toNullDate(a.ReminderSentAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isExclusionViolation(err) {
		return appointments.ErrOverlap
	}
	return err
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET
			client_id = $3,
			type = $4,
			status = $5,
			starts_at = $6,
			ends_at = $7,
			notes = $8,
			reminder_sent_at = $9,
			updated_at = $10
		WHERE shop_id = $1 AND id = $2
	`,
		a.ShopID,
		a.ID,
		a.ClientID,
		string(a.Type),
		string(a.Status),
		a.StartsAt,
		a.EndsAt,
		a.Notes,
		toNullDate(a.ReminderSentAt),
		a.UpdatedAt,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return appointments.ErrOverlap
		}
		return err
	}
	return expectOne(res)
}

var appointmentColumns = []any{
	"id", "shop_id", "client_id",
	"type", "status",
	"starts_at", "ends_at", "notes",
	"reminder_sent_at",
	"created_at", "updated_at",
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, shopID, id string) (appointments.Appointment, error) {
	items, err := r.query(ctx, dialect.From("appointments").
		Select(appointmentColumns...).
		Where(goqu.Ex{"shop_id": shopID, "id": id}))
	if err != nil {
		return appointments.Appointment{}, err
	}
	if len(items) == 0 {
		return appointments.Appointment{}, ErrNotFound
	}
	return items[0], nil
}

func (r *AppointmentsRepo) ListRange(ctx context.Context, shopID string, from, to time.Time) ([]appointments.Appointment, error) {
	return r.query(ctx, dialect.From("appointments").
		Select(appointmentColumns...).
		Where(
			goqu.C("shop_id").Eq(shopID),
			goqu.C("starts_at").Lt(to.UTC()),
			goqu.C("ends_at").Gt(from.UTC()),
		).
		Order(goqu.C("starts_at").Asc(), goqu.C("id").Asc()))
}

func (r *AppointmentsRepo) Overlapping(ctx context.Context, shopID string, start, end time.Time, excludeID string) ([]appointments.Appointment, error) {
	ds := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(
			goqu.C("shop_id").Eq(shopID),
			goqu.C("status").Neq(string(appointments.StatusCancelled)),
			goqu.C("starts_at").Lt(end.UTC()),
			goqu.C("ends_at").Gt(start.UTC()),
		)
	if excludeID != "" {
		ds = ds.Where(goqu.C("id").Neq(excludeID))
	}
	return r.query(ctx, ds.Order(goqu.C("starts_at").Asc()))
}

func (r *AppointmentsRepo) DueForReminder(ctx context.Context, from, to time.Time, limit int) ([]appointments.Appointment, error) {
	ds := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(
			goqu.C("status").In(string(appointments.StatusScheduled), string(appointments.StatusConfirmed)),
			goqu.C("reminder_sent_at").IsNull(),
			goqu.C("starts_at").Gte(from.UTC()),
			goqu.C("starts_at").Lt(to.UTC()),
		).
		Order(goqu.C("starts_at").Asc(), goqu.C("id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return r.query(ctx, ds)
}

func (r *AppointmentsRepo) MarkReminded(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET reminder_sent_at = $2 WHERE id = $1
	`, id, at.UTC())
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *AppointmentsRepo) query(ctx context.Context, ds *goqu.SelectDataset) ([]appointments.Appointment, error) {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		var (
			a          appointments.Appointment
			typ        string
			status     string
			remindedAt sql.NullTime
		)
		if err := rows.Scan(
			&a.ID,
			&a.ShopID,
			&a.ClientID,
			&typ,
			&status,
			&a.StartsAt,
			&a.EndsAt,
			&a.Notes,
			&remindedAt,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Type = appointments.Type(typ)
		a.Status = appointments.Status(status)
		a.StartsAt = a.StartsAt.UTC()
		a.EndsAt = a.EndsAt.UTC()
		a.ReminderSentAt = fromNullTime(remindedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
