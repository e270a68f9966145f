package postgres

import (
	"context"
	"database/sql"
	"time"

	"alterations-manager/internal/domain/timeentries"

	"github.com/jmoiron/sqlx"
)

type TimeEntriesRepo struct {
	db *sqlx.DB
}

func NewTimeEntriesRepo(db *sql.DB) *TimeEntriesRepo {
	return &TimeEntriesRepo{db: sqlx.NewDb(db, "pgx")}
}

type timeEntryRow struct {
	ID              string       `db:"id"`
	ShopID          string       `db:"shop_id"`
	GarmentID       string       `db:"garment_id"`
	UserID          string       `db:"user_id"`
	StartedAt       time.Time    `db:"started_at"`
	EndedAt         sql.NullTime `db:"ended_at"`
	DurationMinutes int          `db:"duration_minutes"`
	Notes           string       `db:"notes"`
	CreatedAt       time.Time    `db:"created_at"`
}

func toTimeEntryRow(e timeentries.Entry) timeEntryRow {
	return timeEntryRow{
		ID:              e.ID,
		ShopID:          e.ShopID,
		GarmentID:       e.GarmentID,
		UserID:          e.UserID,
		StartedAt:       e.StartedAt,
		EndedAt:         toNullDate(e.EndedAt),
		DurationMinutes: e.DurationMinutes,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
}

func (row timeEntryRow) entry() timeentries.Entry {
	return timeentries.Entry{
		ID:              row.ID,
		ShopID:          row.ShopID,
		GarmentID:       row.GarmentID,
		UserID:          row.UserID,
		StartedAt:       row.StartedAt.UTC(),
		EndedAt:         fromNullTime(row.EndedAt),
		DurationMinutes: row.DurationMinutes,
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt,
	}
}

func (r *TimeEntriesRepo) Create(ctx context.Context, e timeentries.Entry) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO time_entries (
			id, shop_id, garment_id, user_id,
			started_at, ended_at, duration_minutes,
			notes, created_at
		) VALUES (
			:id, :shop_id, :garment_id, :user_id,
			:started_at, :ended_at, :duration_minutes,
			:notes, :created_at
		)
	`, toTimeEntryRow(e))
	if isUniqueViolation(err, "time_entries_one_running_idx") {
		return timeentries.ErrAlreadyRunning
	}
	return err
}

func (r *TimeEntriesRepo) Finish(ctx context.Context, e timeentries.Entry) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE time_entries SET
			ended_at = :ended_at,
			duration_minutes = :duration_minutes
		WHERE shop_id = :shop_id AND id = :id AND ended_at IS NULL
	`, toTimeEntryRow(e))
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *TimeEntriesRepo) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *TimeEntriesRepo) GetByID(ctx context.Context, shopID, id string) (timeentries.Entry, error) {
	var row timeEntryRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT * FROM time_entries WHERE shop_id = $1 AND id = $2
	`, shopID, id); err != nil {
		return timeentries.Entry{}, rowErr(err)
	}
	return row.entry(), nil
}

func (r *TimeEntriesRepo) Running(ctx context.Context, shopID, userID string) (timeentries.Entry, error) {
	var row timeEntryRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT * FROM time_entries
		WHERE shop_id = $1 AND user_id = $2 AND ended_at IS NULL
	`, shopID, userID); err != nil {
		return timeentries.Entry{}, rowErr(err)
	}
	return row.entry(), nil
}

func (r *TimeEntriesRepo) ListByGarment(ctx context.Context, shopID, garmentID string) ([]timeentries.Entry, error) {
	var rows []timeEntryRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM time_entries
		WHERE shop_id = $1 AND garment_id = $2
		ORDER BY started_at ASC
	`, shopID, garmentID); err != nil {
		return nil, err
	}

	out := make([]timeentries.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry())
	}
	return out, nil
}
