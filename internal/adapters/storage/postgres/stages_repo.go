package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"alterations-manager/internal/domain/stages"
)

type StagesRepo struct {
	db *sql.DB
}

func NewStagesRepo(db *sql.DB) *StagesRepo {
	return &StagesRepo{db: db}
}

func (r *StagesRepo) ListByShop(ctx context.Context, shopID string) ([]stages.Stage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			s.id, s.shop_id, s.name, s.position, s.color,
			s.created_at, s.updated_at,
			COUNT(g.id)
		FROM stages s
		LEFT JOIN garments g ON g.stage_id = s.id
		WHERE s.shop_id = $1
		GROUP BY s.id
		ORDER BY s.position ASC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]stages.Stage, 0)
	for rows.Next() {
		var st stages.Stage
		if err := rows.Scan(
			&st.ID,
			&st.ShopID,
			&st.Name,
			&st.Position,
			&st.Color,
			&st.CreatedAt,
			&st.UpdatedAt,
			&st.GarmentCount,
		); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *StagesRepo) GetByID(ctx context.Context, shopID, id string) (stages.Stage, error) {
	var st stages.Stage
	err := r.db.QueryRowContext(ctx, `
		SELECT id, shop_id, name, position, color, created_at, updated_at
		FROM stages
		WHERE shop_id = $1 AND id = $2
	`, shopID, id).Scan(
		&st.ID,
		&st.ShopID,
		&st.Name,
		&st.Position,
		&st.Color,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return stages.Stage{}, rowErr(err)
	}
	return st, nil
}

func (r *StagesRepo) Create(ctx context.Context, st stages.Stage) error {
	return insertStage(ctx, r.db, st)
}

func (r *StagesRepo) CreateMany(ctx context.Context, items []stages.Stage) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, st := range items {
			if err := insertStage(ctx, tx, st); err != nil {
				return err
			}
		}
		return nil
	})
}

// Apply bloquea las etapas del taller y aplica el plan en una transacción.
func (r *StagesRepo) Apply(ctx context.Context, shopID string, plan stages.Plan) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM stages WHERE shop_id = $1 FOR UPDATE`, shopID); err != nil {
			return err
		}

		for _, st := range plan.Create {
			if err := insertStage(ctx, tx, st); err != nil {
				return err
			}
		}

		for _, st := range plan.Update {
			res, err := tx.ExecContext(ctx, `
				UPDATE stages SET name = $3, position = $4, color = $5, updated_at = $6
				WHERE shop_id = $1 AND id = $2
			`, shopID, st.ID, st.Name, st.Position, st.Color, st.UpdatedAt)
			if err != nil {
				return err
			}
			if err := expectOne(res); err != nil {
				return fmt.Errorf("update stage %s: %w", st.ID, err)
			}
		}

		for _, ra := range plan.Reassign {
			if _, err := tx.ExecContext(ctx, `
				UPDATE garments SET stage_id = $3
				WHERE shop_id = $1 AND stage_id = $2
			`, shopID, ra.From, ra.To); err != nil {
				return err
			}
		}

		reassigned := make(map[string]bool, len(plan.Reassign))
		for _, ra := range plan.Reassign {
			reassigned[ra.From] = true
		}
		for _, id := range plan.Delete {
			// el plan se armó con conteos leídos antes del lock
			if !reassigned[id] {
				var n int
				if err := tx.QueryRowContext(ctx, `
					SELECT COUNT(*) FROM garments WHERE shop_id = $1 AND stage_id = $2
				`, shopID, id).Scan(&n); err != nil {
					return err
				}
				if n > 0 {
					return fmt.Errorf("%w: stage %s has %d garments and no reassignment", stages.ErrConflict, id, n)
				}
			}

			res, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE shop_id = $1 AND id = $2`, shopID, id)
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: stage %s still has garments", stages.ErrConflict, id)
			}
			if err != nil {
				return err
			}
			if err := expectOne(res); err != nil {
				return fmt.Errorf("delete stage %s: %w", id, err)
			}
		}
		return nil
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertStage(ctx context.Context, db execer, st stages.Stage) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO stages (id, shop_id, name, position, color, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, st.ID, st.ShopID, st.Name, st.Position, st.Color, st.CreatedAt, st.UpdatedAt)
	return err
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
