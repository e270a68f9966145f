package postgres

import (
	"context"
	"database/sql"
	"time"

	"alterations-manager/internal/domain/catalog"

	"github.com/jmoiron/sqlx"
)

type CatalogRepo struct {
	db *sqlx.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: sqlx.NewDb(db, "pgx")}
}

type catalogRow struct {
	ID                    string    `db:"id"`
	ShopID                string    `db:"shop_id"`
	Name                  string    `db:"name"`
	Description           string    `db:"description"`
	DefaultQuantity       float64   `db:"default_quantity"`
	DefaultUnit           string    `db:"default_unit"`
	DefaultUnitPriceCents int64     `db:"default_unit_price_cents"`
	FrequentlyUsed        bool      `db:"frequently_used"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func toCatalogRow(it catalog.Item) catalogRow {
	return catalogRow{
		ID:                    it.ID,
		ShopID:                it.ShopID,
		Name:                  it.Name,
		Description:           it.Description,
		DefaultQuantity:       it.DefaultQuantity,
		DefaultUnit:           string(it.DefaultUnit),
		DefaultUnitPriceCents: it.DefaultUnitPriceCents,
		FrequentlyUsed:        it.FrequentlyUsed,
		CreatedAt:             it.CreatedAt,
		UpdatedAt:             it.UpdatedAt,
	}
}

func (row catalogRow) item() catalog.Item {
	return catalog.Item{
		ID:                    row.ID,
		ShopID:                row.ShopID,
		Name:                  row.Name,
		Description:           row.Description,
		DefaultQuantity:       row.DefaultQuantity,
		DefaultUnit:           catalog.Unit(row.DefaultUnit),
		DefaultUnitPriceCents: row.DefaultUnitPriceCents,
		FrequentlyUsed:        row.FrequentlyUsed,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

func (r *CatalogRepo) Create(ctx context.Context, it catalog.Item) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO catalog_items (
			id, shop_id, name, description,
			default_quantity, default_unit, default_unit_price_cents,
			frequently_used, created_at, updated_at
		) VALUES (
			:id, :shop_id, :name, :description,
			:default_quantity, :default_unit, :default_unit_price_cents,
			:frequently_used, :created_at, :updated_at
		)
	`, toCatalogRow(it))
	return err
}

func (r *CatalogRepo) Update(ctx context.Context, it catalog.Item) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE catalog_items SET
			name = :name,
			description = :description,
			default_quantity = :default_quantity,
			default_unit = :default_unit,
			default_unit_price_cents = :default_unit_price_cents,
			frequently_used = :frequently_used,
			updated_at = :updated_at
		WHERE shop_id = :shop_id AND id = :id
	`, toCatalogRow(it))
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *CatalogRepo) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *CatalogRepo) GetByID(ctx context.Context, shopID, id string) (catalog.Item, error) {
	var row catalogRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT * FROM catalog_items WHERE shop_id = $1 AND id = $2
	`, shopID, id); err != nil {
		return catalog.Item{}, rowErr(err)
	}
	return row.item(), nil
}

func (r *CatalogRepo) List(ctx context.Context, shopID string) ([]catalog.Item, error) {
	var rows []catalogRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM catalog_items
		WHERE shop_id = $1
		ORDER BY frequently_used DESC, lower(name) ASC
	`, shopID); err != nil {
		return nil, err
	}

	out := make([]catalog.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.item())
	}
	return out, nil
}
