package postgres

import (
	"context"
	"database/sql"

	"alterations-manager/internal/domain/catalog"
	"alterations-manager/internal/domain/garments"

	"github.com/doug-martin/goqu/v9"
)

type GarmentsRepo struct {
	db *sql.DB
}

func NewGarmentsRepo(db *sql.DB) *GarmentsRepo {
	return &GarmentsRepo{db: db}
}

func (r *GarmentsRepo) CreateMany(ctx context.Context, items []garments.Garment) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, g := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO garments (
					id, shop_id, order_id, client_id,
					name, notes, stage_id, photo_url,
					due_date, event_date, done_at,
					created_at, updated_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			`,
				g.ID,
				g.ShopID,
				g.OrderID,
				g.ClientID,
				g.Name,
				g.Notes,
				g.StageID,
				g.PhotoURL,
				toNullDate(g.DueDate),
				toNullDate(g.EventDate),
				toNullDate(g.DoneAt),
				g.CreatedAt,
				g.UpdatedAt,
			); err != nil {
				return err
			}
			for _, l := range g.Services {
				if err := insertLineItem(ctx, tx, l); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var garmentColumns = []any{
	"id", "shop_id", "order_id", "client_id",
	"name", "notes", "stage_id", "photo_url",
	"due_date", "event_date", "done_at",
	"created_at", "updated_at",
}

func (r *GarmentsRepo) GetByID(ctx context.Context, shopID, id string) (garments.Garment, error) {
	ds := dialect.From("garments").
		Select(garmentColumns...).
		Where(goqu.Ex{"shop_id": shopID, "id": id})

	items, err := r.query(ctx, ds)
	if err != nil {
		return garments.Garment{}, err
	}
	if len(items) == 0 {
		return garments.Garment{}, ErrNotFound
	}
	return items[0], nil
}

func (r *GarmentsRepo) Update(ctx context.Context, g garments.Garment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE garments SET
			name = $3,
			notes = $4,
			stage_id = $5,
			photo_url = $6,
			due_date = $7,
			event_date = $8,
			done_at = $9,
			updated_at = $10
		WHERE shop_id = $1 AND id = $2
	`,
		g.ShopID,
		g.ID,
		g.Name,
		g.Notes,
		g.StageID,
		g.PhotoURL,
		toNullDate(g.DueDate),
		toNullDate(g.EventDate),
		toNullDate(g.DoneAt),
		g.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *GarmentsRepo) List(ctx context.Context, shopID string, f garments.ListFilter) ([]garments.Garment, error) {
	ds := dialect.From("garments").
		Select(garmentColumns...).
		Where(goqu.C("shop_id").Eq(shopID))

	if f.StageID != "" {
		ds = ds.Where(goqu.C("stage_id").Eq(f.StageID))
	}
	if f.ClientID != "" {
		ds = ds.Where(goqu.C("client_id").Eq(f.ClientID))
	}
	if f.OrderID != "" {
		ds = ds.Where(goqu.C("order_id").Eq(f.OrderID))
	}
	if f.DueBefore != nil {
		ds = ds.Where(goqu.C("due_date").Lte(f.DueBefore.UTC()))
	}
	ds = ds.Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}

	return r.query(ctx, ds)
}

func (r *GarmentsRepo) query(ctx context.Context, ds *goqu.SelectDataset) ([]garments.Garment, error) {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]garments.Garment, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			g                   garments.Garment
			due, event, doneAt sql.NullTime
		)
		if err := rows.Scan(
			&g.ID,
			&g.ShopID,
			&g.OrderID,
			&g.ClientID,
			&g.Name,
			&g.Notes,
			&g.StageID,
			&g.PhotoURL,
			&due,
			&event,
			&doneAt,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		g.DueDate = fromNullTime(due)
		g.EventDate = fromNullTime(event)
		g.DoneAt = fromNullTime(doneAt)
		g.Services = []garments.LineItem{}
		index[g.ID] = len(out)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, g := range out {
		ids = append(ids, g.ID)
	}
	services, err := r.lineItems(ctx, out[0].ShopID, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range services {
		i := index[l.GarmentID]
		out[i].Services = append(out[i].Services, l)
	}
	return out, nil
}

var lineItemColumns = []any{
	"id", "shop_id", "garment_id", "catalog_item_id",
	"name", "description",
	"quantity", "unit", "unit_price_cents",
	"is_done", "created_at", "updated_at",
}

func (r *GarmentsRepo) lineItems(ctx context.Context, shopID string, garmentIDs []string) ([]garments.LineItem, error) {
	q, args, err := dialect.From("garment_services").
		Select(lineItemColumns...).
		Where(goqu.Ex{"shop_id": shopID, "garment_id": garmentIDs}).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]garments.LineItem, 0)
	for rows.Next() {
		var (
			l         garments.LineItem
			catalogID sql.NullString
			unit      string
		)
		if err := rows.Scan(
			&l.ID,
			&l.ShopID,
			&l.GarmentID,
			&catalogID,
			&l.Name,
			&l.Description,
			&l.Quantity,
			&unit,
			&l.UnitPriceCents,
			&l.IsDone,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		l.CatalogItemID = catalogID.String
		l.Unit = catalog.Unit(unit)
		out = append(out, l)
	}
	return out, rows.Err()
}

// SubtotalsByOrder suma total_cents, que se guarda con LineItem.TotalCents para
// que estos subtotales coincidan con los que arma la app al cargar la orden.
func (r *GarmentsRepo) SubtotalsByOrder(ctx context.Context, shopID string, orderIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	q, args, err := dialect.From(goqu.T("garment_services").As("s")).
		Join(goqu.T("garments").As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("s.garment_id")))).
		Select(
			goqu.I("g.order_id"),
			goqu.L("COALESCE(SUM(s.total_cents), 0)::bigint"),
		).
		Where(
			goqu.I("g.shop_id").Eq(shopID),
			goqu.I("g.order_id").In(orderIDs),
		).
		GroupBy(goqu.I("g.order_id")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			total   int64
		)
		if err := rows.Scan(&orderID, &total); err != nil {
			return nil, err
		}
		out[orderID] = total
	}
	return out, rows.Err()
}

func (r *GarmentsRepo) AddLineItem(ctx context.Context, l garments.LineItem) error {
	return insertLineItem(ctx, r.db, l)
}

func (r *GarmentsRepo) UpdateLineItem(ctx context.Context, l garments.LineItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE garment_services SET
			name = $4,
			description = $5,
			quantity = $6,
			unit = $7,
			unit_price_cents = $8,
			total_cents = $9,
			is_done = $10,
			updated_at = $11
		WHERE shop_id = $1 AND garment_id = $2 AND id = $3
	`,
		l.ShopID,
		l.GarmentID,
		l.ID,
		l.Name,
		l.Description,
		l.Quantity,
		string(l.Unit),
		l.UnitPriceCents,
		l.TotalCents(),
		l.IsDone,
		l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *GarmentsRepo) DeleteLineItem(ctx context.Context, shopID, garmentID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM garment_services
		WHERE shop_id = $1 AND garment_id = $2 AND id = $3
	`, shopID, garmentID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func insertLineItem(ctx context.Context, db execer, l garments.LineItem) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO garment_services (
			id, shop_id, garment_id, catalog_item_id,
			name, description,
			quantity, unit, unit_price_cents, total_cents,
			is_done, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		l.ID,
		l.ShopID,
		l.GarmentID,
		toNullString(l.CatalogItemID),
		l.Name,
		l.Description,
		l.Quantity,
		string(l.Unit),
		l.UnitPriceCents,
		l.TotalCents(),
		l.IsDone,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}
