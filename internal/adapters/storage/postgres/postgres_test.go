package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"alterations-manager/internal/domain/appointments"
	"alterations-manager/internal/domain/catalog"
	"alterations-manager/internal/domain/clients"
	"alterations-manager/internal/domain/garments"
	"alterations-manager/internal/domain/orders"
	"alterations-manager/internal/domain/payments"
	"alterations-manager/internal/domain/stages"
	"alterations-manager/internal/domain/timeentries"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestShopsRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM shops WHERE id = \\$1").
		WithArgs("shop-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewShopsRepo(db).GetByID(context.Background(), "shop-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShopsRepo_GetByOwner_DecodesHours(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM shops WHERE owner_user_id = \\$1").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_user_id", "name", "email", "phone", "address",
			"timezone", "currency", "working_hours",
			"payment_account_id", "charges_enabled", "payouts_enabled", "details_submitted", "payments_updated_at",
			"created_at", "updated_at",
		}).AddRow(
			"shop-1", "owner-1", "Puntada", "", "", "",
			"America/Lima", "PEN", []byte(`[{"weekday":1,"open":"09:00","close":"18:00","closed":false}]`),
			"acct_1", true, false, true, now,
			now, now,
		))

	sh, err := NewShopsRepo(db).GetByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, sh.Hours, 1)
	assert.Equal(t, time.Monday, sh.Hours[0].Weekday)
	assert.Equal(t, "acct_1", sh.Payments.AccountID)
	require.NotNil(t, sh.Payments.UpdatedAt)
}

func TestClientsRepo_Search_BuildsFilteredQuery(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "clients" WHERE`)).
		WithArgs("shop-1", "%ana%", "%ana%", "%ana%", 10, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "shop_id", "first_name", "last_name", "email", "phone",
			"mailing_address", "notes", "accept_email", "accept_sms", "created_at", "updated_at",
		}).AddRow("c-1", "shop-1", "Ana", "Quispe", "ana@mail.com", "", "", "", true, false, now, now))

	out, err := NewClientsRepo(db).Search(context.Background(), "shop-1", clients.SearchFilter{Query: "ana", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ana Quispe", out[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func TestStagesRepo_Apply_RunsPlanInOrder(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	plan := stages.Plan{
		Create:   []stages.Stage{{ID: "new", ShopID: "shop-1", Name: "Pressing", Position: 1, Color: "#10B981", CreatedAt: now, UpdatedAt: now}},
		Update:   []stages.Stage{{ID: "a", ShopID: "shop-1", Name: "New", Position: 0, Color: "#9CA3AF", UpdatedAt: now}},
		Reassign: []stages.Reassignment{{From: "b", To: "new"}},
		Delete:   []string{"b"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM stages WHERE shop_id = \\$1 FOR UPDATE").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO stages").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stages SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE garments SET stage_id").WithArgs("shop-1", "b", "new").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM stages").WithArgs("shop-1", "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewStagesRepo(db).Apply(context.Background(), "shop-1", plan))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStagesRepo_Apply_RollsBackOnMissingStage(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM stages").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM garments").WithArgs("shop-1", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM stages").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewStagesRepo(db).Apply(context.Background(), "shop-1", stages.Plan{Delete: []string{"ghost"}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStagesRepo_Apply_RechecksGarmentsUnderLock(t *testing.T) {
	db, mock := newMock(t)

	// una prenda entró a la etapa después de armar el plan
	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM stages").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM garments").WithArgs("shop-1", "b").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := NewStagesRepo(db).Apply(context.Background(), "shop-1", stages.Plan{Delete: []string{"b"}})
	assert.ErrorIs(t, err, stages.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStagesRepo_Apply_MapsForeignKeyViolation(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM stages").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM garments").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM stages").
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "garments_stage_id_fkey"})
	mock.ExpectRollback()

	err := NewStagesRepo(db).Apply(context.Background(), "shop-1", stages.Plan{Delete: []string{"b"}})
	assert.ErrorIs(t, err, stages.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGarmentsRepo_LineTotalsMatchApp(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	// 1.005 * 100 en float64 es 100.4999...; numeric lo redondearía a 101
	l := garments.LineItem{
		ID: "l-1", ShopID: "shop-1", GarmentID: "g-1", Name: "Hem",
		Quantity: 1.005, Unit: catalog.UnitItem, UnitPriceCents: 100,
		CreatedAt: now, UpdatedAt: now,
	}
	require.Equal(t, int64(100), l.TotalCents())

	anyArg := sqlmock.AnyArg()
	mock.ExpectExec("INSERT INTO garment_services").
		WithArgs("l-1", "shop-1", "g-1", anyArg, "Hem", "", 1.005, "item", int64(100), int64(100), false, anyArg, anyArg).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(s.total_cents), 0)::bigint")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "total"}).AddRow("o-1", int64(100)))

	r := NewGarmentsRepo(db)
	require.NoError(t, r.AddLineItem(context.Background(), l))
	got, err := r.SubtotalsByOrder(context.Background(), "shop-1", []string{"o-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"o-1": 100}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_List(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT \\* FROM catalog_items").
		WithArgs("shop-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "shop_id", "name", "description",
			"default_quantity", "default_unit", "default_unit_price_cents",
			"frequently_used", "created_at", "updated_at",
		}).
			AddRow("i-1", "shop-1", "Hem", "", 1.0, "item", int64(1500), true, now, now).
			AddRow("i-2", "shop-1", "Alteration hour", "", 1.0, "hour", int64(4000), false, now, now))

	items, err := NewCatalogRepo(db).List(context.Background(), "shop-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, catalog.UnitHour, items[1].DefaultUnit)
	assert.Equal(t, int64(1500), items[0].DefaultUnitPriceCents)
}

func TestOrdersRepo_Create_RetriesNumberCollision(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO orders").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "orders_shop_number_key"})
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"order_number"}).AddRow(7))

	o := &orders.Order{ID: "o-1", ShopID: "shop-1", ClientID: "c-1", Status: orders.StatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewOrdersRepo(db).Create(context.Background(), o))
	assert.Equal(t, 7, o.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersRepo_AddPayment_DuplicateExternalID(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO order_payments").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "order_payments_external_id_key"})
	mock.ExpectRollback()

	_, err := NewOrdersRepo(db).AddPayment(context.Background(), orders.Payment{
		ID: "p-1", ShopID: "shop-1", OrderID: "o-1", AmountCents: 500, Method: orders.MethodCard, ExternalID: "pi_1",
	})
	assert.ErrorIs(t, err, orders.ErrDuplicatePayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentsRepo_Create_MapsExclusionViolation(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: codeExclusionViolation, ConstraintName: "appointments_no_overlap"})

	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	err := NewAppointmentsRepo(db).Create(context.Background(), appointments.Appointment{
		ID: "a-1", ShopID: "shop-1", ClientID: "c-1",
		Type: appointments.TypeFitting, Status: appointments.StatusScheduled,
		StartsAt: start, EndsAt: start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, appointments.ErrOverlap)
}

func TestTimeEntriesRepo_Create_MapsRunningIndex(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO time_entries").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "time_entries_one_running_idx"})

	err := NewTimeEntriesRepo(db).Create(context.Background(), timeentries.Entry{
		ID: "t-1", ShopID: "shop-1", GarmentID: "g-1", UserID: "u-1", StartedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, timeentries.ErrAlreadyRunning)
}

func TestWebhookEventsRepo_InsertEvent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWebhookEventsRepo(db)
	e := payments.WebhookEvent{ID: "evt_1", Type: "payment_intent.succeeded", Payload: []byte(`{}`), ReceivedAt: time.Now().UTC()}

	mock.ExpectQuery("INSERT INTO payment_webhook_events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt_1"))
	fresh, err := repo.InsertEvent(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, fresh)

	mock.ExpectQuery("INSERT INTO payment_webhook_events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	fresh, err = repo.InsertEvent(context.Background(), e)
	require.NoError(t, err)
	assert.False(t, fresh, "processed events are not delivered again")
}
