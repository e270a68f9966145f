package memory

import (
	"context"
	"testing"
	"time"

	"alterations-manager/internal/domain/appointments"
	"alterations-manager/internal/domain/garments"
	"alterations-manager/internal/domain/orders"
	"alterations-manager/internal/domain/payments"
	"alterations-manager/internal/domain/stages"
	"alterations-manager/internal/domain/timeentries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRepo_CountsAndReassignsGarments(t *testing.T) {
	ctx := context.Background()
	gr := NewGarmentRepo()
	sr := NewStageRepo(gr)

	require.NoError(t, sr.CreateMany(ctx, []stages.Stage{
		{ID: "s1", ShopID: "shop", Name: "New", Position: 0},
		{ID: "s2", ShopID: "shop", Name: "Done", Position: 1},
	}))
	require.NoError(t, gr.CreateMany(ctx, []garments.Garment{
		{ID: "g1", ShopID: "shop", StageID: "s1"},
		{ID: "g2", ShopID: "shop", StageID: "s1"},
	}))

	list, err := sr.ListByShop(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].GarmentCount)

	err = sr.Apply(ctx, "shop", stages.Plan{
		Update:   []stages.Stage{{ID: "s2", ShopID: "shop", Name: "Done", Position: 0}},
		Reassign: []stages.Reassignment{{From: "s1", To: "s2"}},
		Delete:   []string{"s1"},
	})
	require.NoError(t, err)

	list, err = sr.ListByShop(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].GarmentCount)

	g, err := gr.GetByID(ctx, "shop", "g1")
	require.NoError(t, err)
	assert.Equal(t, "s2", g.StageID)
}

func TestStageRepo_Apply_RefusesDeletingOccupiedStage(t *testing.T) {
	ctx := context.Background()
	gr := NewGarmentRepo()
	sr := NewStageRepo(gr)

	require.NoError(t, sr.CreateMany(ctx, []stages.Stage{
		{ID: "s1", ShopID: "shop", Name: "New", Position: 0},
		{ID: "s2", ShopID: "shop", Name: "Done", Position: 1},
	}))
	require.NoError(t, gr.CreateMany(ctx, []garments.Garment{{ID: "g1", ShopID: "shop", StageID: "s2"}}))

	err := sr.Apply(ctx, "shop", stages.Plan{Delete: []string{"s2"}})
	assert.ErrorIs(t, err, stages.ErrConflict)

	list, err := sr.ListByShop(ctx, "shop")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGarmentRepo_SubtotalsAndLineItems(t *testing.T) {
	ctx := context.Background()
	gr := NewGarmentRepo()
	require.NoError(t, gr.CreateMany(ctx, []garments.Garment{
		{ID: "g1", ShopID: "shop", OrderID: "o1", Services: []garments.LineItem{{ID: "l1", ShopID: "shop", GarmentID: "g1", Quantity: 1.5, UnitPriceCents: 1001}}},
		{ID: "g2", ShopID: "shop", OrderID: "o1"},
	}))
	require.NoError(t, gr.AddLineItem(ctx, garments.LineItem{ID: "l2", ShopID: "shop", GarmentID: "g2", Quantity: 1, UnitPriceCents: 500}))

	totals, err := gr.SubtotalsByOrder(ctx, "shop", []string{"o1", "o2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1502+500), totals["o1"])
	assert.Zero(t, totals["o2"])

	require.NoError(t, gr.DeleteLineItem(ctx, "shop", "g2", "l2"))
	assert.ErrorIs(t, gr.DeleteLineItem(ctx, "shop", "g2", "l2"), ErrNotFound)
	assert.ErrorIs(t, gr.AddLineItem(ctx, garments.LineItem{ID: "x", ShopID: "other", GarmentID: "g1"}), ErrNotFound)
}

func TestOrderRepo_NumbersPerShopAndRejectsDuplicatePayments(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepo()

	a := &orders.Order{ID: "a", ShopID: "s1"}
	b := &orders.Order{ID: "b", ShopID: "s1"}
	c := &orders.Order{ID: "c", ShopID: "s2"}
	for _, o := range []*orders.Order{a, b, c} {
		require.NoError(t, r.Create(ctx, o))
	}
	assert.Equal(t, 1, a.Number)
	assert.Equal(t, 2, b.Number)
	assert.Equal(t, 1, c.Number)

	o, err := r.AddPayment(ctx, orders.Payment{ID: "p1", ShopID: "s1", OrderID: "a", AmountCents: 300, ExternalID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, int64(300), o.PaidCents)

	_, err = r.AddPayment(ctx, orders.Payment{ID: "p2", ShopID: "s1", OrderID: "a", AmountCents: 300, ExternalID: "pi_1"})
	assert.ErrorIs(t, err, orders.ErrDuplicatePayment)

	n, err := r.CountByClient(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAppointmentRepo_RejectsOverlapUnlessCancelled(t *testing.T) {
	ctx := context.Background()
	r := NewAppointmentRepo()
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	first := appointments.Appointment{ID: "a1", ShopID: "shop", Status: appointments.StatusScheduled, StartsAt: start, EndsAt: start.Add(time.Hour)}
	require.NoError(t, r.Create(ctx, first))

	clash := appointments.Appointment{ID: "a2", ShopID: "shop", Status: appointments.StatusScheduled, StartsAt: start.Add(30 * time.Minute), EndsAt: start.Add(90 * time.Minute)}
	assert.ErrorIs(t, r.Create(ctx, clash), appointments.ErrOverlap)

	adjacent := appointments.Appointment{ID: "a3", ShopID: "shop", Status: appointments.StatusScheduled, StartsAt: start.Add(time.Hour), EndsAt: start.Add(2 * time.Hour)}
	require.NoError(t, r.Create(ctx, adjacent))

	first.Status = appointments.StatusCancelled
	require.NoError(t, r.Update(ctx, first))
	// 14:30-15:30 todavía pisa a3 (15:00-16:00)
	assert.ErrorIs(t, r.Create(ctx, clash), appointments.ErrOverlap)

	inside := appointments.Appointment{ID: "a4", ShopID: "shop", Status: appointments.StatusScheduled, StartsAt: start.Add(15 * time.Minute), EndsAt: start.Add(45 * time.Minute)}
	require.NoError(t, r.Create(ctx, inside))
}

func TestTimeEntryRepo_OneRunningPerUser(t *testing.T) {
	ctx := context.Background()
	r := NewTimeEntryRepo()
	now := time.Now().UTC()

	require.NoError(t, r.Create(ctx, timeentries.Entry{ID: "e1", ShopID: "shop", UserID: "u1", StartedAt: now}))
	assert.ErrorIs(t, r.Create(ctx, timeentries.Entry{ID: "e2", ShopID: "shop", UserID: "u1", StartedAt: now}), timeentries.ErrAlreadyRunning)

	end := now.Add(time.Hour)
	require.NoError(t, r.Finish(ctx, timeentries.Entry{ID: "e1", ShopID: "shop", EndedAt: &end, DurationMinutes: 60}))
	_, err := r.Running(ctx, "shop", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebhookEventRepo_RetriesUnprocessed(t *testing.T) {
	ctx := context.Background()
	r := NewWebhookEventRepo()
	e := payments.WebhookEvent{ID: "evt_1", Type: "x"}

	fresh, err := r.InsertEvent(ctx, e)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = r.InsertEvent(ctx, e)
	require.NoError(t, err)
	assert.True(t, fresh, "unprocessed event should be handed out again")

	require.NoError(t, r.MarkProcessed(ctx, "evt_1", time.Now(), payments.ResultProcessed))
	fresh, err = r.InsertEvent(ctx, e)
	require.NoError(t, err)
	assert.False(t, fresh)
}
