package timeentries

import (
	"context"
	"testing"
	"time"

	"alterations-manager/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	byID map[string]Entry
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Entry{}} }

func (r *testRepo) Create(_ context.Context, e Entry) error {
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) Finish(_ context.Context, e Entry) error {
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) Delete(_ context.Context, _, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(_ context.Context, shopID, id string) (Entry, error) {
	e, ok := r.byID[id]
	if !ok || e.ShopID != shopID {
		return Entry{}, storage.ErrNotFound
	}
	return e, nil
}

func (r *testRepo) Running(_ context.Context, shopID, userID string) (Entry, error) {
	for _, e := range r.byID {
		if e.ShopID == shopID && e.UserID == userID && e.Running() {
			return e, nil
		}
	}
	return Entry{}, storage.ErrNotFound
}

func (r *testRepo) ListByGarment(_ context.Context, shopID, garmentID string) ([]Entry, error) {
	var out []Entry
	for _, e := range r.byID {
		if e.ShopID == shopID && e.GarmentID == garmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type testGarments map[string]bool

func (g testGarments) Exists(_ context.Context, _, id string) error {
	if !g[id] {
		return storage.ErrNotFound
	}
	return nil
}

func newTestService(clock *time.Time) *Service {
	svc := NewService(newTestRepo(), testGarments{"g-1": true, "g-2": true})
	svc.now = func() time.Time { return *clock }
	return svc
}

func TestService_StartStop(t *testing.T) {
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestService(&clock)
	ctx := context.Background()

	e, err := svc.Start(ctx, "shop-1", "user-1", "g-1", "hemming")
	require.NoError(t, err)
	assert.True(t, e.Running())

	_, err = svc.Start(ctx, "shop-1", "user-1", "g-2", "")
	assert.ErrorIs(t, err, ErrConflict)

	// otro usuario puede tener su propio timer
	_, err = svc.Start(ctx, "shop-1", "user-2", "g-2", "")
	require.NoError(t, err)

	cur, running, err := svc.Current(ctx, "shop-1", "user-1")
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, e.ID, cur.ID)

	clock = clock.Add(47*time.Minute + 40*time.Second)
	stopped, err := svc.Stop(ctx, "shop-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 48, stopped.DurationMinutes)
	assert.False(t, stopped.Running())

	_, err = svc.Stop(ctx, "shop-1", "user-1")
	assert.ErrorIs(t, err, ErrNotRunning)

	_, running, _ = svc.Current(ctx, "shop-1", "user-1")
	assert.False(t, running)
}

func TestService_Stop_MinimumOneMinute(t *testing.T) {
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestService(&clock)

	_, err := svc.Start(context.Background(), "shop-1", "user-1", "g-1", "")
	require.NoError(t, err)
	clock = clock.Add(10 * time.Second)

	e, err := svc.Stop(context.Background(), "shop-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.DurationMinutes)
}

func TestService_AddManual_AndTotals(t *testing.T) {
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestService(&clock)
	ctx := context.Background()

	_, err := svc.AddManual(ctx, "shop-1", "user-1", "g-1", ManualInput{Minutes: 30})
	require.NoError(t, err)
	e, err := svc.AddManual(ctx, "shop-1", "user-1", "g-1", ManualInput{Minutes: 90, StartedAt: clock.Add(-3 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, clock.Add(-90*time.Minute), *e.EndedAt)

	for _, m := range []int{0, -5, 1441} {
		_, err := svc.AddManual(ctx, "shop-1", "user-1", "g-1", ManualInput{Minutes: m})
		assert.ErrorIs(t, err, ErrInvalidInput, "minutes=%d", m)
	}
	_, err = svc.AddManual(ctx, "shop-1", "user-1", "missing", ManualInput{Minutes: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	items, total, err := svc.ListByGarment(ctx, "shop-1", "g-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 120, total)

	require.NoError(t, svc.Delete(ctx, "shop-1", e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "shop-1", e.ID), ErrNotFound)

	_, _, err = svc.ListByGarment(ctx, "shop-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
