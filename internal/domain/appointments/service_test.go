package appointments

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"alterations-manager/internal/domain/shops"
	"alterations-manager/internal/ports/notify"
	"alterations-manager/internal/ports/storage"
)

type testRepo struct {
	byID map[string]Appointment
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Appointment{}} }

func (r *testRepo) Create(_ context.Context, a Appointment) error {
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(_ context.Context, a Appointment) error {
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(_ context.Context, shopID, id string) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok || a.ShopID != shopID {
		return Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (r *testRepo) ListRange(_ context.Context, shopID string, from, to time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.byID {
		if a.ShopID == shopID && a.Overlaps(from, to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *testRepo) Overlapping(_ context.Context, shopID string, start, end time.Time, excludeID string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.byID {
		if a.ShopID == shopID && a.ID != excludeID && a.Status != StatusCancelled && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) DueForReminder(_ context.Context, from, to time.Time, _ int) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.byID {
		if a.Status.Open() && a.ReminderSentAt == nil && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) MarkReminded(_ context.Context, id string, at time.Time) error {
	a := r.byID[id]
	a.ReminderSentAt = &at
	r.byID[id] = a
	return nil
}

type testShops map[string]shops.Shop

func (s testShops) GetByID(_ context.Context, id string) (shops.Shop, error) {
	sh, ok := s[id]
	if !ok {
		return shops.Shop{}, shops.ErrNotFound
	}
	return sh, nil
}

type testClients struct{}

func (testClients) Exists(_ context.Context, _, id string) error {
	if id != "client-1" {
		return storage.ErrNotFound
	}
	return nil
}

type recordingPublisher struct {
	events []notify.Event
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, e)
	return nil
}

// La tienda abre lunes a viernes 09:00-18:00 en Lima (UTC-5).
func newTestService() (*Service, *testRepo, *recordingPublisher) {
	repo := newTestRepo()
	var hours []shops.WorkingHours
	for d := time.Monday; d <= time.Friday; d++ {
		hours = append(hours, shops.WorkingHours{Weekday: d, Open: "09:00", Close: "18:00"})
	}
	hours = append(hours, shops.WorkingHours{Weekday: time.Sunday, Closed: true})
	sh := testShops{
		"shop-1": {ID: "shop-1", Timezone: "America/Lima", Hours: hours},
		"shop-2": {ID: "shop-2"},
	}
	pub := &recordingPublisher{}
	svc := NewService(repo, sh, testClients{}, pub)
	return svc, repo, pub
}

var lima = func() *time.Location {
	loc, err := time.LoadLocation("America/Lima")
	if err != nil {
		return time.FixedZone("PET", -5*3600)
	}
	return loc
}()

// monday 2026-03-02
func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, lima)
}

func TestService_Create_WorkingHoursInShopTimezone(t *testing.T) {
	svc, _, pub := newTestService()

	a, err := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", Type: "fitting", StartsAt: at(9, 0), EndsAt: at(9, 30)})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if a.Status != StatusScheduled || a.StartsAt.Location() != time.UTC {
		t.Fatalf("expected scheduled and stored in UTC, got %s %s", a.Status, a.StartsAt.Location())
	}
	if len(pub.events) != 1 || pub.events[0].Type != notify.EventAppointmentScheduled {
		t.Fatalf("expected appointment.scheduled, got %+v", pub.events)
	}

	bad := []CreateInput{
		{ClientID: "client-1", StartsAt: at(8, 30), EndsAt: at(9, 15)},
		{ClientID: "client-1", StartsAt: at(17, 30), EndsAt: at(18, 30)},
		{ClientID: "client-1", StartsAt: at(10, 0).AddDate(0, 0, 6), EndsAt: at(11, 0).AddDate(0, 0, 6)},
		{ClientID: "client-1", StartsAt: at(10, 0).AddDate(0, 0, 5), EndsAt: at(11, 0).AddDate(0, 0, 5)},
		{ClientID: "client-1", StartsAt: at(11, 0), EndsAt: at(10, 0)},
		{ClientID: "client-1", Type: "party", StartsAt: at(11, 0), EndsAt: at(12, 0)},
		{ClientID: "client-9", StartsAt: at(11, 0), EndsAt: at(12, 0)},
	}
	for i, in := range bad {
		if _, err := svc.Create(context.Background(), "shop-1", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_Create_NoHoursMeansNoRestriction(t *testing.T) {
	svc, _, _ := newTestService()

	start := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	if _, err := svc.Create(context.Background(), "shop-2", CreateInput{ClientID: "client-1", StartsAt: start, EndsAt: start.Add(8 * time.Hour)}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := svc.Create(context.Background(), "shop-2", CreateInput{ClientID: "client-1", StartsAt: start.Add(24 * time.Hour), EndsAt: start.Add(33 * time.Hour)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput beyond 8h, got %v", err)
	}
}

func TestService_Create_Overlap(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(10, 0), EndsAt: at(11, 0)})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(10, 30), EndsAt: at(11, 30)}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// back to back
	if _, err := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(11, 0), EndsAt: at(11, 30)}); err != nil {
		t.Fatalf("adjacent appointment should be allowed: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), "shop-1", first.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if _, err := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(10, 0), EndsAt: at(10, 45)}); err != nil {
		t.Fatalf("cancelled slot should be free: %v", err)
	}
}

func TestService_Update_RescheduleResetsReminder(t *testing.T) {
	svc, repo, _ := newTestService()
	a, _ := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(10, 0), EndsAt: at(11, 0)})
	_ = repo.MarkReminded(context.Background(), a.ID, time.Now())

	notes := "bring shoes"
	kept, err := svc.Update(context.Background(), "shop-1", a.ID, UpdateInput{Notes: &notes})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if kept.ReminderSentAt == nil {
		t.Fatalf("notes change must keep reminder state")
	}

	start, end := at(14, 0), at(15, 0)
	moved, err := svc.Update(context.Background(), "shop-1", a.ID, UpdateInput{StartsAt: &start, EndsAt: &end})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if moved.ReminderSentAt != nil || !moved.StartsAt.Equal(start) {
		t.Fatalf("expected rescheduled with reminder reset, got %+v", moved)
	}

	_, _ = svc.SetStatus(context.Background(), "shop-1", a.ID, StatusCompleted)
	if _, err := svc.Update(context.Background(), "shop-1", a.ID, UpdateInput{Notes: &notes}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict updating completed appointment, got %v", err)
	}
}

func TestService_SetStatus_Transitions(t *testing.T) {
	svc, _, pub := newTestService()
	a, _ := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(10, 0), EndsAt: at(11, 0)})

	if _, err := svc.SetStatus(context.Background(), "shop-1", a.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm error: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), "shop-1", a.ID, StatusScheduled); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict going back to scheduled, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), "shop-1", a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if last := pub.events[len(pub.events)-1]; last.Type != notify.EventAppointmentCancelled {
		t.Fatalf("expected appointment.cancelled, got %s", last.Type)
	}
	if _, err := svc.SetStatus(context.Background(), "shop-1", a.ID, StatusCompleted); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected cancelled to be final, got %v", err)
	}
}

func TestService_List_Range(t *testing.T) {
	svc, _, _ := newTestService()
	from := at(0, 0)

	if _, err := svc.List(context.Background(), "shop-1", from, from.Add(63*24*time.Hour)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for long range, got %v", err)
	}
	if _, err := svc.List(context.Background(), "shop-1", from, from); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty range, got %v", err)
	}
}

func TestService_SendReminders(t *testing.T) {
	svc, repo, pub := newTestService()
	svc.now = func() time.Time { return at(9, 0).Add(-23 * time.Hour) }

	soon, _ := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(9, 0), EndsAt: at(9, 30)})
	later, _ := svc.Create(context.Background(), "shop-1", CreateInput{ClientID: "client-1", StartsAt: at(9, 0).AddDate(0, 0, 2), EndsAt: at(9, 30).AddDate(0, 0, 2)})
	pub.events = nil

	pub.fail = true
	if n, err := svc.SendReminders(context.Background(), 24*time.Hour); n != 0 || err == nil {
		t.Fatalf("expected failure reported and nothing marked, got %d %v", n, err)
	}
	if repo.byID[soon.ID].ReminderSentAt != nil {
		t.Fatalf("failed publish must not mark reminder")
	}

	pub.fail = false
	n, err := svc.SendReminders(context.Background(), 24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 reminder, got %d %v", n, err)
	}
	if pub.events[0].Type != notify.EventAppointmentReminder || pub.events[0].Data["appointment_id"] != soon.ID {
		t.Fatalf("unexpected event %+v", pub.events[0])
	}
	if repo.byID[later.ID].ReminderSentAt != nil {
		t.Fatalf("appointment outside lead must not be reminded")
	}

	if n, _ := svc.SendReminders(context.Background(), 24*time.Hour); n != 0 {
		t.Fatalf("expected reminders sent once, got %d", n)
	}
}
