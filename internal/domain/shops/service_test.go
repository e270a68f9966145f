package shops

import (
	"context"
	"errors"
	"testing"
	"time"

	"alterations-manager/internal/ports/storage"
)

var errRepoNotFound = storage.ErrNotFound

type testRepo struct {
	byID map[string]Shop
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Shop{}}
}

func (r *testRepo) Create(_ context.Context, s Shop) error {
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) Update(_ context.Context, s Shop) error {
	if _, ok := r.byID[s.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Shop, error) {
	s, ok := r.byID[id]
	if !ok {
		return Shop{}, errRepoNotFound
	}
	return s, nil
}

func (r *testRepo) GetByOwner(_ context.Context, ownerUserID string) (Shop, error) {
	for _, s := range r.byID {
		if s.OwnerUserID == ownerUserID {
			return s, nil
		}
	}
	return Shop{}, errRepoNotFound
}

func (r *testRepo) GetByPaymentAccount(_ context.Context, accountID string) (Shop, error) {
	for _, s := range r.byID {
		if s.Payments.AccountID == accountID {
			return s, nil
		}
	}
	return Shop{}, errRepoNotFound
}

type countingSeeder struct {
	calls []string
}

func (c *countingSeeder) SeedDefaults(_ context.Context, shopID string) error {
	c.calls = append(c.calls, shopID)
	return nil
}

func TestService_Create_SeedsStagesAndDefaults(t *testing.T) {
	seeder := &countingSeeder{}
	svc := NewService(newTestRepo(), seeder)

	sh, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:  "  Puntada Fina ",
		Email: "HOLA@Puntada.com",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if sh.Name != "Puntada Fina" || sh.Email != "hola@puntada.com" {
		t.Fatalf("expected trimmed name and lowercased email, got %q %q", sh.Name, sh.Email)
	}
	if sh.Timezone != "UTC" || sh.Currency != "USD" {
		t.Fatalf("expected defaults UTC/USD, got %s/%s", sh.Timezone, sh.Currency)
	}
	if len(seeder.calls) != 1 || seeder.calls[0] != sh.ID {
		t.Fatalf("expected stages seeded for new shop, got %v", seeder.calls)
	}
}

func TestService_Create_OnePerOwner(t *testing.T) {
	svc := NewService(newTestRepo(), nil)

	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{Name: "A"}); err != nil {
		t.Fatalf("Create #1 error: %v", err)
	}
	_, err := svc.Create(context.Background(), "owner-1", CreateInput{Name: "B"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestService_Create_RejectsBadTimezoneAndCurrency(t *testing.T) {
	svc := NewService(newTestRepo(), nil)

	if _, err := svc.Create(context.Background(), "o", CreateInput{Name: "A", Timezone: "Mars/Olympus"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for timezone, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "o", CreateInput{Name: "A", Currency: "dollars"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for currency, got %v", err)
	}
}

func TestNormalizeHours(t *testing.T) {
	hours, err := NormalizeHours([]WorkingHours{
		{Weekday: time.Saturday, Open: "10:00", Close: "14:00"},
		{Weekday: time.Sunday, Closed: true, Open: "ignored"},
		{Weekday: time.Monday, Open: "09:00", Close: "18:30"},
	})
	if err != nil {
		t.Fatalf("NormalizeHours error: %v", err)
	}
	if len(hours) != 3 || hours[0].Weekday != time.Sunday || hours[2].Weekday != time.Saturday {
		t.Fatalf("expected sorted sunday..saturday, got %+v", hours)
	}
	if hours[0].Open != "" {
		t.Fatalf("closed day should drop open/close")
	}

	bad := [][]WorkingHours{
		{{Weekday: time.Monday, Open: "18:00", Close: "09:00"}},
		{{Weekday: time.Monday, Open: "9am", Close: "5pm"}},
		{{Weekday: time.Monday, Closed: true}, {Weekday: time.Monday, Closed: true}},
		{{Weekday: time.Weekday(9), Closed: true}},
	}
	for i, in := range bad {
		if _, err := NormalizeHours(in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_SetPaymentAccount(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sh, _ := svc.Create(context.Background(), "owner-1", CreateInput{Name: "A"})
	updated, err := svc.SetPaymentAccount(context.Background(), sh.ID, PaymentAccount{AccountID: "acct_1", ChargesEnabled: true})
	if err != nil {
		t.Fatalf("SetPaymentAccount error: %v", err)
	}
	if updated.Payments.UpdatedAt == nil || !updated.Payments.UpdatedAt.Equal(now) {
		t.Fatalf("expected payments UpdatedAt = now")
	}

	found, err := svc.GetByPaymentAccount(context.Background(), "acct_1")
	if err != nil || found.ID != sh.ID {
		t.Fatalf("expected lookup by account id, got %v %v", found.ID, err)
	}
}
