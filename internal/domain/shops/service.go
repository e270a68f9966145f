package shops

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("shop %w", storage.ErrNotFound)
	ErrConflict     = errors.New("shop already exists")
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// StageSeeder crea las etapas por defecto de un taller nuevo (lo implementa stages.Service).
type StageSeeder interface {
	SeedDefaults(ctx context.Context, shopID string) error
}

type Service struct {
	repo   Repository
	seeder StageSeeder
	now    func() time.Time
}

func NewService(repo Repository, seeder StageSeeder) *Service {
	return &Service{
		repo:   repo,
		seeder: seeder,
		now:    time.Now,
	}
}

type CreateInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Timezone string
	Currency string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Shop, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Shop{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Shop{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}

	switch _, err := s.repo.GetByOwner(ctx, ownerUserID); {
	case err == nil:
		return Shop{}, ErrConflict
	case !errors.Is(err, storage.ErrNotFound):
		return Shop{}, err
	}

	tz, err := normalizeTimezone(in.Timezone)
	if err != nil {
		return Shop{}, err
	}
	cur, err := normalizeCurrency(in.Currency)
	if err != nil {
		return Shop{}, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Shop{}, err
	}

	now := s.now()
	sh := Shop{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		Timezone:    tz,
		Currency:    cur,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, sh); err != nil {
		return Shop{}, err
	}

	if s.seeder != nil {
		if err := s.seeder.SeedDefaults(ctx, sh.ID); err != nil {
			return Shop{}, fmt.Errorf("seed default stages: %w", err)
		}
	}
	return sh, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Shop, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Shop{}, ErrInvalidInput
	}
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

func (s *Service) GetByOwner(ctx context.Context, ownerUserID string) (Shop, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Shop{}, ErrInvalidInput
	}
	sh, err := s.repo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

// ShopIDForUser implementa middleware.ShopLookup.
func (s *Service) ShopIDForUser(ctx context.Context, userID string) (string, error) {
	sh, err := s.GetByOwner(ctx, userID)
	if err != nil {
		return "", err
	}
	return sh.ID, nil
}

func (s *Service) GetByPaymentAccount(ctx context.Context, accountID string) (Shop, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Shop{}, ErrInvalidInput
	}
	sh, err := s.repo.GetByPaymentAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, err
	}
	return sh, nil
}

// UpdateInput usa punteros para PATCH: nil = no tocar.
type UpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	Timezone *string
	Currency *string
}

func (s *Service) Update(ctx context.Context, shopID string, in UpdateInput) (Shop, error) {
	sh, err := s.GetByID(ctx, shopID)
	if err != nil {
		return Shop{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Shop{}, fmt.Errorf("%w: name required", ErrInvalidInput)
		}
		sh.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return Shop{}, err
		}
		sh.Email = email
	}
	if in.Phone != nil {
		sh.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		sh.Address = strings.TrimSpace(*in.Address)
	}
	if in.Timezone != nil {
		tz, err := normalizeTimezone(*in.Timezone)
		if err != nil {
			return Shop{}, err
		}
		sh.Timezone = tz
	}
	if in.Currency != nil {
		cur, err := normalizeCurrency(*in.Currency)
		if err != nil {
			return Shop{}, err
		}
		sh.Currency = cur
	}

	sh.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sh); err != nil {
		return Shop{}, err
	}
	return sh, nil
}

// SetHours reemplaza el horario completo. Lista vacía = sin restricción horaria.
func (s *Service) SetHours(ctx context.Context, shopID string, hours []WorkingHours) (Shop, error) {
	sh, err := s.GetByID(ctx, shopID)
	if err != nil {
		return Shop{}, err
	}

	normalized, err := NormalizeHours(hours)
	if err != nil {
		return Shop{}, err
	}

	sh.Hours = normalized
	sh.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sh); err != nil {
		return Shop{}, err
	}
	return sh, nil
}

// SetPaymentAccount guarda el estado de la cuenta conectada (onboarding o webhook).
func (s *Service) SetPaymentAccount(ctx context.Context, shopID string, acct PaymentAccount) (Shop, error) {
	sh, err := s.GetByID(ctx, shopID)
	if err != nil {
		return Shop{}, err
	}
	if strings.TrimSpace(acct.AccountID) == "" {
		return Shop{}, fmt.Errorf("%w: account id required", ErrInvalidInput)
	}

	now := s.now()
	acct.UpdatedAt = &now
	sh.Payments = acct
	sh.UpdatedAt = now
	if err := s.repo.Update(ctx, sh); err != nil {
		return Shop{}, err
	}
	return sh, nil
}

// NormalizeHours valida "HH:MM", open < close y un único registro por día.
// El resultado queda ordenado de domingo a sábado.
func NormalizeHours(in []WorkingHours) ([]WorkingHours, error) {
	byDay := map[time.Weekday]WorkingHours{}
	for _, h := range in {
		if h.Weekday < time.Sunday || h.Weekday > time.Saturday {
			return nil, fmt.Errorf("%w: invalid weekday %d", ErrInvalidInput, h.Weekday)
		}
		if _, dup := byDay[h.Weekday]; dup {
			return nil, fmt.Errorf("%w: duplicate weekday %s", ErrInvalidInput, h.Weekday)
		}

		if h.Closed {
			byDay[h.Weekday] = WorkingHours{Weekday: h.Weekday, Closed: true}
			continue
		}

		open, err := ParseClock(h.Open)
		if err != nil {
			return nil, err
		}
		closeAt, err := ParseClock(h.Close)
		if err != nil {
			return nil, err
		}
		if closeAt <= open {
			return nil, fmt.Errorf("%w: %s closes before it opens", ErrInvalidInput, h.Weekday)
		}
		byDay[h.Weekday] = WorkingHours{
			Weekday: h.Weekday,
			Open:    strings.TrimSpace(h.Open),
			Close:   strings.TrimSpace(h.Close),
		}
	}

	out := make([]WorkingHours, 0, len(byDay))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if h, ok := byDay[d]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// ParseClock convierte "HH:MM" en minutos desde medianoche.
func ParseClock(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: time must be HH:MM", ErrInvalidInput)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func normalizeTimezone(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(v); err != nil {
		return "", fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, v)
	}
	return v, nil
}

func normalizeCurrency(v string) (string, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return "USD", nil
	}
	if !currencyRe.MatchString(v) {
		return "", fmt.Errorf("%w: currency must be ISO-4217", ErrInvalidInput)
	}
	return v, nil
}

func normalizeEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return v, nil
}
