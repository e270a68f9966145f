package timeentries

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("time entry %w", storage.ErrNotFound)
	ErrNotRunning   = errors.New("no running timer")
	ErrConflict     = errors.New("time entry conflict")
)

const maxManualMinutes = 24 * 60

// GarmentChecker lo implementa garments.Service.
type GarmentChecker interface {
	Exists(ctx context.Context, shopID, id string) error
}

type Service struct {
	repo     Repository
	garments GarmentChecker
	now      func() time.Time
}

func NewService(repo Repository, garments GarmentChecker) *Service {
	return &Service{
		repo:     repo,
		garments: garments,
		now:      time.Now,
	}
}

// Start abre un timer; cada usuario puede tener uno solo en curso.
func (s *Service) Start(ctx context.Context, shopID, userID, garmentID, notes string) (Entry, error) {
	if err := s.checkGarment(ctx, shopID, userID, garmentID); err != nil {
		return Entry{}, err
	}
	switch cur, err := s.repo.Running(ctx, shopID, userID); {
	case err == nil:
		return Entry{}, fmt.Errorf("%w: started at %s on garment %s", ErrConflict, cur.StartedAt.Format(time.RFC3339), cur.GarmentID)
	case !errors.Is(err, storage.ErrNotFound):
		return Entry{}, err
	}

	now := s.now().UTC()
	e := Entry{
		ID:        uuid.NewString(),
		ShopID:    shopID,
		GarmentID: strings.TrimSpace(garmentID),
		UserID:    userID,
		StartedAt: now,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			return Entry{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return Entry{}, err
	}
	return e, nil
}

// Stop cierra el timer en curso. La duración se redondea al minuto, mínimo 1.
func (s *Service) Stop(ctx context.Context, shopID, userID string) (Entry, error) {
	e, err := s.repo.Running(ctx, shopID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Entry{}, ErrNotRunning
		}
		return Entry{}, err
	}

	now := s.now().UTC()
	minutes := int(math.Round(now.Sub(e.StartedAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	e.EndedAt = &now
	e.DurationMinutes = minutes

	if err := s.repo.Finish(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Current devuelve el timer en curso, si hay.
func (s *Service) Current(ctx context.Context, shopID, userID string) (Entry, bool, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(userID) == "" {
		return Entry{}, false, ErrInvalidInput
	}
	e, err := s.repo.Running(ctx, shopID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return e, true, nil
}

type ManualInput struct {
	Minutes   int
	StartedAt time.Time // opcional; por defecto ahora - Minutes
	Notes     string
}

func (s *Service) AddManual(ctx context.Context, shopID, userID, garmentID string, in ManualInput) (Entry, error) {
	if err := s.checkGarment(ctx, shopID, userID, garmentID); err != nil {
		return Entry{}, err
	}
	if in.Minutes <= 0 || in.Minutes > maxManualMinutes {
		return Entry{}, fmt.Errorf("%w: minutes must be between 1 and %d", ErrInvalidInput, maxManualMinutes)
	}

	now := s.now().UTC()
	started := in.StartedAt.UTC()
	if in.StartedAt.IsZero() {
		started = now.Add(-time.Duration(in.Minutes) * time.Minute)
	}
	ended := started.Add(time.Duration(in.Minutes) * time.Minute)

	e := Entry{
		ID:              uuid.NewString(),
		ShopID:          shopID,
		GarmentID:       strings.TrimSpace(garmentID),
		UserID:          userID,
		StartedAt:       started,
		EndedAt:         &ended,
		DurationMinutes: in.Minutes,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ListByGarment devuelve las entradas y el total de minutos cerrados.
func (s *Service) ListByGarment(ctx context.Context, shopID, garmentID string) ([]Entry, int, error) {
	if err := s.garments.Exists(ctx, shopID, garmentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: unknown garment", ErrNotFound)
		}
		return nil, 0, err
	}
	items, err := s.repo.ListByGarment(ctx, shopID, garmentID)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	for _, e := range items {
		total += e.DurationMinutes
	}
	return items, total, nil
}

func (s *Service) Delete(ctx context.Context, shopID, id string) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if _, err := s.repo.GetByID(ctx, shopID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, shopID, id)
}

func (s *Service) checkGarment(ctx context.Context, shopID, userID, garmentID string) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(garmentID) == "" {
		return fmt.Errorf("%w: garment_id required", ErrInvalidInput)
	}
	if err := s.garments.Exists(ctx, shopID, strings.TrimSpace(garmentID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown garment", ErrInvalidInput)
		}
		return err
	}
	return nil
}
