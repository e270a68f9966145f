package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("catalog item %w", storage.ErrNotFound)
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name                  string
	Description           string
	DefaultQuantity       float64
	DefaultUnit           string
	DefaultUnitPriceCents int64
	FrequentlyUsed        bool
}

func (s *Service) Create(ctx context.Context, shopID string, in CreateInput) (Item, error) {
	if strings.TrimSpace(shopID) == "" {
		return Item{}, ErrInvalidInput
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Item{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	unit, ok := ParseUnit(in.DefaultUnit)
	if !ok {
		return Item{}, fmt.Errorf("%w: unit must be item, hour or day", ErrInvalidInput)
	}
	qty := in.DefaultQuantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return Item{}, fmt.Errorf("%w: default_quantity must be > 0", ErrInvalidInput)
	}
	if in.DefaultUnitPriceCents < 0 {
		return Item{}, fmt.Errorf("%w: default_unit_price_cents must be >= 0", ErrInvalidInput)
	}

	now := s.now()
	it := Item{
		ID:                    uuid.NewString(),
		ShopID:                shopID,
		Name:                  name,
		Description:           strings.TrimSpace(in.Description),
		DefaultQuantity:       qty,
		DefaultUnit:           unit,
		DefaultUnitPriceCents: in.DefaultUnitPriceCents,
		FrequentlyUsed:        in.FrequentlyUsed,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Item, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return Item{}, ErrInvalidInput
	}
	it, err := s.repo.GetByID(ctx, shopID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (s *Service) List(ctx context.Context, shopID string) ([]Item, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, shopID)
}

type UpdateInput struct {
	Name                  *string
	Description           *string
	DefaultQuantity       *float64
	DefaultUnit           *string
	DefaultUnitPriceCents *int64
	FrequentlyUsed        *bool
}

func (s *Service) Update(ctx context.Context, shopID, id string, in UpdateInput) (Item, error) {
	it, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Item{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Item{}, fmt.Errorf("%w: name required", ErrInvalidInput)
		}
		it.Name = name
	}
	if in.Description != nil {
		it.Description = strings.TrimSpace(*in.Description)
	}
	if in.DefaultQuantity != nil {
		if *in.DefaultQuantity <= 0 {
			return Item{}, fmt.Errorf("%w: default_quantity must be > 0", ErrInvalidInput)
		}
		it.DefaultQuantity = *in.DefaultQuantity
	}
	if in.DefaultUnit != nil {
		unit, ok := ParseUnit(*in.DefaultUnit)
		if !ok {
			return Item{}, fmt.Errorf("%w: unit must be item, hour or day", ErrInvalidInput)
		}
		it.DefaultUnit = unit
	}
	if in.DefaultUnitPriceCents != nil {
		if *in.DefaultUnitPriceCents < 0 {
			return Item{}, fmt.Errorf("%w: default_unit_price_cents must be >= 0", ErrInvalidInput)
		}
		it.DefaultUnitPriceCents = *in.DefaultUnitPriceCents
	}
	if in.FrequentlyUsed != nil {
		it.FrequentlyUsed = *in.FrequentlyUsed
	}

	it.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Delete no toca los servicios ya cargados en prendas: guardan copia de nombre y precio.
func (s *Service) Delete(ctx context.Context, shopID, id string) error {
	if _, err := s.Get(ctx, shopID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, shopID, id)
}
