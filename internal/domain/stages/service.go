package stages

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("stage %w", storage.ErrNotFound)
	ErrConflict     = errors.New("stage conflict")
)

const newRefPrefix = "new:"

var colorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

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

func (s *Service) List(ctx context.Context, shopID string) ([]Stage, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByShop(ctx, shopID)
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Stage, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return Stage{}, ErrInvalidInput
	}
	st, err := s.repo.GetByID(ctx, shopID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Stage{}, ErrNotFound
		}
		return Stage{}, err
	}
	return st, nil
}

// Bounds devuelve la primera etapa (default de prendas nuevas) y la última (prenda terminada).
func (s *Service) Bounds(ctx context.Context, shopID string) (first, last Stage, err error) {
	items, err := s.List(ctx, shopID)
	if err != nil {
		return Stage{}, Stage{}, err
	}
	if len(items) == 0 {
		return Stage{}, Stage{}, ErrNotFound
	}
	return items[0], items[len(items)-1], nil
}

// SeedDefaults implementa shops.StageSeeder.
func (s *Service) SeedDefaults(ctx context.Context, shopID string) error {
	if strings.TrimSpace(shopID) == "" {
		return ErrInvalidInput
	}
	now := s.now()
	items := make([]Stage, 0, len(DefaultNames))
	for i, name := range DefaultNames {
		items = append(items, Stage{
			ID:        uuid.NewString(),
			ShopID:    shopID,
			Name:      name,
			Position:  i,
			Color:     PaletteColor(i),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return s.repo.CreateMany(ctx, items)
}

type CreateInput struct {
	Name  string
	Color string
}

// Create agrega una etapa al final del flujo.
func (s *Service) Create(ctx context.Context, shopID string, in CreateInput) (Stage, error) {
	existing, err := s.List(ctx, shopID)
	if err != nil {
		return Stage{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Stage{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	for _, st := range existing {
		if strings.EqualFold(st.Name, name) {
			return Stage{}, fmt.Errorf("%w: duplicate stage name %q", ErrInvalidInput, name)
		}
	}
	color, err := normalizeColor(in.Color, len(existing))
	if err != nil {
		return Stage{}, err
	}

	now := s.now()
	st := Stage{
		ID:        uuid.NewString(),
		ShopID:    shopID,
		Name:      name,
		Position:  len(existing),
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return Stage{}, err
	}
	return st, nil
}

// StageInput es un elemento de la lista deseada; ID vacío = etapa nueva.
type StageInput struct {
	ID    string
	Name  string
	Color string
}

// CustomizeInput describe el flujo completo deseado, en orden.
// Reassign mapea etapa borrada -> destino (id existente o "new:<índice>").
type CustomizeInput struct {
	Stages   []StageInput
	Reassign map[string]string
}

// Customize reemplaza el flujo del taller por la lista recibida.
// Las etapas existentes que no vienen en la lista se borran; si tienen
// prendas, Reassign debe indicar a dónde moverlas.
func (s *Service) Customize(ctx context.Context, shopID string, in CustomizeInput) ([]Stage, error) {
	plan, err := s.buildPlan(ctx, shopID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Apply(ctx, shopID, plan); err != nil {
		return nil, err
	}
	return s.repo.ListByShop(ctx, shopID)
}

func (s *Service) buildPlan(ctx context.Context, shopID string, in CustomizeInput) (Plan, error) {
	if len(in.Stages) == 0 {
		return Plan{}, fmt.Errorf("%w: at least one stage required", ErrInvalidInput)
	}

	existing, err := s.List(ctx, shopID)
	if err != nil {
		return Plan{}, err
	}
	byID := make(map[string]Stage, len(existing))
	for _, st := range existing {
		byID[st.ID] = st
	}

	now := s.now()
	var plan Plan
	names := map[string]bool{}
	kept := map[string]bool{}
	newByIndex := map[int]string{}

	for i, item := range in.Stages {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return Plan{}, fmt.Errorf("%w: stage %d: name required", ErrInvalidInput, i)
		}
		key := strings.ToLower(name)
		if names[key] {
			return Plan{}, fmt.Errorf("%w: duplicate stage name %q", ErrInvalidInput, name)
		}
		names[key] = true

		id := strings.TrimSpace(item.ID)
		cur, exists := byID[id]
		if id != "" && !exists {
			return Plan{}, fmt.Errorf("%w: unknown stage id %q", ErrInvalidInput, id)
		}

		// Sin color, una etapa existente conserva el suyo.
		colorIn := item.Color
		if exists && strings.TrimSpace(colorIn) == "" {
			colorIn = cur.Color
		}
		color, err := normalizeColor(colorIn, i)
		if err != nil {
			return Plan{}, err
		}

		if id == "" {
			st := Stage{
				ID:        uuid.NewString(),
				ShopID:    shopID,
				Name:      name,
				Position:  i,
				Color:     color,
				CreatedAt: now,
				UpdatedAt: now,
			}
			newByIndex[i] = st.ID
			plan.Create = append(plan.Create, st)
			continue
		}

		if kept[id] {
			return Plan{}, fmt.Errorf("%w: stage %q listed twice", ErrInvalidInput, id)
		}
		kept[id] = true

		cur.Name = name
		cur.Color = color
		cur.Position = i
		cur.UpdatedAt = now
		plan.Update = append(plan.Update, cur)
	}

	for from := range in.Reassign {
		if _, ok := byID[from]; !ok || kept[from] {
			return Plan{}, fmt.Errorf("%w: reassign source %q is not a deleted stage", ErrInvalidInput, from)
		}
	}

	for _, st := range existing {
		if kept[st.ID] {
			continue
		}

		ref := strings.TrimSpace(in.Reassign[st.ID])
		if ref == "" {
			if st.GarmentCount > 0 {
				return Plan{}, fmt.Errorf("%w: stage %q has %d garments and no reassignment", ErrConflict, st.Name, st.GarmentCount)
			}
			plan.Delete = append(plan.Delete, st.ID)
			continue
		}

		to, err := resolveTarget(ref, kept, newByIndex)
		if err != nil {
			return Plan{}, err
		}
		plan.Reassign = append(plan.Reassign, Reassignment{From: st.ID, To: to})
		plan.Delete = append(plan.Delete, st.ID)
	}

	return plan, nil
}

func resolveTarget(ref string, kept map[string]bool, newByIndex map[int]string) (string, error) {
	if strings.HasPrefix(ref, newRefPrefix) {
		idx, err := strconv.Atoi(strings.TrimPrefix(ref, newRefPrefix))
		if err != nil {
			return "", fmt.Errorf("%w: invalid reassign target %q", ErrInvalidInput, ref)
		}
		id, ok := newByIndex[idx]
		if !ok {
			return "", fmt.Errorf("%w: reassign target %q is not a new stage", ErrInvalidInput, ref)
		}
		return id, nil
	}
	if !kept[ref] {
		return "", fmt.Errorf("%w: reassign target %q is not a surviving stage", ErrInvalidInput, ref)
	}
	return ref, nil
}

func normalizeColor(v string, index int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return PaletteColor(index), nil
	}
	if !colorRe.MatchString(v) {
		return "", fmt.Errorf("%w: color must be #RRGGBB", ErrInvalidInput)
	}
	return strings.ToUpper(v), nil
}
