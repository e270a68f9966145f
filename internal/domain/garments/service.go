package garments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"alterations-manager/internal/domain/catalog"
	"alterations-manager/internal/domain/stages"
	"alterations-manager/internal/ports/notify"
	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = fmt.Errorf("garment %w", storage.ErrNotFound)
	ErrServiceNotFound = errors.New("service not found")
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// StageLookup lo implementa stages.Service.
type StageLookup interface {
	Get(ctx context.Context, shopID, id string) (stages.Stage, error)
	Bounds(ctx context.Context, shopID string) (first, last stages.Stage, err error)
}

// CatalogLookup lo implementa catalog.Service.
type CatalogLookup interface {
	Get(ctx context.Context, shopID, id string) (catalog.Item, error)
}

type Service struct {
	repo    Repository
	stages  StageLookup
	catalog CatalogLookup
	pub     notify.Publisher
	now     func() time.Time
}

func NewService(repo Repository, st StageLookup, cat CatalogLookup, pub notify.Publisher) *Service {
	return &Service{
		repo:    repo,
		stages:  st,
		catalog: cat,
		pub:     pub,
		now:     time.Now,
	}
}

// ServiceInput crea un servicio; con CatalogItemID los campos nil toman el valor del catálogo.
type ServiceInput struct {
	CatalogItemID  string
	Name           *string
	Description    *string
	Quantity       *float64
	Unit           *string
	UnitPriceCents *int64
}

type GarmentInput struct {
	Name      string
	Notes     string
	PhotoURL  string
	DueDate   string
	EventDate string
	Services  []ServiceInput
}

// Prepare valida las prendas de una orden nueva y las ubica en la primera etapa.
// No persiste nada: la orden todavía no tiene id (ver Save).
func (s *Service) Prepare(ctx context.Context, shopID, clientID string, in []GarmentInput) ([]Garment, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(clientID) == "" {
		return nil, ErrInvalidInput
	}
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one garment required", ErrInvalidInput)
	}

	first, _, err := s.stages.Bounds(ctx, shopID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: shop has no stages", ErrInvalidInput)
		}
		return nil, err
	}

	now := s.now()
	out := make([]Garment, 0, len(in))
	for i, gi := range in {
		name := strings.TrimSpace(gi.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: garment %d: name required", ErrInvalidInput, i)
		}
		photo, err := normalizePhotoURL(gi.PhotoURL)
		if err != nil {
			return nil, err
		}
		due, err := ParseDate(gi.DueDate)
		if err != nil {
			return nil, err
		}
		event, err := ParseDate(gi.EventDate)
		if err != nil {
			return nil, err
		}

		g := Garment{
			ID:        uuid.NewString(),
			ShopID:    shopID,
			ClientID:  clientID,
			Name:      name,
			Notes:     strings.TrimSpace(gi.Notes),
			StageID:   first.ID,
			PhotoURL:  photo,
			DueDate:   due,
			EventDate: event,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, si := range gi.Services {
			l, err := s.buildLineItem(ctx, g, si, now)
			if err != nil {
				return nil, err
			}
			g.Services = append(g.Services, l)
		}
		out = append(out, g)
	}
	return out, nil
}

// Save persiste las prendas preparadas bajo la orden ya creada.
func (s *Service) Save(ctx context.Context, orderID string, items []Garment) ([]Garment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrInvalidInput
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	if err := s.repo.CreateMany(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Garment, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return Garment{}, ErrInvalidInput
	}
	g, err := s.repo.GetByID(ctx, shopID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Garment{}, ErrNotFound
		}
		return Garment{}, err
	}
	return g, nil
}

// Exists lo usa timeentries.
func (s *Service) Exists(ctx context.Context, shopID, id string) error {
	_, err := s.Get(ctx, shopID, id)
	return err
}

func (s *Service) List(ctx context.Context, shopID string, filter ListFilter) ([]Garment, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	return s.repo.List(ctx, shopID, filter)
}

func (s *Service) ListByOrder(ctx context.Context, shopID, orderID string) ([]Garment, error) {
	return s.List(ctx, shopID, ListFilter{OrderID: orderID, Limit: maxLimit})
}

func (s *Service) Subtotals(ctx context.Context, shopID string, orderIDs []string) (map[string]int64, error) {
	if len(orderIDs) == 0 {
		return map[string]int64{}, nil
	}
	return s.repo.SubtotalsByOrder(ctx, shopID, orderIDs)
}

type UpdateInput struct {
	Name      *string
	Notes     *string
	PhotoURL  *string
	DueDate   PatchDate
	EventDate PatchDate
}

func (s *Service) Update(ctx context.Context, shopID, id string, in UpdateInput) (Garment, error) {
	g, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Garment{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Garment{}, fmt.Errorf("%w: name required", ErrInvalidInput)
		}
		g.Name = name
	}
	if in.Notes != nil {
		g.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.PhotoURL != nil {
		photo, err := normalizePhotoURL(*in.PhotoURL)
		if err != nil {
			return Garment{}, err
		}
		g.PhotoURL = photo
	}
	if in.DueDate.Set {
		if g.DueDate, err = ParseDate(in.DueDate.Value); err != nil {
			return Garment{}, err
		}
	}
	if in.EventDate.Set {
		if g.EventDate, err = ParseDate(in.EventDate.Value); err != nil {
			return Garment{}, err
		}
	}

	g.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, g); err != nil {
		return Garment{}, err
	}
	return g, nil
}

// MoveStage cambia la etapa de la prenda. Llegar a la última etapa la marca como terminada.
func (s *Service) MoveStage(ctx context.Context, shopID, id, stageID string) (Garment, error) {
	g, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Garment{}, err
	}

	if strings.TrimSpace(stageID) == "" {
		return Garment{}, fmt.Errorf("%w: stage_id required", ErrInvalidInput)
	}
	target, err := s.stages.Get(ctx, shopID, stageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Garment{}, fmt.Errorf("%w: unknown stage", ErrInvalidInput)
		}
		return Garment{}, err
	}
	if target.ID == g.StageID {
		return g, nil
	}
	_, last, err := s.stages.Bounds(ctx, shopID)
	if err != nil {
		return Garment{}, err
	}

	now := s.now()
	from := g.StageID
	g.StageID = target.ID
	final := target.ID == last.ID
	if final {
		g.DoneAt = &now
	} else {
		g.DoneAt = nil
	}
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g); err != nil {
		return Garment{}, err
	}

	data := map[string]any{
		"garment_id":    g.ID,
		"garment_name":  g.Name,
		"order_id":      g.OrderID,
		"client_id":     g.ClientID,
		"from_stage_id": from,
		"to_stage_id":   target.ID,
		"stage_name":    target.Name,
	}
	s.publish(ctx, notify.NewEvent(notify.EventGarmentStageChanged, shopID, now, data))
	if final {
		s.publish(ctx, notify.NewEvent(notify.EventGarmentReady, shopID, now, data))
	}
	return g, nil
}

func (s *Service) AddService(ctx context.Context, shopID, garmentID string, in ServiceInput) (LineItem, error) {
	g, err := s.Get(ctx, shopID, garmentID)
	if err != nil {
		return LineItem{}, err
	}

	l, err := s.buildLineItem(ctx, g, in, s.now())
	if err != nil {
		return LineItem{}, err
	}
	if err := s.repo.AddLineItem(ctx, l); err != nil {
		return LineItem{}, err
	}
	return l, nil
}

type ServicePatch struct {
	Name           *string
	Description    *string
	Quantity       *float64
	Unit           *string
	UnitPriceCents *int64
	IsDone         *bool
}

func (s *Service) UpdateService(ctx context.Context, shopID, garmentID, lineID string, in ServicePatch) (LineItem, error) {
	l, err := s.findLineItem(ctx, shopID, garmentID, lineID)
	if err != nil {
		return LineItem{}, err
	}

	if in.Name != nil {
		l.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.Quantity != nil {
		l.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		u, ok := catalog.ParseUnit(*in.Unit)
		if !ok {
			return LineItem{}, fmt.Errorf("%w: unit must be item, hour or day", ErrInvalidInput)
		}
		l.Unit = u
	}
	if in.UnitPriceCents != nil {
		l.UnitPriceCents = *in.UnitPriceCents
	}
	if in.IsDone != nil {
		l.IsDone = *in.IsDone
	}
	if err := validateLineItem(l); err != nil {
		return LineItem{}, err
	}

	l.UpdatedAt = s.now()
	if err := s.repo.UpdateLineItem(ctx, l); err != nil {
		return LineItem{}, err
	}
	return l, nil
}

func (s *Service) DeleteService(ctx context.Context, shopID, garmentID, lineID string) error {
	if _, err := s.findLineItem(ctx, shopID, garmentID, lineID); err != nil {
		return err
	}
	return s.repo.DeleteLineItem(ctx, shopID, garmentID, lineID)
}

func (s *Service) findLineItem(ctx context.Context, shopID, garmentID, lineID string) (LineItem, error) {
	g, err := s.Get(ctx, shopID, garmentID)
	if err != nil {
		return LineItem{}, err
	}
	for _, l := range g.Services {
		if l.ID == lineID {
			return l, nil
		}
	}
	return LineItem{}, ErrServiceNotFound
}

func (s *Service) buildLineItem(ctx context.Context, g Garment, in ServiceInput, now time.Time) (LineItem, error) {
	l := LineItem{
		ID:        uuid.NewString(),
		ShopID:    g.ShopID,
		GarmentID: g.ID,
		Quantity:  1,
		Unit:      catalog.UnitItem,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if id := strings.TrimSpace(in.CatalogItemID); id != "" {
		if s.catalog == nil {
			return LineItem{}, fmt.Errorf("%w: unknown catalog item", ErrInvalidInput)
		}
		it, err := s.catalog.Get(ctx, g.ShopID, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return LineItem{}, fmt.Errorf("%w: unknown catalog item", ErrInvalidInput)
			}
			return LineItem{}, err
		}
		l.CatalogItemID = it.ID
		l.Name = it.Name
		l.Description = it.Description
		l.Quantity = it.DefaultQuantity
		l.Unit = it.DefaultUnit
		l.UnitPriceCents = it.DefaultUnitPriceCents
	}

	if in.Name != nil {
		l.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.Quantity != nil {
		l.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		u, ok := catalog.ParseUnit(*in.Unit)
		if !ok {
			return LineItem{}, fmt.Errorf("%w: unit must be item, hour or day", ErrInvalidInput)
		}
		l.Unit = u
	}
	if in.UnitPriceCents != nil {
		l.UnitPriceCents = *in.UnitPriceCents
	}

	if err := validateLineItem(l); err != nil {
		return LineItem{}, err
	}
	return l, nil
}

func validateLineItem(l LineItem) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: service name required", ErrInvalidInput)
	}
	// !(q > 0) también descarta NaN
	if !(l.Quantity > 0) || l.Quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity must be > 0 and <= %d", ErrInvalidInput, MaxQuantity)
	}
	if l.UnitPriceCents < 0 || l.UnitPriceCents > MaxUnitPriceCents {
		return fmt.Errorf("%w: unit_price_cents must be between 0 and %d", ErrInvalidInput, MaxUnitPriceCents)
	}
	return nil
}

// normalizePhotoURL solo acepta URLs absolutas http(s) del CDN de imágenes.
func normalizePhotoURL(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: photo_url must be an http(s) url", ErrInvalidInput)
	}
	return v, nil
}

func (s *Service) publish(ctx context.Context, e notify.Event) {
	if s.pub == nil {
		return
	}
	// Los adapters registran el error; la transición ya quedó guardada.
	_ = s.pub.Publish(ctx, e)
}
