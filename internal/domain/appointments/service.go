package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alterations-manager/internal/domain/shops"
	"alterations-manager/internal/ports/notify"
	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("appointment %w", storage.ErrNotFound)
	ErrConflict     = errors.New("appointment conflict")
)

const (
	maxDuration  = 8 * time.Hour
	maxListRange = 62 * 24 * time.Hour
	reminderPage = 200
)

// ShopReader lo implementa shops.Service (horario y zona horaria).
type ShopReader interface {
	GetByID(ctx context.Context, id string) (shops.Shop, error)
}

// ClientLookup lo implementa clients.Service.
type ClientLookup interface {
	Exists(ctx context.Context, shopID, id string) error
}

type Service struct {
	repo    Repository
	shops   ShopReader
	clients ClientLookup
	pub     notify.Publisher
	now     func() time.Time
}

func NewService(repo Repository, sh ShopReader, clients ClientLookup, pub notify.Publisher) *Service {
	return &Service{
		repo:    repo,
		shops:   sh,
		clients: clients,
		pub:     pub,
		now:     time.Now,
	}
}

type CreateInput struct {
	ClientID string
	Type     string
	StartsAt time.Time
	EndsAt   time.Time
	Notes    string
}

func (s *Service) Create(ctx context.Context, shopID string, in CreateInput) (Appointment, error) {
	if strings.TrimSpace(shopID) == "" {
		return Appointment{}, ErrInvalidInput
	}
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return Appointment{}, fmt.Errorf("%w: client_id required", ErrInvalidInput)
	}
	if err := s.clients.Exists(ctx, shopID, clientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Appointment{}, fmt.Errorf("%w: unknown client", ErrInvalidInput)
		}
		return Appointment{}, err
	}
	typ, err := parseType(in.Type)
	if err != nil {
		return Appointment{}, err
	}

	start, end := in.StartsAt.UTC(), in.EndsAt.UTC()
	if err := s.checkSlot(ctx, shopID, start, end, ""); err != nil {
		return Appointment{}, err
	}

	now := s.now()
	a := Appointment{
		ID:        uuid.NewString(),
		ShopID:    shopID,
		ClientID:  clientID,
		Type:      typ,
		Status:    StatusScheduled,
		StartsAt:  start,
		EndsAt:    end,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrOverlap) {
			return Appointment{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return Appointment{}, err
	}

	s.publish(ctx, notify.EventAppointmentScheduled, a, now)
	return a, nil
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Appointment, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return Appointment{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, shopID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return a, nil
}

// List exige un rango explícito (vista de calendario) de hasta 62 días.
func (s *Service) List(ctx context.Context, shopID string, from, to time.Time) ([]Appointment, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrInvalidInput
	}
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, fmt.Errorf("%w: from and to required, to after from", ErrInvalidInput)
	}
	if to.Sub(from) > maxListRange {
		return nil, fmt.Errorf("%w: range must be at most 62 days", ErrInvalidInput)
	}
	return s.repo.ListRange(ctx, shopID, from.UTC(), to.UTC())
}

type UpdateInput struct {
	Type     *string
	StartsAt *time.Time
	EndsAt   *time.Time
	Notes    *string
}

// Update permite reprogramar citas abiertas; un cambio de horario reinicia el recordatorio.
func (s *Service) Update(ctx context.Context, shopID, id string, in UpdateInput) (Appointment, error) {
	a, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Appointment{}, err
	}
	if !a.Status.Open() {
		return Appointment{}, fmt.Errorf("%w: appointment is %s", ErrConflict, a.Status)
	}

	if in.Type != nil {
		typ, err := parseType(*in.Type)
		if err != nil {
			return Appointment{}, err
		}
		a.Type = typ
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	start, end := a.StartsAt, a.EndsAt
	if in.StartsAt != nil {
		start = in.StartsAt.UTC()
	}
	if in.EndsAt != nil {
		end = in.EndsAt.UTC()
	}
	if !start.Equal(a.StartsAt) || !end.Equal(a.EndsAt) {
		if err := s.checkSlot(ctx, shopID, start, end, a.ID); err != nil {
			return Appointment{}, err
		}
		a.StartsAt, a.EndsAt = start, end
		a.ReminderSentAt = nil
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrOverlap) {
			return Appointment{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) SetStatus(ctx context.Context, shopID, id string, status Status) (Appointment, error) {
	if !status.Valid() {
		return Appointment{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	a, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Appointment{}, err
	}
	if a.Status == status {
		return a, nil
	}
	if !CanTransition(a.Status, status) {
		return Appointment{}, fmt.Errorf("%w: cannot move from %s to %s", ErrConflict, a.Status, status)
	}

	now := s.now()
	a.Status = status
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	if status == StatusCancelled {
		s.publish(ctx, notify.EventAppointmentCancelled, a, now)
	}
	return a, nil
}

// SendReminders publica appointment.reminder para las citas que empiezan dentro de lead.
// Si la publicación falla la cita queda sin marcar y se reintenta en la próxima corrida.
func (s *Service) SendReminders(ctx context.Context, lead time.Duration) (int, error) {
	if s.pub == nil {
		return 0, nil
	}
	now := s.now().UTC()
	due, err := s.repo.DueForReminder(ctx, now, now.Add(lead), reminderPage)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, a := range due {
		e := notify.NewEvent(notify.EventAppointmentReminder, a.ShopID, now, eventData(a))
		if err := s.pub.Publish(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("appointment %s: %w", a.ID, err))
			continue
		}
		if err := s.repo.MarkReminded(ctx, a.ID, now); err != nil {
			errs = append(errs, fmt.Errorf("mark %s: %w", a.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (s *Service) checkSlot(ctx context.Context, shopID string, start, end time.Time, excludeID string) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: starts_at and ends_at required", ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidInput)
	}
	if end.Sub(start) > maxDuration {
		return fmt.Errorf("%w: appointment longer than 8h", ErrInvalidInput)
	}

	sh, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return err
	}
	if err := withinHours(sh, start, end); err != nil {
		return err
	}

	clash, err := s.repo.Overlapping(ctx, shopID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(clash) > 0 {
		return fmt.Errorf("%w: overlaps appointment at %s", ErrConflict, clash[0].StartsAt.Format(time.RFC3339))
	}
	return nil
}

// withinHours valida contra el horario del día en la zona del taller.
// Sin horario configurado no hay restricción.
func withinHours(sh shops.Shop, start, end time.Time) error {
	if len(sh.Hours) == 0 {
		return nil
	}

	loc := sh.Location()
	ls, le := start.In(loc), end.In(loc)
	if ls.YearDay() != le.YearDay() || ls.Year() != le.Year() {
		return fmt.Errorf("%w: appointment must start and end the same day", ErrInvalidInput)
	}

	h, ok := sh.HoursFor(ls.Weekday())
	if !ok || h.Closed {
		return fmt.Errorf("%w: shop is closed on %s", ErrInvalidInput, ls.Weekday())
	}
	open, err := shops.ParseClock(h.Open)
	if err != nil {
		return err
	}
	closeAt, err := shops.ParseClock(h.Close)
	if err != nil {
		return err
	}

	startMin := ls.Hour()*60 + ls.Minute()
	endMin := le.Hour()*60 + le.Minute()
	if le.Second() > 0 || le.Nanosecond() > 0 {
		endMin++
	}
	if startMin < open || endMin > closeAt {
		return fmt.Errorf("%w: outside working hours %s-%s", ErrInvalidInput, h.Open, h.Close)
	}
	return nil
}

func parseType(v string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(v)))
	if t == "" {
		return TypeConsultation, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("%w: type must be consultation, fitting, pickup or other", ErrInvalidInput)
	}
	return t, nil
}

func eventData(a Appointment) map[string]any {
	return map[string]any{
		"appointment_id": a.ID,
		"client_id":      a.ClientID,
		"type":           string(a.Type),
		"starts_at":      a.StartsAt.Format(time.RFC3339),
		"ends_at":        a.EndsAt.Format(time.RFC3339),
	}
}

func (s *Service) publish(ctx context.Context, eventType string, a Appointment, at time.Time) {
	if s.pub == nil {
		return
	}
	_ = s.pub.Publish(ctx, notify.NewEvent(eventType, a.ShopID, at, eventData(a)))
}
