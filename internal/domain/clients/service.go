package clients

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("client %w", storage.ErrNotFound)
	ErrConflict     = errors.New("client has orders")
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service struct {
	repo   Repository
	orders OrderCounter
	now    func() time.Time
}

func NewService(repo Repository, orders OrderCounter) *Service {
	return &Service{
		repo:   repo,
		orders: orders,
		now:    time.Now,
	}
}

type CreateInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	MailingAddress string
	Notes          string
	AcceptEmail    bool
	AcceptSMS      bool
}

func (s *Service) Create(ctx context.Context, shopID string, in CreateInput) (Client, error) {
	if strings.TrimSpace(shopID) == "" {
		return Client{}, ErrInvalidInput
	}

	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return Client{}, fmt.Errorf("%w: first_name and last_name required", ErrInvalidInput)
	}

	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return Client{}, err
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return Client{}, err
	}
	if email == "" && phone == "" {
		return Client{}, fmt.Errorf("%w: email or phone required", ErrInvalidInput)
	}

	now := s.now()
	c := Client{
		ID:             uuid.NewString(),
		ShopID:         shopID,
		FirstName:      first,
		LastName:       last,
		Email:          email,
		Phone:          phone,
		MailingAddress: strings.TrimSpace(in.MailingAddress),
		Notes:          strings.TrimSpace(in.Notes),
		AcceptEmail:    in.AcceptEmail && email != "",
		AcceptSMS:      in.AcceptSMS && phone != "",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Client, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return Client{}, ErrInvalidInput
	}
	c, err := s.repo.GetByID(ctx, shopID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

// Exists lo usan orders y appointments para validar el client_id del request.
func (s *Service) Exists(ctx context.Context, shopID, id string) error {
	_, err := s.Get(ctx, shopID, id)
	return err
}

func (s *Service) Search(ctx context.Context, shopID string, filter SearchFilter) ([]Client, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.Search(ctx, shopID, filter)
}

type UpdateInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	MailingAddress *string
	Notes          *string
	AcceptEmail    *bool
	AcceptSMS      *bool
}

func (s *Service) Update(ctx context.Context, shopID, id string, in UpdateInput) (Client, error) {
	c, err := s.Get(ctx, shopID, id)
	if err != nil {
		return Client{}, err
	}

	if in.FirstName != nil {
		c.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		c.LastName = strings.TrimSpace(*in.LastName)
	}
	if c.FirstName == "" || c.LastName == "" {
		return Client{}, fmt.Errorf("%w: first_name and last_name required", ErrInvalidInput)
	}
	if in.Email != nil {
		email, err := NormalizeEmail(*in.Email)
		if err != nil {
			return Client{}, err
		}
		c.Email = email
	}
	if in.Phone != nil {
		phone, err := NormalizePhone(*in.Phone)
		if err != nil {
			return Client{}, err
		}
		c.Phone = phone
	}
	if c.Email == "" && c.Phone == "" {
		return Client{}, fmt.Errorf("%w: email or phone required", ErrInvalidInput)
	}
	if in.MailingAddress != nil {
		c.MailingAddress = strings.TrimSpace(*in.MailingAddress)
	}
	if in.Notes != nil {
		c.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.AcceptEmail != nil {
		c.AcceptEmail = *in.AcceptEmail
	}
	if in.AcceptSMS != nil {
		c.AcceptSMS = *in.AcceptSMS
	}
	// Sin canal no hay consentimiento.
	c.AcceptEmail = c.AcceptEmail && c.Email != ""
	c.AcceptSMS = c.AcceptSMS && c.Phone != ""

	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

// Delete rechaza clientes con órdenes para no dejar historial huérfano.
func (s *Service) Delete(ctx context.Context, shopID, id string) error {
	if _, err := s.Get(ctx, shopID, id); err != nil {
		return err
	}
	if s.orders != nil {
		n, err := s.orders.CountByClient(ctx, shopID, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d orders", ErrConflict, n)
		}
	}
	return s.repo.Delete(ctx, shopID, id)
}

func NormalizeEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return v, nil
}

// NormalizePhone deja solo dígitos (y un + inicial); exige 7 a 15 dígitos.
func NormalizePhone(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}

	var b strings.Builder
	digits := 0
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separadores permitidos
		default:
			return "", fmt.Errorf("%w: invalid phone", ErrInvalidInput)
		}
	}
	if digits < 7 || digits > 15 {
		return "", fmt.Errorf("%w: invalid phone", ErrInvalidInput)
	}
	return b.String(), nil
}
