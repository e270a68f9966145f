package orders

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// next es el avance normal; cancelar se permite desde cualquier estado no terminal.
var next = map[Status]Status{
	StatusPending:    StatusInProgress,
	StatusInProgress: StatusReady,
	StatusReady:      StatusCompleted,
}

func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return next[from] == to
}

type PaymentMethod string

const (
	MethodCash  PaymentMethod = "cash"
	MethodCard  PaymentMethod = "card"
	MethodOther PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodCard || m == MethodOther
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment es un cobro registrado sobre una orden.
// ExternalID (id del proveedor) es único y hace idempotente el webhook.
type Payment struct {
	ID          string
	ShopID      string
	OrderID     string
	AmountCents int64
	Method      PaymentMethod
	ExternalID  string
	Note        string
	CreatedAt   time.Time
}

// Order agrupa las prendas de una visita del cliente.
type Order struct {
	ID       string
	ShopID   string
	ClientID string

	// Number es correlativo por taller, empieza en 1.
	Number int
	Status Status

	DiscountCents int64
	PaidCents     int64

	Notes   string
	DueDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary son los importes derivados; no se guardan.
type Summary struct {
	SubtotalCents int64
	DiscountCents int64
	TotalCents    int64
	PaidCents     int64
	BalanceCents  int64
	PaymentStatus PaymentStatus
}

func Summarize(subtotal, discount, paid int64) Summary {
	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	var status PaymentStatus
	switch {
	case total == 0:
		status = PaymentPaid
	case paid <= 0:
		status = PaymentUnpaid
	case paid < total:
		status = PaymentPartial
	default:
		status = PaymentPaid
	}

	balance := total - paid
	if balance < 0 {
		balance = 0
	}
	return Summary{
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    total,
		PaidCents:     paid,
		BalanceCents:  balance,
		PaymentStatus: status,
	}
}
