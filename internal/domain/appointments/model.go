package appointments

import "time"

type Type string

const (
	TypeConsultation Type = "consultation"
	TypeFitting      Type = "fitting"
	TypePickup       Type = "pickup"
	TypeOther        Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeConsultation, TypeFitting, TypePickup, TypeOther:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted:
		return true
	default:
		return false
	}
}

// Open indica si la cita todavía ocupa el horario y puede cambiar.
func (s Status) Open() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted},
	StatusConfirmed: {StatusCancelled, StatusNoShow, StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID       string
	ShopID   string
	ClientID string

	Type   Type
	Status Status

	StartsAt time.Time
	EndsAt   time.Time
	Notes    string

	// ReminderSentAt se limpia al reprogramar.
	ReminderSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps usa intervalos semiabiertos [start, end).
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.StartsAt.Before(end) && start.Before(a.EndsAt)
}
