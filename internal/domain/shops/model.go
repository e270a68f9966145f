package shops

import "time"

// WorkingHours es el horario de un día de la semana ("HH:MM" en la zona del taller).
type WorkingHours struct {
	Weekday time.Weekday
	Open    string
	Close   string
	Closed  bool
}

// PaymentAccount refleja la cuenta conectada en la plataforma de pagos.
type PaymentAccount struct {
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	UpdatedAt        *time.Time
}

// Shop es el tenant: todo dato de negocio cuelga de un shop_id.
type Shop struct {
	ID          string
	OwnerUserID string

	Name    string
	Email   string
	Phone   string
	Address string

	Timezone string // IANA, ej. America/Lima
	Currency string // ISO-4217

	Hours    []WorkingHours
	Payments PaymentAccount

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location devuelve la zona horaria del taller (UTC si es inválida).
func (s Shop) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HoursFor devuelve el horario configurado para un día, si existe.
func (s Shop) HoursFor(day time.Weekday) (WorkingHours, bool) {
	for _, h := range s.Hours {
		if h.Weekday == day {
			return h, true
		}
	}
	return WorkingHours{}, false
}
