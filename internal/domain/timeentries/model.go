package timeentries

import "time"

// Entry es tiempo de trabajo de un usuario sobre una prenda.
// Un timer en curso tiene EndedAt nil.
type Entry struct {
	ID        string
	ShopID    string
	GarmentID string
	UserID    string

	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes int
	Notes           string

	CreatedAt time.Time
}

func (e Entry) Running() bool {
	return e.EndedAt == nil
}
