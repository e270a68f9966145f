package garments

import (
	"math"
	"time"

	"alterations-manager/internal/domain/catalog"
)

// LineItem es un servicio cobrable sobre una prenda.
// Nombre y precio se copian del catálogo al agregarlo.
type LineItem struct {
	ID            string
	ShopID        string
	GarmentID     string
	CatalogItemID string // opcional

	Name        string
	Description string

	Quantity       float64
	Unit           catalog.Unit
	UnitPriceCents int64

	IsDone bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Con estos topes una línea no pasa de 1e12 centavos y la suma de una orden
// queda lejos de MaxInt64.
const (
	MaxQuantity       = 10000
	MaxUnitPriceCents = 100_000_000
)

// TotalCents redondea quantity * unit_price al centavo.
func (l LineItem) TotalCents() int64 {
	return int64(math.Round(l.Quantity * float64(l.UnitPriceCents)))
}

// Garment es una prenda de una orden que avanza por las etapas del taller.
type Garment struct {
	ID       string
	ShopID   string
	OrderID  string
	ClientID string

	Name     string
	Notes    string
	StageID  string
	PhotoURL string

	DueDate   *time.Time
	EventDate *time.Time

	// DoneAt se fija al llegar a la última etapa.
	DoneAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Services []LineItem
}

func (g Garment) SubtotalCents() int64 {
	var total int64
	for _, l := range g.Services {
		total += l.TotalCents()
	}
	return total
}
