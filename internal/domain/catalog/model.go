package catalog

import (
	"strings"
	"time"
)

// Unit es la unidad de cobro de un servicio.
type Unit string

const (
	UnitItem Unit = "item"
	UnitHour Unit = "hour"
	UnitDay  Unit = "day"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitItem, UnitHour, UnitDay:
		return true
	default:
		return false
	}
}

// ParseUnit normaliza el valor recibido; vacío = item.
func ParseUnit(v string) (Unit, bool) {
	u := Unit(strings.ToLower(strings.TrimSpace(v)))
	if u == "" {
		return UnitItem, true
	}
	return u, u.Valid()
}

// Item es un servicio predefinido del taller (ej. "Basta de pantalón").
// Al agregarlo a una prenda se copian sus valores por defecto.
type Item struct {
	ID     string
	ShopID string

	Name        string
	Description string

	DefaultQuantity       float64
	DefaultUnit           Unit
	DefaultUnitPriceCents int64

	FrequentlyUsed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
