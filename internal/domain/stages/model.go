package stages

import "time"

// Stage es un paso del flujo de trabajo de las prendas.
// Position es 0-based y contigua dentro del taller.
type Stage struct {
	ID     string
	ShopID string

	Name     string
	Position int
	Color    string // #RRGGBB

	// GarmentCount solo se completa en listados.
	GarmentCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultNames son las etapas con las que arranca un taller nuevo.
var DefaultNames = []string{"New", "In Progress", "Ready for Pickup", "Done"}

var palette = []string{
	"#9CA3AF",
	"#3B82F6",
	"#F59E0B",
	"#10B981",
	"#8B5CF6",
	"#EF4444",
	"#EC4899",
	"#14B8A6",
}

// PaletteColor devuelve el color por defecto para la posición i.
func PaletteColor(i int) string {
	if i < 0 {
		i = 0
	}
	return palette[i%len(palette)]
}

// Reassignment mueve las prendas de una etapa borrada a otra.
type Reassignment struct {
	From string
	To   string
}

// Plan es el resultado ya validado de una personalización.
// Se aplica en este orden: Create, Update, Reassign, Delete.
type Plan struct {
	Create   []Stage
	Update   []Stage
	Reassign []Reassignment
	Delete   []string
}
