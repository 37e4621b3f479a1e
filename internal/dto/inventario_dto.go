package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventarioFilter drives the items-for-attention listing.
type InventarioFilter struct {
	PageFilter
	// Estado: "" (todos los problemáticos) | deteriorado | extraviado | mantenimiento
	Estado string `form:"estado"`
	// Tipo: "" | Libro | Recurso
	Tipo string `form:"tipo"`
}

// ItemAtencionResponse is one damaged/lost/maintenance copy needing action.
type ItemAtencionResponse struct {
	ID       string `json:"id"`
	ItemTipo string `json:"itemTipo"` // Libro | Recurso
	Etiqueta string `json:"etiqueta"`
	Estado   string `json:"estado"`
	// ValorReposicion solo aplica a ejemplares extraviados/deteriorados
	ValorReposicion *decimal.Decimal `json:"valorReposicion,omitempty"`
	Observaciones   *string          `json:"observaciones,omitempty"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
