package dto

import (
	"time"

	"bibliocra/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPrestamoRequest struct {
	UsuarioID string `json:"usuarioId" validate:"required,uuid"`
	ItemID    string `json:"itemId"    validate:"required,uuid"`
	ItemTipo  string `json:"itemTipo"  validate:"required,oneof=ejemplar recurso"`
}

type DevolverPrestamoRequest struct {
	// NuevoEstado del ítem devuelto: disponible | deteriorado | extraviado
	NuevoEstado   string `json:"nuevoEstado"   validate:"omitempty,oneof=disponible deteriorado extraviado"`
	Observaciones string `json:"observaciones" validate:"omitempty,max=500"`
}

type RenovarPrestamoRequest struct {
	Dias int `json:"dias" validate:"required,gt=0"`
}

// PrestamoFilter drives the paginated loan listing.
type PrestamoFilter struct {
	PageFilter
	// Estado: "" (todos) | enCurso | atrasado | devuelto
	Estado string `form:"estado"`
	// SoloAtrasados restringe a enCurso con vencimiento pasado
	SoloAtrasados bool   `form:"soloAtrasados"`
	UsuarioID     string `form:"usuarioId"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ItemDetalle is the resolved display label of the loaned copy.
type ItemDetalle struct {
	Tipo     string `json:"tipo"`
	Etiqueta string `json:"etiqueta"`
}

type PrestamoResponse struct {
	ID               string       `json:"id"`
	UsuarioID        string       `json:"usuarioId"`
	Usuario          *UsuarioResumen `json:"usuario,omitempty"`
	ItemID           string       `json:"itemId"`
	ItemTipo         string       `json:"itemTipo"`
	ItemDetalle      ItemDetalle  `json:"itemDetalle"`
	FechaInicio      time.Time    `json:"fechaInicio"`
	FechaVencimiento time.Time    `json:"fechaVencimiento"`
	FechaDevolucion  *time.Time   `json:"fechaDevolucion,omitempty"`
	// Estado es el estado derivado: enCurso | atrasado | devuelto
	Estado string `json:"estado"`
}

// UsuarioResumen is the embedded borrower projection in loan listings.
type UsuarioResumen struct {
	PrimerNombre   string  `json:"primerNombre"`
	PrimerApellido string  `json:"primerApellido"`
	RUT            string  `json:"rut"`
	Curso          *string `json:"curso,omitempty"`
	Rol            string  `json:"rol,omitempty"`
}

func ToUsuarioResumen(u *model.Usuario) *UsuarioResumen {
	if u == nil {
		return nil
	}
	return &UsuarioResumen{
		PrimerNombre:   u.PrimerNombre,
		PrimerApellido: u.PrimerApellido,
		RUT:            u.RUT,
		Curso:          u.Curso,
		Rol:            string(u.Rol),
	}
}
