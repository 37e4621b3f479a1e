package dto

import (
	"time"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearReservaRequest struct {
	ItemID   string `json:"itemId"   validate:"required,uuid"`
	ItemTipo string `json:"itemTipo" validate:"required,oneof=ejemplar recurso"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReservaResponse struct {
	ID           string          `json:"id"`
	UsuarioID    string          `json:"usuarioId"`
	Usuario      *UsuarioResumen `json:"usuario,omitempty"`
	ItemID       string          `json:"itemId"`
	ItemTipo     string          `json:"itemTipo"`
	ItemDetalle  ItemDetalle     `json:"itemDetalle"`
	FechaReserva time.Time       `json:"fechaReserva"`
	ExpiraEn     time.Time       `json:"expiraEn"`
	Estado       string          `json:"estado"`
}
