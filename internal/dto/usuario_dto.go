package dto

import (
	"time"

	"bibliocra/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearUsuarioRequest struct {
	PrimerNombre    string  `json:"primerNombre"    validate:"required,min=2,max=100"`
	SegundoNombre   *string `json:"segundoNombre"   validate:"omitempty,max=100"`
	PrimerApellido  string  `json:"primerApellido"  validate:"required,min=2,max=100"`
	SegundoApellido *string `json:"segundoApellido" validate:"omitempty,max=100"`
	RUT             string  `json:"rut"             validate:"required,min=8,max=12"`
	Correo          string  `json:"correo"          validate:"required,email"`
	// Password vacío = se usa el RUT como clave inicial
	Password string  `json:"password" validate:"omitempty,min=4"`
	Rol      string  `json:"rol"      validate:"required,oneof=alumno profesor personal admin"`
	Curso    *string `json:"curso"    validate:"omitempty,max=20"`
}

type ActualizarUsuarioRequest struct {
	PrimerNombre    string  `json:"primerNombre"    validate:"omitempty,min=2,max=100"`
	SegundoNombre   *string `json:"segundoNombre"   validate:"omitempty,max=100"`
	PrimerApellido  string  `json:"primerApellido"  validate:"omitempty,min=2,max=100"`
	SegundoApellido *string `json:"segundoApellido" validate:"omitempty,max=100"`
	Correo          string  `json:"correo"          validate:"omitempty,email"`
	Password        string  `json:"password"        validate:"omitempty,min=4"`
	Rol             string  `json:"rol"             validate:"omitempty,oneof=alumno profesor personal admin"`
	Curso           *string `json:"curso"           validate:"omitempty,max=20"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID              string     `json:"id"`
	PrimerNombre    string     `json:"primerNombre"`
	SegundoNombre   *string    `json:"segundoNombre,omitempty"`
	PrimerApellido  string     `json:"primerApellido"`
	SegundoApellido *string    `json:"segundoApellido,omitempty"`
	RUT             string     `json:"rut"`
	Correo          string     `json:"correo"`
	Rol             string     `json:"rol"`
	Curso           *string    `json:"curso,omitempty"`
	SancionHasta    *time.Time `json:"sancionHasta,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func ToUsuarioResponse(u *model.Usuario) UsuarioResponse {
	return UsuarioResponse{
		ID:              u.ID.String(),
		PrimerNombre:    u.PrimerNombre,
		SegundoNombre:   u.SegundoNombre,
		PrimerApellido:  u.PrimerApellido,
		SegundoApellido: u.SegundoApellido,
		RUT:             u.RUT,
		Correo:          u.Correo,
		Rol:             string(u.Rol),
		Curso:           u.Curso,
		SancionHasta:    u.SancionHasta,
		CreatedAt:       u.CreatedAt,
	}
}

// SancionadoResponse is the reduced projection for the sanctioned-users view.
type SancionadoResponse struct {
	ID             string    `json:"id"`
	PrimerNombre   string    `json:"primerNombre"`
	PrimerApellido string    `json:"primerApellido"`
	RUT            string    `json:"rut"`
	SancionHasta   time.Time `json:"sancionHasta"`
}
