package model

import (
	"time"

	"github.com/google/uuid"
)

// Rol: "alumno" | "profesor" | "personal" | "admin"
type Rol string

const (
	RolAlumno   Rol = "alumno"
	RolProfesor Rol = "profesor"
	RolPersonal Rol = "personal"
	RolAdmin    Rol = "admin"
)

// Usuario stores library users with role-based access.
// SancionHasta is a single timestamp: at most one active sanction window per
// user, nil = not sanctioned. Only the loan service (late return) writes it;
// an admin may clear it.
type Usuario struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrimerNombre    string    `gorm:"not null"`
	SegundoNombre   *string
	PrimerApellido  string `gorm:"not null"`
	SegundoApellido *string
	RUT             string `gorm:"uniqueIndex;not null;column:rut"`
	Correo          string `gorm:"uniqueIndex;not null"`
	PasswordHash    string `gorm:"not null"`
	Rol             Rol    `gorm:"type:varchar(20);not null"`
	// Curso applies to alumnos only (e.g. "8°A")
	Curso        *string
	SancionHasta *time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }

// Sancionado reports whether the user is barred from new loans at ref time.
func (u *Usuario) Sancionado(ahora time.Time) bool {
	return u.SancionHasta != nil && u.SancionHasta.After(ahora)
}

// NombreCompleto is the display label used in loan and report listings.
func (u *Usuario) NombreCompleto() string {
	return u.PrimerNombre + " " + u.PrimerApellido
}
