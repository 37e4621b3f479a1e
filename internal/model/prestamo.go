package model

import (
	"time"

	"github.com/google/uuid"
)

// EstadoPrestamo is the stored lifecycle state of a loan.
// "atrasado" is never stored — it is derived at read time from the due date.
type EstadoPrestamo string

const (
	PrestamoEnCurso  EstadoPrestamo = "enCurso"
	PrestamoDevuelto EstadoPrestamo = "devuelto"

	// PrestamoAtrasado only appears in API responses and filters.
	PrestamoAtrasado EstadoPrestamo = "atrasado"
)

// Prestamo records one loan of a copy to a user.
// Invariant: FechaDevolucion is set if and only if Estado = devuelto; once
// devuelto the record is terminal.
type Prestamo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemTipo  TipoItem  `gorm:"type:varchar(10);not null"`

	FechaInicio      time.Time      `gorm:"not null;index"`
	FechaVencimiento time.Time      `gorm:"not null;index"`
	FechaDevolucion  *time.Time
	Estado           EstadoPrestamo `gorm:"type:varchar(10);not null;default:'enCurso'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (Prestamo) TableName() string { return "prestamos" }

// Item returns the typed polymorphic reference to the loaned copy.
func (p *Prestamo) Item() ItemRef {
	return ItemRef{Tipo: p.ItemTipo, ID: p.ItemID}
}

// EstadoDerivado computes the displayed state: an open loan past its due
// date reads as atrasado without ever being stored that way.
func (p *Prestamo) EstadoDerivado(ahora time.Time) EstadoPrestamo {
	if p.Estado == PrestamoEnCurso && p.FechaVencimiento.Before(ahora) {
		return PrestamoAtrasado
	}
	return p.Estado
}
