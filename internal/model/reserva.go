package model

import (
	"time"

	"github.com/google/uuid"
)

// EstadoReserva: "pendiente" | "expirada" | "completada" | "cancelada"
type EstadoReserva string

const (
	ReservaPendiente  EstadoReserva = "pendiente"
	ReservaExpirada   EstadoReserva = "expirada"
	ReservaCompletada EstadoReserva = "completada"
	ReservaCancelada  EstadoReserva = "cancelada"
)

// Reserva holds a copy in estado reservado until pickup, expiry, or
// cancellation. While pendiente it is the exclusive owner of the copy's
// state transition, same as an open Prestamo.
type Reserva struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemTipo  TipoItem  `gorm:"type:varchar(10);not null"`

	FechaReserva time.Time     `gorm:"not null"`
	ExpiraEn     time.Time     `gorm:"not null;index"`
	Estado       EstadoReserva `gorm:"type:varchar(10);not null;default:'pendiente'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (Reserva) TableName() string { return "reservas" }

func (r *Reserva) Item() ItemRef {
	return ItemRef{Tipo: r.ItemTipo, ID: r.ItemID}
}
