package model

import "github.com/google/uuid"

// TipoItem discrimina entre las dos clases de copias prestables:
// ejemplares de libros e instancias de recursos CRA.
type TipoItem string

const (
	TipoEjemplar TipoItem = "ejemplar"
	TipoRecurso  TipoItem = "recurso"
)

func (t TipoItem) Valid() bool {
	return t == TipoEjemplar || t == TipoRecurso
}

// ItemRef is the typed polymorphic reference a Prestamo or Reserva carries.
// A tagged pair instead of a free-form "model name + id" removes the
// mismatched-lookup class of bugs.
type ItemRef struct {
	Tipo TipoItem
	ID   uuid.UUID
}

// EstadoItem is the availability state of a single physical copy.
// Estado: "disponible" | "prestado" | "reservado" | "deteriorado" |
// "extraviado" | "mantenimiento"
type EstadoItem string

const (
	ItemDisponible    EstadoItem = "disponible"
	ItemPrestado      EstadoItem = "prestado"
	ItemReservado     EstadoItem = "reservado"
	ItemDeteriorado   EstadoItem = "deteriorado"
	ItemExtraviado    EstadoItem = "extraviado"
	ItemMantenimiento EstadoItem = "mantenimiento"
)

var estadosItemValidos = map[EstadoItem]bool{
	ItemDisponible:    true,
	ItemPrestado:      true,
	ItemReservado:     true,
	ItemDeteriorado:   true,
	ItemExtraviado:    true,
	ItemMantenimiento: true,
}

func (e EstadoItem) Valid() bool { return estadosItemValidos[e] }

// EstadosDevolucion are the states a copy may be left in when a loan is
// returned: back on the shelf, damaged, or lost.
var EstadosDevolucion = map[EstadoItem]bool{
	ItemDisponible:  true,
	ItemDeteriorado: true,
	ItemExtraviado:  true,
}
