package service

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors the handlers map to HTTP status codes with errors.Is / As.
// Messages are user-facing; wrapping adds internal context where needed.
var (
	ErrUsuarioNoEncontrado  = errors.New("Usuario no encontrado.")
	ErrPrestamoNoEncontrado = errors.New("Préstamo no encontrado.")
	ErrReservaNoEncontrada  = errors.New("Reserva no encontrada.")
	ErrLibroNoEncontrado    = errors.New("Libro no encontrado.")
	ErrRecursoNoEncontrado  = errors.New("Recurso no encontrado.")
	ErrItemNoEncontrado     = errors.New("Instancia o ejemplar no encontrado.")

	ErrItemNoDisponible    = errors.New("El ítem no está disponible para préstamo.")
	ErrPrestamoYaDevuelto  = errors.New("El préstamo ya fue devuelto.")
	ErrPrestamoNoEnCurso   = errors.New(`Solo se pueden renovar préstamos "en curso".`)
	ErrReservaNoPendiente  = errors.New("La reserva ya no está pendiente.")
	ErrEstadoInvalido      = errors.New("Estado no válido.")
	ErrDiasRenovacion      = errors.New("Por favor, proporciona un número válido de días para la renovación.")
	ErrCorreoORUTDuplicado = errors.New("El correo o RUT ya está registrado.")
	ErrCredenciales        = errors.New("Credenciales inválidas.")

	ErrEliminarAdmin          = errors.New("No se puede eliminar a otro administrador.")
	ErrUsuarioConPrestamos    = errors.New("No se puede eliminar a este usuario porque tiene préstamos activos o atrasados.")
	ErrItemEnUso              = errors.New("No se puede dar de baja un ítem que está en préstamo o reservado.")
	ErrItemConPrestamoActivo  = errors.New("Este ítem está asociado a un préstamo activo. Primero debe ser devuelto.")
	ErrUltimaInstancia        = errors.New("No se puede eliminar la última instancia. Utilice la opción de dar de baja para retirar el recurso completo.")
	ErrUltimaCopia            = errors.New("No se puede eliminar la última copia. Utilice la opción de dar de baja para retirar el libro completo.")
	ErrReporteNoAutorizado    = errors.New("No tiene permisos para generar reportes sobre este rol.")
	ErrAccesoNoAutorizado     = errors.New("Acceso no autorizado.")
)

// SancionError rejects a loan or reservation for a sanctioned user, carrying
// the expiry so the caller can show it.
type SancionError struct {
	Hasta time.Time
}

func (e *SancionError) Error() string {
	return fmt.Sprintf("Usuario sancionado hasta %s.", e.Hasta.Format("02/01/2006"))
}
