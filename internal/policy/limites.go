// Package policy holds the borrowing-limit table: how many books and
// resources each role may have on loan at once. The decision is pure — the
// caller supplies the user's current open-loan counts (derived-overdue loans
// included).
package policy

import (
	"fmt"

	"bibliocra/internal/model"
)

// Limites are the concurrent-loan ceilings for one role.
type Limites struct {
	MaxLibros   int
	MaxRecursos int
}

// limitesPorRol is the single source of truth for borrowing caps.
// Adjusting a ceiling here is the only change needed.
var limitesPorRol = map[model.Rol]Limites{
	model.RolAlumno:   {MaxLibros: 3, MaxRecursos: 1},
	model.RolProfesor: {MaxLibros: 5, MaxRecursos: 3},
	model.RolPersonal: {MaxLibros: 5, MaxRecursos: 3},
	model.RolAdmin:    {MaxLibros: 10, MaxRecursos: 5},
}

// LimitesParaRol exposes the table entry for a role (used by reporting).
func LimitesParaRol(rol model.Rol) (Limites, bool) {
	l, ok := limitesPorRol[rol]
	return l, ok
}

// LimiteExcedidoError carries the human-readable rejection reason.
type LimiteExcedidoError struct {
	Rol    model.Rol
	Tipo   model.TipoItem
	Limite int
}

func (e *LimiteExcedidoError) Error() string {
	clase := "libros"
	if e.Tipo == model.TipoRecurso {
		clase = "recursos"
	}
	return fmt.Sprintf("El usuario ya alcanzó el límite de %d %s en préstamo para el rol %s.", e.Limite, clase, e.Rol)
}

// Check decides whether a user of the given role may borrow one more item of
// the given class, given how many books and resources they already hold.
// Returns nil when allowed, a *LimiteExcedidoError otherwise.
func Check(rol model.Rol, tipo model.TipoItem, librosEnCurso, recursosEnCurso int) error {
	lim, ok := limitesPorRol[rol]
	if !ok {
		return fmt.Errorf("rol desconocido: %q", rol)
	}

	switch tipo {
	case model.TipoEjemplar:
		if librosEnCurso >= lim.MaxLibros {
			return &LimiteExcedidoError{Rol: rol, Tipo: tipo, Limite: lim.MaxLibros}
		}
	case model.TipoRecurso:
		if recursosEnCurso >= lim.MaxRecursos {
			return &LimiteExcedidoError{Rol: rol, Tipo: tipo, Limite: lim.MaxRecursos}
		}
	default:
		return fmt.Errorf("tipo de ítem desconocido: %q", tipo)
	}
	return nil
}
