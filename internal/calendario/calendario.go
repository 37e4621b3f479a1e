// Package calendario implements the business-day arithmetic behind loan due
// dates. Business day = Monday to Friday; holiday calendars are not modeled.
package calendario

import (
	"time"

	"bibliocra/internal/model"
)

const (
	// DiasPrestamoLibro is the loan period for book copies, in business days.
	DiasPrestamoLibro = 10

	// HoraCorteRecursos: recurso loans are same-day returns, due at 17:00.
	// A loan taken at or after the cutoff is due the next business day at 17:00.
	HoraCorteRecursos = 17
)

// AddBusinessDays advances t by n days counting only Monday-Friday.
// Weekends are skipped entirely, never counted toward n. The result keeps
// t's wall-clock time and location.
func AddBusinessDays(t time.Time, n int) time.Time {
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return t
}

// FechaVencimiento computes the due date for a new loan.
//   - Ejemplar (book copy): now + 10 business days.
//   - Recurso (short loan): today at 17:00 when taken before the cutoff,
//     otherwise the next business day at 17:00.
func FechaVencimiento(tipo model.TipoItem, ahora time.Time) time.Time {
	if tipo == model.TipoEjemplar {
		return AddBusinessDays(ahora, DiasPrestamoLibro)
	}

	corte := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), HoraCorteRecursos, 0, 0, 0, ahora.Location())
	if ahora.Before(corte) {
		return corte
	}
	sig := AddBusinessDays(ahora, 1)
	return time.Date(sig.Year(), sig.Month(), sig.Day(), HoraCorteRecursos, 0, 0, 0, sig.Location())
}

// DiasAtraso is the number of sanction days for a late return:
// ceil((devolucion - vencimiento) / 24h). Zero when not late.
func DiasAtraso(vencimiento, devolucion time.Time) int {
	if !devolucion.After(vencimiento) {
		return 0
	}
	d := devolucion.Sub(vencimiento)
	dias := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		dias++
	}
	return dias
}
