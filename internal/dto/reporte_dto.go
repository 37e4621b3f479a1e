package dto

import "time"

// ReporteFilter drives the filtered loan report.
type ReporteFilter struct {
	PageFilter
	FechaInicio *time.Time `form:"fechaInicio" time_format:"2006-01-02"`
	FechaFin    *time.Time `form:"fechaFin"    time_format:"2006-01-02"`
	// Estado almacenado: enCurso | devuelto
	Estado string `form:"estado"`
	// Rol / Curso filtran por el prestatario
	Rol   string `form:"rol"`
	Curso string `form:"curso"`
	// LibroID restringe a los ejemplares de un título
	LibroID   string `form:"libroId"`
	UsuarioID string `form:"usuarioId"`
	// IncluirHuerfanos mantiene préstamos cuyo usuario o ítem fue eliminado
	IncluirHuerfanos bool `form:"incluirHuerfanos"`
	// Export omite la paginación (se exporta el conjunto completo)
	Export bool `form:"-"`
}

type DashboardResponse struct {
	PrestamosHoy     int64 `json:"prestamosHoy"`
	ReservasHoy      int64 `json:"reservasHoy"`
	PrestamosAtrasados int64 `json:"prestamosAtrasados"`
	UsuariosSancionados int64 `json:"usuariosSancionados"`
	ItemsPorAtender  int64 `json:"itemsPorAtender"`
}
