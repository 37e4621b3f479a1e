package dto

import (
	"time"

	"bibliocra/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Libros ──────────────────────────────────────────────────────────────────

type LibroData struct {
	TipoDocumento       string          `json:"tipoDocumento"    validate:"required,max=50"`
	Titulo              string          `json:"titulo"           validate:"required,max=300"`
	Autor               string          `json:"autor"            validate:"required,max=200"`
	LugarPublicacion    string          `json:"lugarPublicacion" validate:"required,max=100"`
	Editorial           string          `json:"editorial"        validate:"required,max=100"`
	Sede                string          `json:"sede"             validate:"required,oneof=Media Básica"`
	Pais                string          `json:"pais"             validate:"omitempty,max=60"`
	NumeroPaginas       *int            `json:"numeroPaginas"    validate:"omitempty,gt=0"`
	Descriptores        []string        `json:"descriptores"`
	Idioma              *string         `json:"idioma"           validate:"omitempty,max=40"`
	ISBN                *string         `json:"isbn"             validate:"omitempty,max=20"`
	CDD                 *string         `json:"cdd"              validate:"omitempty,max=20"`
	PrecioReposicion    decimal.Decimal `json:"precioReposicion"`
	AnioPublicacion     *int            `json:"anioPublicacion"`
	Edicion             *string         `json:"edicion"          validate:"omitempty,max=50"`
	UbicacionEstanteria *string         `json:"ubicacionEstanteria" validate:"omitempty,max=60"`
}

type CrearLibroRequest struct {
	Libro             LibroData `json:"libro"             validate:"required"`
	CantidadEjemplares int      `json:"cantidadEjemplares" validate:"gte=0"`
}

type ActualizarLibroRequest struct {
	Libro LibroData `json:"libro" validate:"required"`
}

type AgregarEjemplaresRequest struct {
	Cantidad int `json:"cantidad" validate:"required,gt=0"`
}

type LibroResponse struct {
	ID        string    `json:"id"`
	LibroData           // campos del catálogo
	CreatedAt time.Time `json:"createdAt"`

	// Conteos de copias, poblados por el listado
	TotalEjemplares      int64 `json:"totalEjemplares"`
	EjemplaresDisponibles int64 `json:"ejemplaresDisponibles"`
}

func ToLibroResponse(l *model.Libro, total, disponibles int64) LibroResponse {
	return LibroResponse{
		ID: l.ID.String(),
		LibroData: LibroData{
			TipoDocumento:       l.TipoDocumento,
			Titulo:              l.Titulo,
			Autor:               l.Autor,
			LugarPublicacion:    l.LugarPublicacion,
			Editorial:           l.Editorial,
			Sede:                l.Sede,
			Pais:                l.Pais,
			NumeroPaginas:       l.NumeroPaginas,
			Descriptores:        l.Descriptores,
			Idioma:              l.Idioma,
			ISBN:                l.ISBN,
			CDD:                 l.CDD,
			PrecioReposicion:    l.PrecioReposicion,
			AnioPublicacion:     l.AnioPublicacion,
			Edicion:             l.Edicion,
			UbicacionEstanteria: l.UbicacionEstanteria,
		},
		CreatedAt:             l.CreatedAt,
		TotalEjemplares:       total,
		EjemplaresDisponibles: disponibles,
	}
}

type EjemplarResponse struct {
	ID            string  `json:"id"`
	LibroID       string  `json:"libroId"`
	NumeroCopia   int     `json:"numeroCopia"`
	Estado        string  `json:"estado"`
	Observaciones *string `json:"observaciones,omitempty"`
}

func ToEjemplarResponse(e *model.Ejemplar) EjemplarResponse {
	return EjemplarResponse{
		ID:            e.ID.String(),
		LibroID:       e.LibroID.String(),
		NumeroCopia:   e.NumeroCopia,
		Estado:        string(e.Estado),
		Observaciones: e.Observaciones,
	}
}

// ─── Recursos CRA ────────────────────────────────────────────────────────────

type RecursoData struct {
	Nombre      string  `json:"nombre"      validate:"required,max=200"`
	Categoria   string  `json:"categoria"   validate:"required,max=100"`
	Sede        string  `json:"sede"        validate:"required,oneof=Media Básica"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
	Ubicacion   *string `json:"ubicacion"   validate:"omitempty,max=100"`
}

type CrearRecursoRequest struct {
	Recurso            RecursoData `json:"recurso"            validate:"required"`
	CantidadInstancias int         `json:"cantidadInstancias" validate:"gte=0"`
}

type ActualizarRecursoRequest struct {
	Recurso              RecursoData `json:"recurso" validate:"required"`
	InstanciasAdicionales int        `json:"instanciasAdicionales" validate:"gte=0"`
	InstanciasAEliminar  []string    `json:"instanciasAEliminar"   validate:"omitempty,dive,uuid"`
}

type AgregarInstanciasRequest struct {
	Cantidad int `json:"cantidad" validate:"required,gt=0"`
}

type CambiarEstadoInstanciaRequest struct {
	Estado string `json:"estado" validate:"required,oneof=disponible prestado mantenimiento reservado"`
}

type RecursoResponse struct {
	ID        string    `json:"id"`
	RecursoData
	CreatedAt time.Time `json:"createdAt"`

	TotalInstancias       int64 `json:"totalInstancias"`
	InstanciasDisponibles int64 `json:"instanciasDisponibles"`
}

func ToRecursoResponse(r *model.RecursoCRA, total, disponibles int64) RecursoResponse {
	return RecursoResponse{
		ID: r.ID.String(),
		RecursoData: RecursoData{
			Nombre:      r.Nombre,
			Categoria:   r.Categoria,
			Sede:        r.Sede,
			Descripcion: r.Descripcion,
			Ubicacion:   r.Ubicacion,
		},
		CreatedAt:             r.CreatedAt,
		TotalInstancias:       total,
		InstanciasDisponibles: disponibles,
	}
}

type InstanciaResponse struct {
	ID            string  `json:"id"`
	RecursoID     string  `json:"recursoId"`
	CodigoInterno string  `json:"codigoInterno"`
	Estado        string  `json:"estado"`
	Observaciones *string `json:"observaciones,omitempty"`
}

func ToInstanciaResponse(i *model.InstanciaRecurso) InstanciaResponse {
	return InstanciaResponse{
		ID:            i.ID.String(),
		RecursoID:     i.RecursoID.String(),
		CodigoInterno: i.CodigoInterno,
		Estado:        string(i.Estado),
		Observaciones: i.Observaciones,
	}
}
