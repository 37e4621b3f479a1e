package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"gorm.io/gorm"
)

// estadosAtencion are the copy states that land an item in the attention view.
var estadosAtencion = []model.EstadoItem{
	model.ItemDeteriorado,
	model.ItemExtraviado,
	model.ItemMantenimiento,
}

type InventarioService interface {
	// ListarAtencion merges damaged, lost and in-maintenance copies of both
	// catalogs into a single paginated view.
	ListarAtencion(ctx context.Context, filter dto.InventarioFilter) (*dto.Page[dto.ItemAtencionResponse], error)
	// DarDeBaja removes a copy from circulation permanently. When it is the
	// last copy of its title or resource, the parent entry goes with it.
	DarDeBaja(ctx context.Context, ref model.ItemRef) error
}

type inventarioService struct {
	inventario repository.InventarioRepository
	libros     repository.LibroRepository
	recursos   repository.RecursoRepository
	prestamos  repository.PrestamoRepository
}

func NewInventarioService(
	inventario repository.InventarioRepository,
	libros repository.LibroRepository,
	recursos repository.RecursoRepository,
	prestamos repository.PrestamoRepository,
) InventarioService {
	return &inventarioService{
		inventario: inventario,
		libros:     libros,
		recursos:   recursos,
		prestamos:  prestamos,
	}
}

func (s *inventarioService) ListarAtencion(ctx context.Context, filter dto.InventarioFilter) (*dto.Page[dto.ItemAtencionResponse], error) {
	filter.Normalize()

	estados := estadosAtencion
	if filter.Estado != "" {
		estados = []model.EstadoItem{model.EstadoItem(filter.Estado)}
	}

	var items []dto.ItemAtencionResponse

	if filter.Tipo == "" || filter.Tipo == "Libro" {
		ejemplares, err := s.inventario.EjemplaresProblema(ctx, estados, filter.Search)
		if err != nil {
			return nil, err
		}
		for i := range ejemplares {
			items = append(items, ejemplarAtencion(&ejemplares[i]))
		}
	}
	if filter.Tipo == "" || filter.Tipo == "Recurso" {
		instancias, err := s.inventario.InstanciasProblema(ctx, estados, filter.Search)
		if err != nil {
			return nil, err
		}
		for i := range instancias {
			items = append(items, instanciaAtencion(&instancias[i]))
		}
	}

	// Ambas fuentes vienen ordenadas; el merge se reordena y pagina en
	// memoria porque el volumen de ítems problemáticos es acotado.
	sort.Slice(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})

	total := int64(len(items))
	desde := filter.Offset()
	if desde > len(items) {
		desde = len(items)
	}
	hasta := desde + filter.Limit
	if hasta > len(items) {
		hasta = len(items)
	}

	page := dto.NewPage(items[desde:hasta], total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *inventarioService) DarDeBaja(ctx context.Context, ref model.ItemRef) error {
	switch ref.Tipo {
	case model.TipoEjemplar:
		return s.darDeBajaEjemplar(ctx, ref)
	case model.TipoRecurso:
		return s.darDeBajaInstancia(ctx, ref)
	default:
		return ErrItemNoEncontrado
	}
}

func (s *inventarioService) darDeBajaEjemplar(ctx context.Context, ref model.ItemRef) error {
	ejemplar, err := s.libros.FindEjemplar(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNoEncontrado
		}
		return err
	}
	if err := s.verificarLibre(ctx, ref, ejemplar.Estado); err != nil {
		return err
	}

	total, err := s.libros.CountEjemplares(ctx, ejemplar.LibroID)
	if err != nil {
		return err
	}

	return runTx(ctx, s.libros.DB(), func(tx *gorm.DB) error {
		if err := s.libros.DeleteEjemplar(ctx, tx, ejemplar.ID); err != nil {
			return err
		}
		if total <= 1 {
			return s.libros.Delete(ctx, tx, ejemplar.LibroID)
		}
		return nil
	})
}

func (s *inventarioService) darDeBajaInstancia(ctx context.Context, ref model.ItemRef) error {
	instancia, err := s.recursos.FindInstancia(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNoEncontrado
		}
		return err
	}
	if err := s.verificarLibre(ctx, ref, instancia.Estado); err != nil {
		return err
	}

	total, err := s.recursos.CountInstancias(ctx, instancia.RecursoID)
	if err != nil {
		return err
	}

	return runTx(ctx, s.recursos.DB(), func(tx *gorm.DB) error {
		if err := s.recursos.DeleteInstancia(ctx, tx, instancia.ID); err != nil {
			return err
		}
		if total <= 1 {
			return s.recursos.Delete(ctx, tx, instancia.RecursoID)
		}
		return nil
	})
}

func (s *inventarioService) verificarLibre(ctx context.Context, ref model.ItemRef, estado model.EstadoItem) error {
	if estado == model.ItemPrestado || estado == model.ItemReservado {
		return ErrItemEnUso
	}
	// El estado puede quedar desincronizado de los préstamos si alguien lo
	// editó a mano; el registro de préstamos manda.
	activo, err := s.prestamos.ExisteEnCursoPorItem(ctx, ref.ID)
	if err != nil {
		return err
	}
	if activo {
		return ErrItemConPrestamoActivo
	}
	return nil
}

func ejemplarAtencion(e *model.Ejemplar) dto.ItemAtencionResponse {
	resp := dto.ItemAtencionResponse{
		ID:            e.ID.String(),
		ItemTipo:      "Libro",
		Etiqueta:      fmt.Sprintf("Copia #%d", e.NumeroCopia),
		Estado:        string(e.Estado),
		Observaciones: e.Observaciones,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.Libro != nil {
		resp.Etiqueta = fmt.Sprintf("%s (Copia #%d)", e.Libro.Titulo, e.NumeroCopia)
		precio := e.Libro.PrecioReposicion
		resp.ValorReposicion = &precio
	}
	return resp
}

func instanciaAtencion(i *model.InstanciaRecurso) dto.ItemAtencionResponse {
	resp := dto.ItemAtencionResponse{
		ID:            i.ID.String(),
		ItemTipo:      "Recurso",
		Etiqueta:      i.CodigoInterno,
		Estado:        string(i.Estado),
		Observaciones: i.Observaciones,
		UpdatedAt:     i.UpdatedAt,
	}
	if i.Recurso != nil {
		resp.Etiqueta = fmt.Sprintf("%s (%s)", i.Recurso.Nombre, i.CodigoInterno)
	}
	return resp
}
