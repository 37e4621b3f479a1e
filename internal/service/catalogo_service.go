package service

import (
	"context"
	"errors"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogoService interface {
	CrearLibro(ctx context.Context, req dto.CrearLibroRequest) (*dto.LibroResponse, error)
	ObtenerLibro(ctx context.Context, id uuid.UUID) (*dto.LibroResponse, error)
	ListarLibros(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.LibroResponse], error)
	ActualizarLibro(ctx context.Context, id uuid.UUID, req dto.ActualizarLibroRequest) (*dto.LibroResponse, error)
	// EliminarLibro borra el título y todas sus copias; rechaza si alguna
	// copia está prestada o reservada.
	EliminarLibro(ctx context.Context, id uuid.UUID) error
	AgregarEjemplares(ctx context.Context, libroID uuid.UUID, cantidad int) ([]dto.EjemplarResponse, error)
	ListarEjemplares(ctx context.Context, libroID uuid.UUID) ([]dto.EjemplarResponse, error)
	EliminarEjemplar(ctx context.Context, id uuid.UUID) error
}

type catalogoService struct {
	libros repository.LibroRepository
}

func NewCatalogoService(libros repository.LibroRepository) CatalogoService {
	return &catalogoService{libros: libros}
}

func (s *catalogoService) CrearLibro(ctx context.Context, req dto.CrearLibroRequest) (*dto.LibroResponse, error) {
	libro := libroFromData(req.Libro)

	err := runTx(ctx, s.libros.DB(), func(tx *gorm.DB) error {
		if err := s.libros.Create(ctx, tx, libro); err != nil {
			return err
		}
		ejemplares := make([]model.Ejemplar, req.CantidadEjemplares)
		for i := range ejemplares {
			ejemplares[i] = model.Ejemplar{
				LibroID:     libro.ID,
				NumeroCopia: i + 1,
				Estado:      model.ItemDisponible,
			}
		}
		return s.libros.CrearEjemplares(ctx, tx, ejemplares)
	})
	if err != nil {
		return nil, err
	}

	n := int64(req.CantidadEjemplares)
	resp := dto.ToLibroResponse(libro, n, n)
	return &resp, nil
}

func (s *catalogoService) ObtenerLibro(ctx context.Context, id uuid.UUID) (*dto.LibroResponse, error) {
	libro, err := s.libros.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibroNoEncontrado
		}
		return nil, err
	}
	conteo, err := s.libros.ConteoCopias(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToLibroResponse(libro, conteo.Total, conteo.Disponibles)
	return &resp, nil
}

func (s *catalogoService) ListarLibros(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.LibroResponse], error) {
	filter.Normalize()
	libros, total, err := s.libros.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]dto.LibroResponse, 0, len(libros))
	for i := range libros {
		conteo, err := s.libros.ConteoCopias(ctx, libros[i].ID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, dto.ToLibroResponse(&libros[i], conteo.Total, conteo.Disponibles))
	}
	page := dto.NewPage(docs, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *catalogoService) ActualizarLibro(ctx context.Context, id uuid.UUID, req dto.ActualizarLibroRequest) (*dto.LibroResponse, error) {
	libro, err := s.libros.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibroNoEncontrado
		}
		return nil, err
	}

	actualizado := libroFromData(req.Libro)
	actualizado.ID = libro.ID
	actualizado.CreatedAt = libro.CreatedAt
	if err := s.libros.Save(ctx, nil, actualizado); err != nil {
		return nil, err
	}

	conteo, err := s.libros.ConteoCopias(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToLibroResponse(actualizado, conteo.Total, conteo.Disponibles)
	return &resp, nil
}

func (s *catalogoService) EliminarLibro(ctx context.Context, id uuid.UUID) error {
	if _, err := s.libros.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLibroNoEncontrado
		}
		return err
	}
	ejemplares, err := s.libros.ListEjemplares(ctx, id)
	if err != nil {
		return err
	}
	for i := range ejemplares {
		if ejemplares[i].Estado == model.ItemPrestado || ejemplares[i].Estado == model.ItemReservado {
			return ErrItemEnUso
		}
	}

	return runTx(ctx, s.libros.DB(), func(tx *gorm.DB) error {
		for i := range ejemplares {
			if err := s.libros.DeleteEjemplar(ctx, tx, ejemplares[i].ID); err != nil {
				return err
			}
		}
		return s.libros.Delete(ctx, tx, id)
	})
}

func (s *catalogoService) AgregarEjemplares(ctx context.Context, libroID uuid.UUID, cantidad int) ([]dto.EjemplarResponse, error) {
	if _, err := s.libros.FindByID(ctx, libroID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibroNoEncontrado
		}
		return nil, err
	}

	// La numeración continúa desde la copia más alta, incluidas las dadas
	// de baja: los números no se reutilizan.
	desde, err := s.libros.MaxNumeroCopia(ctx, libroID)
	if err != nil {
		return nil, err
	}

	ejemplares := make([]model.Ejemplar, cantidad)
	for i := range ejemplares {
		ejemplares[i] = model.Ejemplar{
			LibroID:     libroID,
			NumeroCopia: desde + i + 1,
			Estado:      model.ItemDisponible,
		}
	}
	if err := s.libros.CrearEjemplares(ctx, nil, ejemplares); err != nil {
		return nil, err
	}

	out := make([]dto.EjemplarResponse, 0, len(ejemplares))
	for i := range ejemplares {
		out = append(out, dto.ToEjemplarResponse(&ejemplares[i]))
	}
	return out, nil
}

func (s *catalogoService) ListarEjemplares(ctx context.Context, libroID uuid.UUID) ([]dto.EjemplarResponse, error) {
	if _, err := s.libros.FindByID(ctx, libroID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibroNoEncontrado
		}
		return nil, err
	}
	ejemplares, err := s.libros.ListEjemplares(ctx, libroID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EjemplarResponse, 0, len(ejemplares))
	for i := range ejemplares {
		out = append(out, dto.ToEjemplarResponse(&ejemplares[i]))
	}
	return out, nil
}

func (s *catalogoService) EliminarEjemplar(ctx context.Context, id uuid.UUID) error {
	ejemplar, err := s.libros.FindEjemplar(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNoEncontrado
		}
		return err
	}
	if ejemplar.Estado == model.ItemPrestado || ejemplar.Estado == model.ItemReservado {
		return ErrItemEnUso
	}
	conteo, err := s.libros.ConteoCopias(ctx, ejemplar.LibroID)
	if err != nil {
		return err
	}
	// Un libro sin copias quedaría invisible en préstamos; se elimina el
	// título completo en su lugar.
	if conteo.Total <= 1 {
		return ErrUltimaCopia
	}
	return s.libros.DeleteEjemplar(ctx, nil, id)
}

func libroFromData(d dto.LibroData) *model.Libro {
	pais := d.Pais
	if pais == "" {
		pais = "Chile"
	}
	return &model.Libro{
		TipoDocumento:       d.TipoDocumento,
		Titulo:              d.Titulo,
		Autor:               d.Autor,
		LugarPublicacion:    d.LugarPublicacion,
		Editorial:           d.Editorial,
		Sede:                d.Sede,
		Pais:                pais,
		NumeroPaginas:       d.NumeroPaginas,
		Descriptores:        d.Descriptores,
		Idioma:              d.Idioma,
		ISBN:                d.ISBN,
		CDD:                 d.CDD,
		PrecioReposicion:    d.PrecioReposicion,
		AnioPublicacion:     d.AnioPublicacion,
		Edicion:             d.Edicion,
		UbicacionEstanteria: d.UbicacionEstanteria,
	}
}
