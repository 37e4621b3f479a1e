package service

import (
	"context"
	"errors"
	"fmt"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sugerenciaLimit caps every typeahead query.
const sugerenciaLimit = 10

type BusquedaService interface {
	Usuarios(ctx context.Context, q string, soloAlumnos bool) ([]dto.UsuarioSugerencia, error)
	Libros(ctx context.Context, q string) ([]dto.LibroSugerencia, error)
	// Items returns one available copy per matching title or resource, ready
	// to drop into the loan form.
	Items(ctx context.Context, q string) ([]dto.ItemSugerencia, error)
	// CopiaDisponible resolves the first free copy of a catalog entry.
	CopiaDisponible(ctx context.Context, tipo model.TipoItem, id uuid.UUID) (*dto.CopiaDisponibleResponse, error)
}

type busquedaService struct {
	usuarios repository.UsuarioRepository
	libros   repository.LibroRepository
	recursos repository.RecursoRepository
}

func NewBusquedaService(
	usuarios repository.UsuarioRepository,
	libros repository.LibroRepository,
	recursos repository.RecursoRepository,
) BusquedaService {
	return &busquedaService{usuarios: usuarios, libros: libros, recursos: recursos}
}

func (s *busquedaService) Usuarios(ctx context.Context, q string, soloAlumnos bool) ([]dto.UsuarioSugerencia, error) {
	usuarios, err := s.usuarios.Search(ctx, q, soloAlumnos, sugerenciaLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UsuarioSugerencia, 0, len(usuarios))
	for i := range usuarios {
		u := &usuarios[i]
		out = append(out, dto.UsuarioSugerencia{
			ID:             u.ID.String(),
			PrimerNombre:   u.PrimerNombre,
			PrimerApellido: u.PrimerApellido,
			RUT:            u.RUT,
		})
	}
	return out, nil
}

func (s *busquedaService) Libros(ctx context.Context, q string) ([]dto.LibroSugerencia, error) {
	libros, err := s.libros.Search(ctx, q, sugerenciaLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LibroSugerencia, 0, len(libros))
	for i := range libros {
		out = append(out, dto.LibroSugerencia{
			ID:     libros[i].ID.String(),
			Titulo: libros[i].Titulo,
			Autor:  libros[i].Autor,
		})
	}
	return out, nil
}

func (s *busquedaService) Items(ctx context.Context, q string) ([]dto.ItemSugerencia, error) {
	var out []dto.ItemSugerencia

	libros, err := s.libros.Search(ctx, q, sugerenciaLimit)
	if err != nil {
		return nil, err
	}
	for i := range libros {
		copia, err := s.libros.PrimerEjemplarDisponible(ctx, libros[i].ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, dto.ItemSugerencia{
			ID:     copia.ID.String(),
			Tipo:   string(model.TipoEjemplar),
			Nombre: fmt.Sprintf("%s (Copia #%d)", libros[i].Titulo, copia.NumeroCopia),
		})
	}

	recursos, err := s.recursos.SearchPorNombre(ctx, q, sugerenciaLimit)
	if err != nil {
		return nil, err
	}
	for i := range recursos {
		unidad, err := s.recursos.PrimeraInstanciaDisponible(ctx, recursos[i].ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, dto.ItemSugerencia{
			ID:     unidad.ID.String(),
			Tipo:   string(model.TipoRecurso),
			Nombre: fmt.Sprintf("%s (%s)", recursos[i].Nombre, unidad.CodigoInterno),
		})
	}

	if out == nil {
		out = []dto.ItemSugerencia{}
	}
	return out, nil
}

func (s *busquedaService) CopiaDisponible(ctx context.Context, tipo model.TipoItem, id uuid.UUID) (*dto.CopiaDisponibleResponse, error) {
	switch tipo {
	case model.TipoEjemplar:
		copia, err := s.libros.PrimerEjemplarDisponible(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNoDisponible
			}
			return nil, err
		}
		return &dto.CopiaDisponibleResponse{CopiaID: copia.ID.String()}, nil
	case model.TipoRecurso:
		unidad, err := s.recursos.PrimeraInstanciaDisponible(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNoDisponible
			}
			return nil, err
		}
		return &dto.CopiaDisponibleResponse{CopiaID: unidad.ID.String()}, nil
	default:
		return nil, ErrItemNoEncontrado
	}
}
