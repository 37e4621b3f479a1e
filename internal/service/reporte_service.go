package service

import (
	"context"
	"errors"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/infra"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReporteService interface {
	// Generar lists historical loans under the caller's visibility: admin and
	// personal see everything, profesores their own loans and the alumnos.
	Generar(ctx context.Context, solicitanteID uuid.UUID, rol model.Rol, filter dto.ReporteFilter) (*dto.Page[dto.PrestamoResponse], error)
	// ExportarPDF renders the full (unpaginated) filtered report to a PDF file
	// and returns its path.
	ExportarPDF(ctx context.Context, solicitanteID uuid.UUID, rol model.Rol, filter dto.ReporteFilter) (string, error)
}

type reporteService struct {
	prestamos repository.PrestamoRepository
	usuarios  repository.UsuarioRepository
	libros    repository.LibroRepository
	items     repository.ItemRepository

	pdfStoragePath string
	now            func() time.Time
}

func NewReporteService(
	prestamos repository.PrestamoRepository,
	usuarios repository.UsuarioRepository,
	libros repository.LibroRepository,
	items repository.ItemRepository,
	pdfStoragePath string,
) ReporteService {
	return &reporteService{
		prestamos:      prestamos,
		usuarios:       usuarios,
		libros:         libros,
		items:          items,
		pdfStoragePath: pdfStoragePath,
		now:            time.Now,
	}
}

func (s *reporteService) Generar(ctx context.Context, solicitanteID uuid.UUID, rol model.Rol, filter dto.ReporteFilter) (*dto.Page[dto.PrestamoResponse], error) {
	filter.Normalize()
	rows, total, err := s.consultar(ctx, solicitanteID, rol, filter)
	if err != nil {
		return nil, err
	}
	page := dto.NewPage(rows, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *reporteService) ExportarPDF(ctx context.Context, solicitanteID uuid.UUID, rol model.Rol, filter dto.ReporteFilter) (string, error) {
	filter.Normalize()
	filter.Export = true
	rows, _, err := s.consultar(ctx, solicitanteID, rol, filter)
	if err != nil {
		return "", err
	}
	return infra.GenerateReportePDF(rows, s.now(), s.pdfStoragePath)
}

func (s *reporteService) consultar(ctx context.Context, solicitanteID uuid.UUID, rol model.Rol, filter dto.ReporteFilter) ([]dto.PrestamoResponse, int64, error) {
	if err := s.aplicarVisibilidad(solicitanteID, rol, &filter); err != nil {
		return nil, 0, err
	}

	usuarioIDs, vacio, err := s.resolverUsuarios(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if vacio {
		return []dto.PrestamoResponse{}, 0, nil
	}

	itemIDs, vacio, err := s.resolverItems(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if vacio {
		return []dto.PrestamoResponse{}, 0, nil
	}

	prestamos, total, err := s.prestamos.Report(ctx, filter, usuarioIDs, itemIDs)
	if err != nil {
		return nil, 0, err
	}

	ahora := s.now()
	rows := make([]dto.PrestamoResponse, 0, len(prestamos))
	for i := range prestamos {
		row := formatearPrestamo(ctx, s.items, &prestamos[i], ahora)
		if !filter.IncluirHuerfanos && (row.Usuario == nil || row.ItemDetalle.Etiqueta == EtiquetaItemEliminado) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

// aplicarVisibilidad limits what each role may report over. Profesores reach
// their own loan history and the alumnos; any attempt to report over another
// adult is rejected, not silently narrowed.
func (s *reporteService) aplicarVisibilidad(solicitanteID uuid.UUID, rol model.Rol, filter *dto.ReporteFilter) error {
	if rol == model.RolAdmin || rol == model.RolPersonal {
		return nil
	}
	if rol != model.RolProfesor {
		return ErrReporteNoAutorizado
	}

	propio := solicitanteID.String()
	if filter.UsuarioID != "" && filter.UsuarioID != propio {
		return ErrReporteNoAutorizado
	}

	switch {
	case filter.Rol == string(model.RolAlumno):
		return nil
	case filter.Rol != "":
		return ErrReporteNoAutorizado
	case filter.Curso != "":
		// Un filtro por curso sin rol explícito apunta a los alumnos.
		filter.Rol = string(model.RolAlumno)
		return nil
	}

	if filter.UsuarioID == "" {
		filter.UsuarioID = propio
	}
	return nil
}

// resolverUsuarios converts the borrower constraints to an id slice.
// nil = no restriction; vacio = the constraint matched nobody.
func (s *reporteService) resolverUsuarios(ctx context.Context, filter dto.ReporteFilter) (ids []uuid.UUID, vacio bool, err error) {
	if filter.UsuarioID != "" {
		uid, err := uuid.Parse(filter.UsuarioID)
		if err != nil {
			return nil, true, nil
		}
		ids = []uuid.UUID{uid}
	} else if filter.Rol != "" || filter.Curso != "" {
		ids, err = s.usuarios.IDsPorRolCurso(ctx, filter.Rol, filter.Curso)
		if err != nil {
			return nil, false, err
		}
		if len(ids) == 0 {
			return nil, true, nil
		}
	}

	if filter.Search != "" {
		porTexto, err := s.usuarios.IDsPorTexto(ctx, filter.Search)
		if err != nil {
			return nil, false, err
		}
		if len(porTexto) == 0 {
			return nil, true, nil
		}
		if ids == nil {
			ids = porTexto
		} else {
			ids = interseccion(ids, porTexto)
			if len(ids) == 0 {
				return nil, true, nil
			}
		}
	}
	return ids, false, nil
}

func (s *reporteService) resolverItems(ctx context.Context, filter dto.ReporteFilter) (ids []uuid.UUID, vacio bool, err error) {
	if filter.LibroID == "" {
		return nil, false, nil
	}
	libroID, err := uuid.Parse(filter.LibroID)
	if err != nil {
		return nil, true, nil
	}
	if _, err := s.libros.FindByID(ctx, libroID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrLibroNoEncontrado
		}
		return nil, false, err
	}
	ejemplares, err := s.libros.ListEjemplares(ctx, libroID)
	if err != nil {
		return nil, false, err
	}
	if len(ejemplares) == 0 {
		return nil, true, nil
	}
	ids = make([]uuid.UUID, 0, len(ejemplares))
	for i := range ejemplares {
		ids = append(ids, ejemplares[i].ID)
	}
	return ids, false, nil
}

func interseccion(a, b []uuid.UUID) []uuid.UUID {
	en := make(map[uuid.UUID]bool, len(b))
	for _, id := range b {
		en[id] = true
	}
	var out []uuid.UUID
	for _, id := range a {
		if en[id] {
			out = append(out, id)
		}
	}
	return out
}
