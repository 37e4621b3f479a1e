package service

import (
	"context"
	"errors"
	"time"

	"bibliocra/internal/calendario"
	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/policy"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EtiquetaItemEliminado replaces the display label of a loan whose catalog
// entry or copy was deleted out from under it. Orphans are tolerated at read
// time, never raised as failures.
const EtiquetaItemEliminado = "Ítem Eliminado"

type PrestamoService interface {
	Crear(ctx context.Context, req dto.CrearPrestamoRequest) (*dto.PrestamoResponse, error)
	Devolver(ctx context.Context, id uuid.UUID, req dto.DevolverPrestamoRequest) (*dto.PrestamoResponse, error)
	Renovar(ctx context.Context, id uuid.UUID, dias int) (*dto.PrestamoResponse, error)
	Listar(ctx context.Context, filter dto.PrestamoFilter) (*dto.Page[dto.PrestamoResponse], error)
	ListarAtrasados(ctx context.Context, filter dto.PrestamoFilter) (*dto.Page[dto.PrestamoResponse], error)
	ListarPorUsuario(ctx context.Context, solicitanteID uuid.UUID, solicitanteRol model.Rol, usuarioID uuid.UUID) ([]dto.PrestamoResponse, error)
	MisPrestamos(ctx context.Context, usuarioID uuid.UUID) ([]dto.PrestamoResponse, error)
}

type prestamoService struct {
	prestamos repository.PrestamoRepository
	usuarios  repository.UsuarioRepository
	items     repository.ItemRepository

	// now is swapped in tests to pin temporal logic.
	now func() time.Time
}

func NewPrestamoService(
	prestamos repository.PrestamoRepository,
	usuarios repository.UsuarioRepository,
	items repository.ItemRepository,
) PrestamoService {
	return &prestamoService{
		prestamos: prestamos,
		usuarios:  usuarios,
		items:     items,
		now:       time.Now,
	}
}

// ── Crear ────────────────────────────────────────────────────────────────────
// Order of checks is contractual: sanction short-circuits first, then the
// borrowing-limit policy, then availability. Availability is not a read-check
// but an atomic claim inside the transaction, so two concurrent requests for
// the same copy cannot both succeed.

func (s *prestamoService) Crear(ctx context.Context, req dto.CrearPrestamoRequest) (*dto.PrestamoResponse, error) {
	usuarioID, err := uuid.Parse(req.UsuarioID)
	if err != nil {
		return nil, ErrUsuarioNoEncontrado
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, ErrItemNoEncontrado
	}
	tipo := model.TipoItem(req.ItemTipo)

	ahora := s.now()

	usuario, err := s.usuarios.FindByID(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsuarioNoEncontrado
		}
		return nil, err
	}

	if usuario.Sancionado(ahora) {
		return nil, &SancionError{Hasta: *usuario.SancionHasta}
	}

	libros, recursos, err := s.prestamos.CountEnCurso(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(usuario.Rol, tipo, int(libros), int(recursos)); err != nil {
		return nil, err
	}

	prestamo := &model.Prestamo{
		UsuarioID:        usuarioID,
		ItemID:           itemID,
		ItemTipo:         tipo,
		FechaInicio:      ahora,
		FechaVencimiento: calendario.FechaVencimiento(tipo, ahora),
		Estado:           model.PrestamoEnCurso,
	}

	ref := model.ItemRef{Tipo: tipo, ID: itemID}
	err = runTx(ctx, s.prestamos.DB(), func(tx *gorm.DB) error {
		claimed, err := s.items.Claim(ctx, tx, ref, model.ItemDisponible, model.ItemPrestado)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrItemNoDisponible
		}
		return s.prestamos.Create(ctx, tx, prestamo)
	})
	if err != nil {
		return nil, err
	}

	resp := s.formatear(ctx, prestamo, ahora)
	return &resp, nil
}

// ── Devolver ─────────────────────────────────────────────────────────────────

func (s *prestamoService) Devolver(ctx context.Context, id uuid.UUID, req dto.DevolverPrestamoRequest) (*dto.PrestamoResponse, error) {
	nuevoEstado := model.EstadoItem(req.NuevoEstado)
	if nuevoEstado == "" {
		nuevoEstado = model.ItemDisponible
	}
	if !model.EstadosDevolucion[nuevoEstado] {
		return nil, ErrEstadoInvalido
	}

	prestamo, err := s.prestamos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrestamoNoEncontrado
		}
		return nil, err
	}
	if prestamo.Estado == model.PrestamoDevuelto {
		return nil, ErrPrestamoYaDevuelto
	}

	ahora := s.now()

	err = runTx(ctx, s.prestamos.DB(), func(tx *gorm.DB) error {
		if ahora.After(prestamo.FechaVencimiento) {
			if err := s.sancionarAtraso(ctx, tx, prestamo, ahora); err != nil {
				return err
			}
		}

		prestamo.FechaDevolucion = &ahora
		prestamo.Estado = model.PrestamoDevuelto
		if err := s.prestamos.Save(ctx, tx, prestamo); err != nil {
			return err
		}

		obs := req.Observaciones
		return s.items.UpdateEstado(ctx, tx, prestamo.Item(), nuevoEstado, &obs)
	})
	if err != nil {
		return nil, err
	}

	resp := s.formatear(ctx, prestamo, ahora)
	return &resp, nil
}

// sancionarAtraso extends the borrower's sanction window by one day per day
// late, keeping whichever expiry is later. A pre-existing longer sanction is
// never shortened (the source overwrote it; extend-to-max is the documented
// behavior here).
func (s *prestamoService) sancionarAtraso(ctx context.Context, tx *gorm.DB, prestamo *model.Prestamo, ahora time.Time) error {
	usuario, err := s.usuarios.FindByID(ctx, prestamo.UsuarioID)
	if err != nil {
		// Borrower deleted since the loan was created: nothing to sanction.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	dias := calendario.DiasAtraso(prestamo.FechaVencimiento, ahora)
	nueva := ahora.AddDate(0, 0, dias)
	if usuario.SancionHasta != nil && usuario.SancionHasta.After(nueva) {
		return nil
	}
	return s.usuarios.UpdateSancion(ctx, tx, usuario.ID, &nueva)
}

// ── Renovar ──────────────────────────────────────────────────────────────────

func (s *prestamoService) Renovar(ctx context.Context, id uuid.UUID, dias int) (*dto.PrestamoResponse, error) {
	if dias <= 0 {
		return nil, ErrDiasRenovacion
	}

	prestamo, err := s.prestamos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrestamoNoEncontrado
		}
		return nil, err
	}
	if prestamo.Estado != model.PrestamoEnCurso {
		return nil, ErrPrestamoNoEnCurso
	}

	prestamo.FechaVencimiento = calendario.AddBusinessDays(prestamo.FechaVencimiento, dias)
	if err := s.prestamos.Save(ctx, nil, prestamo); err != nil {
		return nil, err
	}

	resp := s.formatear(ctx, prestamo, s.now())
	return &resp, nil
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

func (s *prestamoService) Listar(ctx context.Context, filter dto.PrestamoFilter) (*dto.Page[dto.PrestamoResponse], error) {
	filter.Normalize()
	ahora := s.now()

	prestamos, total, err := s.prestamos.List(ctx, filter, ahora)
	if err != nil {
		return nil, err
	}

	page := dto.NewPage(s.formatearTodos(ctx, prestamos, ahora), total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *prestamoService) ListarAtrasados(ctx context.Context, filter dto.PrestamoFilter) (*dto.Page[dto.PrestamoResponse], error) {
	filter.SoloAtrasados = true
	return s.Listar(ctx, filter)
}

func (s *prestamoService) ListarPorUsuario(ctx context.Context, solicitanteID uuid.UUID, solicitanteRol model.Rol, usuarioID uuid.UUID) ([]dto.PrestamoResponse, error) {
	// El mesón (admin y personal) consulta el historial de cualquier usuario;
	// el resto solo el propio.
	esMeson := solicitanteRol == model.RolAdmin || solicitanteRol == model.RolPersonal
	if !esMeson && solicitanteID != usuarioID {
		return nil, ErrAccesoNoAutorizado
	}
	prestamos, err := s.prestamos.ListPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	return s.formatearTodos(ctx, prestamos, s.now()), nil
}

func (s *prestamoService) MisPrestamos(ctx context.Context, usuarioID uuid.UUID) ([]dto.PrestamoResponse, error) {
	prestamos, err := s.prestamos.ListPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	return s.formatearTodos(ctx, prestamos, s.now()), nil
}

func (s *prestamoService) formatear(ctx context.Context, p *model.Prestamo, ahora time.Time) dto.PrestamoResponse {
	return formatearPrestamo(ctx, s.items, p, ahora)
}

// formatearPrestamo builds the API projection: derived estado (atrasado is
// computed, never stored) plus the resolved item label, tolerating orphaned
// references. Shared with the report service.
func formatearPrestamo(ctx context.Context, items repository.ItemRepository, p *model.Prestamo, ahora time.Time) dto.PrestamoResponse {
	etiqueta, err := items.Etiqueta(ctx, p.Item())
	if err != nil {
		etiqueta = EtiquetaItemEliminado
	}

	return dto.PrestamoResponse{
		ID:               p.ID.String(),
		UsuarioID:        p.UsuarioID.String(),
		Usuario:          dto.ToUsuarioResumen(p.Usuario),
		ItemID:           p.ItemID.String(),
		ItemTipo:         string(p.ItemTipo),
		ItemDetalle:      dto.ItemDetalle{Tipo: string(p.ItemTipo), Etiqueta: etiqueta},
		FechaInicio:      p.FechaInicio,
		FechaVencimiento: p.FechaVencimiento,
		FechaDevolucion:  p.FechaDevolucion,
		Estado:           string(p.EstadoDerivado(ahora)),
	}
}

func (s *prestamoService) formatearTodos(ctx context.Context, prestamos []model.Prestamo, ahora time.Time) []dto.PrestamoResponse {
	out := make([]dto.PrestamoResponse, 0, len(prestamos))
	for i := range prestamos {
		out = append(out, s.formatear(ctx, &prestamos[i], ahora))
	}
	return out
}
