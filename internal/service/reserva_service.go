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

type ReservaService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearReservaRequest) (*dto.ReservaResponse, error)
	// Confirmar converts a pending hold into a loan: the copy moves
	// reservado → prestado and a Prestamo is created with the standard
	// due-date rule.
	Confirmar(ctx context.Context, id uuid.UUID) (*dto.PrestamoResponse, error)
	Cancelar(ctx context.Context, id uuid.UUID) error
	CancelarPropia(ctx context.Context, usuarioID, id uuid.UUID) error
	MisReservas(ctx context.Context, usuarioID uuid.UUID) ([]dto.ReservaResponse, error)
	ListarActivas(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.ReservaResponse], error)
	// ExpirarPendientes frees every copy held by a pending reservation whose
	// expiry passed. Returns how many were expired; called by the cron.
	ExpirarPendientes(ctx context.Context) (int, error)
}

type reservaService struct {
	reservas  repository.ReservaRepository
	prestamos repository.PrestamoRepository
	usuarios  repository.UsuarioRepository
	items     repository.ItemRepository

	vigencia time.Duration
	now      func() time.Time
}

func NewReservaService(
	reservas repository.ReservaRepository,
	prestamos repository.PrestamoRepository,
	usuarios repository.UsuarioRepository,
	items repository.ItemRepository,
	vigenciaHoras int,
) ReservaService {
	return &reservaService{
		reservas:  reservas,
		prestamos: prestamos,
		usuarios:  usuarios,
		items:     items,
		vigencia:  time.Duration(vigenciaHoras) * time.Hour,
		now:       time.Now,
	}
}

func (s *reservaService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearReservaRequest) (*dto.ReservaResponse, error) {
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

	reserva := &model.Reserva{
		UsuarioID:    usuarioID,
		ItemID:       itemID,
		ItemTipo:     tipo,
		FechaReserva: ahora,
		ExpiraEn:     ahora.Add(s.vigencia),
		Estado:       model.ReservaPendiente,
	}

	ref := model.ItemRef{Tipo: tipo, ID: itemID}
	err = runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		claimed, err := s.items.Claim(ctx, tx, ref, model.ItemDisponible, model.ItemReservado)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrItemNoDisponible
		}
		return s.reservas.Create(ctx, tx, reserva)
	})
	if err != nil {
		return nil, err
	}

	reserva.Usuario = usuario
	resp := s.formatear(ctx, reserva)
	return &resp, nil
}

func (s *reservaService) Confirmar(ctx context.Context, id uuid.UUID) (*dto.PrestamoResponse, error) {
	reserva, err := s.reservas.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservaNoEncontrada
		}
		return nil, err
	}
	if reserva.Estado != model.ReservaPendiente {
		return nil, ErrReservaNoPendiente
	}

	ahora := s.now()

	// The hold does not bypass lending policy: pickup still requires an
	// unsanctioned borrower with free capacity.
	usuario, err := s.usuarios.FindByID(ctx, reserva.UsuarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsuarioNoEncontrado
		}
		return nil, err
	}
	if usuario.Sancionado(ahora) {
		return nil, &SancionError{Hasta: *usuario.SancionHasta}
	}
	libros, recursos, err := s.prestamos.CountEnCurso(ctx, reserva.UsuarioID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(usuario.Rol, reserva.ItemTipo, int(libros), int(recursos)); err != nil {
		return nil, err
	}

	prestamo := &model.Prestamo{
		UsuarioID:        reserva.UsuarioID,
		ItemID:           reserva.ItemID,
		ItemTipo:         reserva.ItemTipo,
		FechaInicio:      ahora,
		FechaVencimiento: calendario.FechaVencimiento(reserva.ItemTipo, ahora),
		Estado:           model.PrestamoEnCurso,
	}

	err = runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		// The reservation owns the copy, so the claim starts from reservado.
		claimed, err := s.items.Claim(ctx, tx, reserva.Item(), model.ItemReservado, model.ItemPrestado)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrItemNoDisponible
		}
		reserva.Estado = model.ReservaCompletada
		if err := s.reservas.Save(ctx, tx, reserva); err != nil {
			return err
		}
		return s.prestamos.Create(ctx, tx, prestamo)
	})
	if err != nil {
		return nil, err
	}

	etiqueta, err := s.items.Etiqueta(ctx, prestamo.Item())
	if err != nil {
		etiqueta = EtiquetaItemEliminado
	}
	return &dto.PrestamoResponse{
		ID:               prestamo.ID.String(),
		UsuarioID:        prestamo.UsuarioID.String(),
		Usuario:          dto.ToUsuarioResumen(usuario),
		ItemID:           prestamo.ItemID.String(),
		ItemTipo:         string(prestamo.ItemTipo),
		ItemDetalle:      dto.ItemDetalle{Tipo: string(prestamo.ItemTipo), Etiqueta: etiqueta},
		FechaInicio:      prestamo.FechaInicio,
		FechaVencimiento: prestamo.FechaVencimiento,
		Estado:           string(model.PrestamoEnCurso),
	}, nil
}

func (s *reservaService) Cancelar(ctx context.Context, id uuid.UUID) error {
	return s.cancelar(ctx, id, nil)
}

func (s *reservaService) CancelarPropia(ctx context.Context, usuarioID, id uuid.UUID) error {
	return s.cancelar(ctx, id, &usuarioID)
}

func (s *reservaService) cancelar(ctx context.Context, id uuid.UUID, soloDe *uuid.UUID) error {
	reserva, err := s.reservas.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservaNoEncontrada
		}
		return err
	}
	if soloDe != nil && reserva.UsuarioID != *soloDe {
		return ErrAccesoNoAutorizado
	}
	if reserva.Estado != model.ReservaPendiente {
		return ErrReservaNoPendiente
	}

	return runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		if _, err := s.items.Claim(ctx, tx, reserva.Item(), model.ItemReservado, model.ItemDisponible); err != nil {
			return err
		}
		reserva.Estado = model.ReservaCancelada
		return s.reservas.Save(ctx, tx, reserva)
	})
}

func (s *reservaService) MisReservas(ctx context.Context, usuarioID uuid.UUID) ([]dto.ReservaResponse, error) {
	reservas, err := s.reservas.ListPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	return s.formatearTodas(ctx, reservas), nil
}

func (s *reservaService) ListarActivas(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.ReservaResponse], error) {
	filter.Normalize()
	reservas, total, err := s.reservas.ListActivas(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := dto.NewPage(s.formatearTodas(ctx, reservas), total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *reservaService) ExpirarPendientes(ctx context.Context) (int, error) {
	expiradas, err := s.reservas.PendientesExpiradas(ctx, s.now())
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range expiradas {
		reserva := &expiradas[i]
		err := runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
			if _, err := s.items.Claim(ctx, tx, reserva.Item(), model.ItemReservado, model.ItemDisponible); err != nil {
				return err
			}
			reserva.Estado = model.ReservaExpirada
			return s.reservas.Save(ctx, tx, reserva)
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *reservaService) formatear(ctx context.Context, r *model.Reserva) dto.ReservaResponse {
	etiqueta, err := s.items.Etiqueta(ctx, r.Item())
	if err != nil {
		etiqueta = EtiquetaItemEliminado
	}
	return dto.ReservaResponse{
		ID:           r.ID.String(),
		UsuarioID:    r.UsuarioID.String(),
		Usuario:      dto.ToUsuarioResumen(r.Usuario),
		ItemID:       r.ItemID.String(),
		ItemTipo:     string(r.ItemTipo),
		ItemDetalle:  dto.ItemDetalle{Tipo: string(r.ItemTipo), Etiqueta: etiqueta},
		FechaReserva: r.FechaReserva,
		ExpiraEn:     r.ExpiraEn,
		Estado:       string(r.Estado),
	}
}

func (s *reservaService) formatearTodas(ctx context.Context, reservas []model.Reserva) []dto.ReservaResponse {
	out := make([]dto.ReservaResponse, 0, len(reservas))
	for i := range reservas {
		out = append(out, s.formatear(ctx, &reservas[i]))
	}
	return out
}
