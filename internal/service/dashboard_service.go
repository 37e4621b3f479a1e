package service

import (
	"context"
	"encoding/json"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = 60 * time.Second
)

type DashboardService interface {
	// Resumen returns the staff landing-page counters, cached briefly in
	// Redis so the dashboard poll does not hammer the database.
	Resumen(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	prestamos  repository.PrestamoRepository
	reservas   repository.ReservaRepository
	usuarios   repository.UsuarioRepository
	inventario repository.InventarioRepository
	rdb        *redis.Client

	now func() time.Time
}

func NewDashboardService(
	prestamos repository.PrestamoRepository,
	reservas repository.ReservaRepository,
	usuarios repository.UsuarioRepository,
	inventario repository.InventarioRepository,
	rdb *redis.Client,
) DashboardService {
	return &dashboardService{
		prestamos:  prestamos,
		reservas:   reservas,
		usuarios:   usuarios,
		inventario: inventario,
		rdb:        rdb,
		now:        time.Now,
	}
}

func (s *dashboardService) Resumen(ctx context.Context) (*dto.DashboardResponse, error) {
	if s.rdb != nil {
		if b, err := s.rdb.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var cached dto.DashboardResponse
			if json.Unmarshal(b, &cached) == nil {
				return &cached, nil
			}
		}
	}

	resumen, err := s.calcular(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if b, err := json.Marshal(resumen); err == nil {
			if err := s.rdb.Set(ctx, dashboardCacheKey, b, dashboardCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("dashboard: cache write failed")
			}
		}
	}
	return resumen, nil
}

func (s *dashboardService) calcular(ctx context.Context) (*dto.DashboardResponse, error) {
	ahora := s.now()
	hoy := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, ahora.Location())

	prestamosHoy, err := s.prestamos.CountDesde(ctx, hoy)
	if err != nil {
		return nil, err
	}
	reservasHoy, err := s.reservas.CountDesde(ctx, hoy)
	if err != nil {
		return nil, err
	}
	atrasados, err := s.prestamos.CountAtrasados(ctx, ahora)
	if err != nil {
		return nil, err
	}
	sancionados, err := s.usuarios.CountSancionados(ctx, ahora)
	if err != nil {
		return nil, err
	}
	ejemplares, err := s.inventario.CountEjemplaresPorEstado(ctx, estadosAtencion)
	if err != nil {
		return nil, err
	}
	instancias, err := s.inventario.CountInstanciasPorEstado(ctx, estadosAtencion)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardResponse{
		PrestamosHoy:        prestamosHoy,
		ReservasHoy:         reservasHoy,
		PrestamosAtrasados:  atrasados,
		UsuariosSancionados: sancionados,
		ItemsPorAtender:     ejemplares + instancias,
	}, nil
}
