package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bibliocra/internal/repository"
	"bibliocra/internal/service"
)

const avisoDedupePrefix = "aviso:prestamo:"

// StartVencimientoCron runs the periodic sweep over loans and reservations:
// expired pending reservations release their copies, and every overdue loan
// triggers an email reminder to the borrower (at most one per day per loan).
func StartVencimientoCron(ctx context.Context, rdb *redis.Client, dispatcher *Dispatcher,
	prestamos repository.PrestamoRepository, items repository.ItemRepository,
	reservas service.ReservaService, interval time.Duration) {

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Info().Dur("interval", interval).Msg("vencimiento cron started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("vencimiento cron shutting down")
				return
			case <-ticker.C:
				runVencimientoSweep(ctx, rdb, dispatcher, prestamos, items, reservas)
			}
		}
	}()
}

func runVencimientoSweep(ctx context.Context, rdb *redis.Client, dispatcher *Dispatcher,
	prestamos repository.PrestamoRepository, items repository.ItemRepository,
	reservas service.ReservaService) {

	if n, err := reservas.ExpirarPendientes(ctx); err != nil {
		log.Error().Err(err).Msg("failed to expire pending reservations")
	} else if n > 0 {
		log.Info().Int("expiradas", n).Msg("pending reservations expired")
	}

	atrasados, err := prestamos.AtrasadosConUsuario(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to list overdue loans")
		return
	}

	enviados := 0
	for i := range atrasados {
		p := &atrasados[i]
		if p.Usuario == nil || p.Usuario.Correo == "" {
			continue
		}

		// One reminder per loan per calendar day
		dedupeKey := fmt.Sprintf("%s%s:%s", avisoDedupePrefix, p.ID, time.Now().Format("2006-01-02"))
		ok, err := rdb.SetNX(ctx, dedupeKey, 1, 48*time.Hour).Result()
		if err != nil {
			log.Error().Err(err).Str("prestamo_id", p.ID.String()).Msg("dedupe check failed")
			continue
		}
		if !ok {
			continue
		}

		etiqueta, err := items.Etiqueta(ctx, p.Item())
		if err != nil {
			etiqueta = service.EtiquetaItemEliminado
		}
		payload := AvisoPayload{
			Para:   p.Usuario.Correo,
			Asunto: "Préstamo atrasado - Biblioteca CRA",
			Cuerpo: fmt.Sprintf(
				"Estimado/a %s:\n\nEl préstamo de \"%s\" venció el %s. Por favor devuélvelo a la brevedad para evitar sanciones adicionales.\n\nBiblioteca CRA",
				p.Usuario.NombreCompleto(), etiqueta, p.FechaVencimiento.Format("02-01-2006")),
		}
		if err := dispatcher.EnqueueAviso(ctx, payload); err != nil {
			log.Error().Err(err).Str("prestamo_id", p.ID.String()).Msg("failed to enqueue overdue notice")
			continue
		}
		enviados++
	}
	if enviados > 0 {
		log.Info().Int("avisos", enviados).Msg("overdue notices enqueued")
	}
}
