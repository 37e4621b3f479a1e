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

type RecursoService interface {
	Crear(ctx context.Context, req dto.CrearRecursoRequest) (*dto.RecursoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.RecursoResponse, error)
	Listar(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.RecursoResponse], error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarRecursoRequest) (*dto.RecursoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	AgregarInstancias(ctx context.Context, recursoID uuid.UUID, cantidad int) ([]dto.InstanciaResponse, error)
	ListarInstancias(ctx context.Context, recursoID uuid.UUID) ([]dto.InstanciaResponse, error)
	CambiarEstadoInstancia(ctx context.Context, id uuid.UUID, estado model.EstadoItem) (*dto.InstanciaResponse, error)
	EliminarInstancia(ctx context.Context, id uuid.UUID) error
}

type recursoService struct {
	recursos repository.RecursoRepository
}

func NewRecursoService(recursos repository.RecursoRepository) RecursoService {
	return &recursoService{recursos: recursos}
}

func (s *recursoService) Crear(ctx context.Context, req dto.CrearRecursoRequest) (*dto.RecursoResponse, error) {
	recurso := recursoFromData(req.Recurso)

	err := runTx(ctx, s.recursos.DB(), func(tx *gorm.DB) error {
		if err := s.recursos.Create(ctx, tx, recurso); err != nil {
			return err
		}
		instancias, err := s.nuevasInstancias(ctx, tx, recurso, req.CantidadInstancias)
		if err != nil {
			return err
		}
		return s.recursos.CrearInstancias(ctx, tx, instancias)
	})
	if err != nil {
		return nil, err
	}

	n := int64(req.CantidadInstancias)
	resp := dto.ToRecursoResponse(recurso, n, n)
	return &resp, nil
}

func (s *recursoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.RecursoResponse, error) {
	recurso, err := s.recursos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecursoNoEncontrado
		}
		return nil, err
	}
	conteo, err := s.recursos.ConteoInstancias(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToRecursoResponse(recurso, conteo.Total, conteo.Disponibles)
	return &resp, nil
}

func (s *recursoService) Listar(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.RecursoResponse], error) {
	filter.Normalize()
	recursos, total, err := s.recursos.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]dto.RecursoResponse, 0, len(recursos))
	for i := range recursos {
		conteo, err := s.recursos.ConteoInstancias(ctx, recursos[i].ID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, dto.ToRecursoResponse(&recursos[i], conteo.Total, conteo.Disponibles))
	}
	page := dto.NewPage(docs, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *recursoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarRecursoRequest) (*dto.RecursoResponse, error) {
	recurso, err := s.recursos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecursoNoEncontrado
		}
		return nil, err
	}

	eliminar := make([]uuid.UUID, 0, len(req.InstanciasAEliminar))
	for _, raw := range req.InstanciasAEliminar {
		iid, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrItemNoEncontrado
		}
		eliminar = append(eliminar, iid)
	}

	actualizado := recursoFromData(req.Recurso)
	actualizado.ID = recurso.ID
	actualizado.CreatedAt = recurso.CreatedAt

	err = runTx(ctx, s.recursos.DB(), func(tx *gorm.DB) error {
		if err := s.recursos.Save(ctx, tx, actualizado); err != nil {
			return err
		}
		instancias, err := s.nuevasInstancias(ctx, tx, actualizado, req.InstanciasAdicionales)
		if err != nil {
			return err
		}
		if err := s.recursos.CrearInstancias(ctx, tx, instancias); err != nil {
			return err
		}
		return s.recursos.DeleteInstanciasLibres(ctx, tx, eliminar)
	})
	if err != nil {
		return nil, err
	}

	conteo, err := s.recursos.ConteoInstancias(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToRecursoResponse(actualizado, conteo.Total, conteo.Disponibles)
	return &resp, nil
}

func (s *recursoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.recursos.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecursoNoEncontrado
		}
		return err
	}
	instancias, err := s.recursos.ListInstancias(ctx, id)
	if err != nil {
		return err
	}
	for i := range instancias {
		if instancias[i].Estado == model.ItemPrestado || instancias[i].Estado == model.ItemReservado {
			return ErrItemEnUso
		}
	}

	return runTx(ctx, s.recursos.DB(), func(tx *gorm.DB) error {
		if err := s.recursos.DeleteInstanciasDeRecurso(ctx, tx, id); err != nil {
			return err
		}
		return s.recursos.Delete(ctx, tx, id)
	})
}

func (s *recursoService) AgregarInstancias(ctx context.Context, recursoID uuid.UUID, cantidad int) ([]dto.InstanciaResponse, error) {
	recurso, err := s.recursos.FindByID(ctx, recursoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecursoNoEncontrado
		}
		return nil, err
	}

	var instancias []model.InstanciaRecurso
	err = runTx(ctx, s.recursos.DB(), func(tx *gorm.DB) error {
		var err error
		instancias, err = s.nuevasInstancias(ctx, tx, recurso, cantidad)
		if err != nil {
			return err
		}
		return s.recursos.CrearInstancias(ctx, tx, instancias)
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.InstanciaResponse, 0, len(instancias))
	for i := range instancias {
		out = append(out, dto.ToInstanciaResponse(&instancias[i]))
	}
	return out, nil
}

func (s *recursoService) ListarInstancias(ctx context.Context, recursoID uuid.UUID) ([]dto.InstanciaResponse, error) {
	if _, err := s.recursos.FindByID(ctx, recursoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecursoNoEncontrado
		}
		return nil, err
	}
	instancias, err := s.recursos.ListInstancias(ctx, recursoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InstanciaResponse, 0, len(instancias))
	for i := range instancias {
		out = append(out, dto.ToInstanciaResponse(&instancias[i]))
	}
	return out, nil
}

func (s *recursoService) CambiarEstadoInstancia(ctx context.Context, id uuid.UUID, estado model.EstadoItem) (*dto.InstanciaResponse, error) {
	if !estado.Valid() {
		return nil, ErrEstadoInvalido
	}
	instancia, err := s.recursos.UpdateEstadoInstancia(ctx, id, estado)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNoEncontrado
		}
		return nil, err
	}
	resp := dto.ToInstanciaResponse(instancia)
	return &resp, nil
}

func (s *recursoService) EliminarInstancia(ctx context.Context, id uuid.UUID) error {
	instancia, err := s.recursos.FindInstancia(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNoEncontrado
		}
		return err
	}
	if instancia.Estado == model.ItemPrestado || instancia.Estado == model.ItemReservado {
		return ErrItemEnUso
	}
	total, err := s.recursos.CountInstancias(ctx, instancia.RecursoID)
	if err != nil {
		return err
	}
	// Un recurso sin instancias quedaría invisible en préstamos; se elimina
	// el recurso completo en su lugar.
	if total <= 1 {
		return ErrUltimaInstancia
	}
	return s.recursos.DeleteInstancia(ctx, nil, id)
}

// nuevasInstancias reserves the next internal codes for the recurso's sede and
// builds the units; must run inside a transaction when cantidad > 0.
func (s *recursoService) nuevasInstancias(ctx context.Context, tx *gorm.DB, recurso *model.RecursoCRA, cantidad int) ([]model.InstanciaRecurso, error) {
	if cantidad <= 0 {
		return nil, nil
	}
	prefijo := repository.PrefijoCodigo(recurso.Sede)
	desde, err := s.recursos.SiguienteNumeroCodigo(ctx, tx, prefijo)
	if err != nil {
		return nil, err
	}
	instancias := make([]model.InstanciaRecurso, cantidad)
	for i := range instancias {
		instancias[i] = model.InstanciaRecurso{
			RecursoID:     recurso.ID,
			CodigoInterno: fmt.Sprintf("%s-%03d", prefijo, desde+i),
			Estado:        model.ItemDisponible,
		}
	}
	return instancias, nil
}

func recursoFromData(d dto.RecursoData) *model.RecursoCRA {
	return &model.RecursoCRA{
		Nombre:      d.Nombre,
		Categoria:   d.Categoria,
		Sede:        d.Sede,
		Descripcion: d.Descripcion,
		Ubicacion:   d.Ubicacion,
	}
}
