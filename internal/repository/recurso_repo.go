package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PrefijoCodigo returns the internal-code prefix for a sede:
// RBB (recursos biblioteca Básica) or RBM (Media).
func PrefijoCodigo(sede string) string {
	if sede == "Básica" {
		return "RBB"
	}
	return "RBM"
}

type RecursoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, rec *model.RecursoCRA) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RecursoCRA, error)
	List(ctx context.Context, filter dto.PageFilter) ([]model.RecursoCRA, int64, error)
	Save(ctx context.Context, tx *gorm.DB, rec *model.RecursoCRA) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IDsPorNombre(ctx context.Context, q string) ([]uuid.UUID, error)
	SearchPorNombre(ctx context.Context, q string, limit int) ([]model.RecursoCRA, error)

	CrearInstancias(ctx context.Context, tx *gorm.DB, instancias []model.InstanciaRecurso) error
	FindInstancia(ctx context.Context, id uuid.UUID) (*model.InstanciaRecurso, error)
	ListInstancias(ctx context.Context, recursoID uuid.UUID) ([]model.InstanciaRecurso, error)
	CountInstancias(ctx context.Context, recursoID uuid.UUID) (int64, error)
	ConteoInstancias(ctx context.Context, recursoID uuid.UUID) (ConteoCopias, error)
	DeleteInstancia(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteInstanciasLibres(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteInstanciasDeRecurso(ctx context.Context, tx *gorm.DB, recursoID uuid.UUID) error
	SiguienteNumeroCodigo(ctx context.Context, tx *gorm.DB, prefijo string) (int, error)
	PrimeraInstanciaDisponible(ctx context.Context, recursoID uuid.UUID) (*model.InstanciaRecurso, error)
	UpdateEstadoInstancia(ctx context.Context, id uuid.UUID, estado model.EstadoItem) (*model.InstanciaRecurso, error)
	DB() *gorm.DB
}

type recursoRepo struct{ db *gorm.DB }

func NewRecursoRepository(db *gorm.DB) RecursoRepository { return &recursoRepo{db: db} }

func (r *recursoRepo) DB() *gorm.DB { return r.db }

func (r *recursoRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *recursoRepo) Create(ctx context.Context, tx *gorm.DB, rec *model.RecursoCRA) error {
	return r.tx(tx).WithContext(ctx).Create(rec).Error
}

func (r *recursoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RecursoCRA, error) {
	var rec model.RecursoCRA
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	return &rec, err
}

func (r *recursoRepo) List(ctx context.Context, filter dto.PageFilter) ([]model.RecursoCRA, int64, error) {
	var recursos []model.RecursoCRA
	var total int64

	q := r.db.WithContext(ctx).Model(&model.RecursoCRA{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("nombre ILIKE ? OR sede ILIKE ? OR categoria ILIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&recursos).Error
	return recursos, total, err
}

func (r *recursoRepo) Save(ctx context.Context, tx *gorm.DB, rec *model.RecursoCRA) error {
	return r.tx(tx).WithContext(ctx).Save(rec).Error
}

func (r *recursoRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Delete(&model.RecursoCRA{}, "id = ?", id).Error
}

func (r *recursoRepo) IDsPorNombre(ctx context.Context, q string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.RecursoCRA{}).
		Where("nombre ILIKE ?", "%"+q+"%").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *recursoRepo) SearchPorNombre(ctx context.Context, q string, limit int) ([]model.RecursoCRA, error) {
	var recursos []model.RecursoCRA
	err := r.db.WithContext(ctx).
		Where("nombre ILIKE ?", "%"+q+"%").
		Limit(limit).Find(&recursos).Error
	return recursos, err
}

// ─── Instancias ──────────────────────────────────────────────────────────────

func (r *recursoRepo) CrearInstancias(ctx context.Context, tx *gorm.DB, instancias []model.InstanciaRecurso) error {
	if len(instancias) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).Create(&instancias).Error
}

func (r *recursoRepo) FindInstancia(ctx context.Context, id uuid.UUID) (*model.InstanciaRecurso, error) {
	var i model.InstanciaRecurso
	err := r.db.WithContext(ctx).Preload("Recurso").First(&i, "id = ?", id).Error
	return &i, err
}

func (r *recursoRepo) ListInstancias(ctx context.Context, recursoID uuid.UUID) ([]model.InstanciaRecurso, error) {
	var instancias []model.InstanciaRecurso
	err := r.db.WithContext(ctx).
		Where("recurso_id = ?", recursoID).
		Order("codigo_interno ASC").
		Find(&instancias).Error
	return instancias, err
}

func (r *recursoRepo) CountInstancias(ctx context.Context, recursoID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InstanciaRecurso{}).
		Where("recurso_id = ?", recursoID).
		Count(&n).Error
	return n, err
}

func (r *recursoRepo) ConteoInstancias(ctx context.Context, recursoID uuid.UUID) (ConteoCopias, error) {
	var c ConteoCopias
	err := r.db.WithContext(ctx).Model(&model.InstanciaRecurso{}).
		Where("recurso_id = ?", recursoID).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE estado = 'disponible') AS disponibles").
		Scan(&c).Error
	return c, err
}

func (r *recursoRepo) DeleteInstancia(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Delete(&model.InstanciaRecurso{}, "id = ?", id).Error
}

// DeleteInstanciasLibres removes the given instances, skipping any that are
// currently on loan or held by a reservation.
func (r *recursoRepo) DeleteInstanciasLibres(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).
		Where("id IN ? AND estado NOT IN ?", ids, []model.EstadoItem{model.ItemPrestado, model.ItemReservado}).
		Delete(&model.InstanciaRecurso{}).Error
}

func (r *recursoRepo) DeleteInstanciasDeRecurso(ctx context.Context, tx *gorm.DB, recursoID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).
		Where("recurso_id = ?", recursoID).
		Delete(&model.InstanciaRecurso{}).Error
}

// SiguienteNumeroCodigo returns the next numeric suffix for the per-sede
// internal-code sequence (RBB-007 → 8). Runs inside the caller's transaction
// so concurrent creations cannot hand out the same number twice.
func (r *recursoRepo) SiguienteNumeroCodigo(ctx context.Context, tx *gorm.DB, prefijo string) (int, error) {
	var ultimo string
	err := r.tx(tx).WithContext(ctx).Model(&model.InstanciaRecurso{}).
		Where("codigo_interno LIKE ?", prefijo+"-%").
		Order("codigo_interno DESC").
		Limit(1).
		Pluck("codigo_interno", &ultimo).Error
	if err != nil {
		return 0, err
	}
	if ultimo == "" {
		return 1, nil
	}
	parte := strings.TrimPrefix(ultimo, prefijo+"-")
	n, err := strconv.Atoi(parte)
	if err != nil {
		return 0, fmt.Errorf("código interno malformado %q: %w", ultimo, err)
	}
	return n + 1, nil
}

func (r *recursoRepo) PrimeraInstanciaDisponible(ctx context.Context, recursoID uuid.UUID) (*model.InstanciaRecurso, error) {
	var i model.InstanciaRecurso
	err := r.db.WithContext(ctx).
		Where("recurso_id = ? AND estado = ?", recursoID, model.ItemDisponible).
		Order("codigo_interno ASC").
		First(&i).Error
	return &i, err
}

func (r *recursoRepo) UpdateEstadoInstancia(ctx context.Context, id uuid.UUID, estado model.EstadoItem) (*model.InstanciaRecurso, error) {
	var i model.InstanciaRecurso
	if err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, err
	}
	i.Estado = estado
	if err := r.db.WithContext(ctx).Save(&i).Error; err != nil {
		return nil, err
	}
	return &i, nil
}
