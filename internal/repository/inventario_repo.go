package repository

import (
	"context"

	"bibliocra/internal/model"

	"gorm.io/gorm"
)

// InventarioRepository serves the items-for-attention views: copies sitting
// in a problem state (damaged, lost, under maintenance).
type InventarioRepository interface {
	EjemplaresProblema(ctx context.Context, estados []model.EstadoItem, search string) ([]model.Ejemplar, error)
	InstanciasProblema(ctx context.Context, estados []model.EstadoItem, search string) ([]model.InstanciaRecurso, error)
	CountEjemplaresPorEstado(ctx context.Context, estados []model.EstadoItem) (int64, error)
	CountInstanciasPorEstado(ctx context.Context, estados []model.EstadoItem) (int64, error)
}

type inventarioRepo struct{ db *gorm.DB }

func NewInventarioRepository(db *gorm.DB) InventarioRepository { return &inventarioRepo{db: db} }

func (r *inventarioRepo) EjemplaresProblema(ctx context.Context, estados []model.EstadoItem, search string) ([]model.Ejemplar, error) {
	if len(estados) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Where("estado IN ?", estados)
	if search != "" {
		libros := r.db.Model(&model.Libro{}).Select("id").Where("titulo ILIKE ?", "%"+search+"%")
		q = q.Where("libro_id IN (?)", libros)
	}
	var ejemplares []model.Ejemplar
	err := q.Preload("Libro").Order("updated_at DESC").Find(&ejemplares).Error
	return ejemplares, err
}

func (r *inventarioRepo) InstanciasProblema(ctx context.Context, estados []model.EstadoItem, search string) ([]model.InstanciaRecurso, error) {
	if len(estados) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Where("estado IN ?", estados)
	if search != "" {
		recursos := r.db.Model(&model.RecursoCRA{}).Select("id").Where("nombre ILIKE ?", "%"+search+"%")
		q = q.Where("recurso_id IN (?)", recursos)
	}
	var instancias []model.InstanciaRecurso
	err := q.Preload("Recurso").Order("updated_at DESC").Find(&instancias).Error
	return instancias, err
}

func (r *inventarioRepo) CountEjemplaresPorEstado(ctx context.Context, estados []model.EstadoItem) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ejemplar{}).
		Where("estado IN ?", estados).
		Count(&n).Error
	return n, err
}

func (r *inventarioRepo) CountInstanciasPorEstado(ctx context.Context, estados []model.EstadoItem) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InstanciaRecurso{}).
		Where("estado IN ?", estados).
		Count(&n).Error
	return n, err
}
