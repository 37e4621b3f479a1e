package repository

import (
	"context"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConteoCopias aggregates total and available copies per catalog entry.
type ConteoCopias struct {
	Total       int64
	Disponibles int64
}

type LibroRepository interface {
	Create(ctx context.Context, tx *gorm.DB, l *model.Libro) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Libro, error)
	List(ctx context.Context, filter dto.PageFilter) ([]model.Libro, int64, error)
	Save(ctx context.Context, tx *gorm.DB, l *model.Libro) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Search(ctx context.Context, q string, limit int) ([]model.Libro, error)
	IDsPorTitulo(ctx context.Context, q string) ([]uuid.UUID, error)

	CrearEjemplares(ctx context.Context, tx *gorm.DB, ejemplares []model.Ejemplar) error
	FindEjemplar(ctx context.Context, id uuid.UUID) (*model.Ejemplar, error)
	ListEjemplares(ctx context.Context, libroID uuid.UUID) ([]model.Ejemplar, error)
	MaxNumeroCopia(ctx context.Context, libroID uuid.UUID) (int, error)
	CountEjemplares(ctx context.Context, libroID uuid.UUID) (int64, error)
	ConteoCopias(ctx context.Context, libroID uuid.UUID) (ConteoCopias, error)
	DeleteEjemplar(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	PrimerEjemplarDisponible(ctx context.Context, libroID uuid.UUID) (*model.Ejemplar, error)
	DB() *gorm.DB
}

type libroRepo struct{ db *gorm.DB }

func NewLibroRepository(db *gorm.DB) LibroRepository { return &libroRepo{db: db} }

func (r *libroRepo) DB() *gorm.DB { return r.db }

func (r *libroRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *libroRepo) Create(ctx context.Context, tx *gorm.DB, l *model.Libro) error {
	return r.tx(tx).WithContext(ctx).Create(l).Error
}

func (r *libroRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Libro, error) {
	var l model.Libro
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *libroRepo) List(ctx context.Context, filter dto.PageFilter) ([]model.Libro, int64, error) {
	var libros []model.Libro
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Libro{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("titulo ILIKE ? OR autor ILIKE ? OR isbn ILIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&libros).Error
	return libros, total, err
}

func (r *libroRepo) Save(ctx context.Context, tx *gorm.DB, l *model.Libro) error {
	return r.tx(tx).WithContext(ctx).Save(l).Error
}

func (r *libroRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Delete(&model.Libro{}, "id = ?", id).Error
}

func (r *libroRepo) Search(ctx context.Context, q string, limit int) ([]model.Libro, error) {
	var libros []model.Libro
	err := r.db.WithContext(ctx).
		Where("titulo ILIKE ?", "%"+q+"%").
		Limit(limit).Find(&libros).Error
	return libros, err
}

func (r *libroRepo) IDsPorTitulo(ctx context.Context, q string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Libro{}).
		Where("titulo ILIKE ?", "%"+q+"%").
		Pluck("id", &ids).Error
	return ids, err
}

// ─── Ejemplares ──────────────────────────────────────────────────────────────

func (r *libroRepo) CrearEjemplares(ctx context.Context, tx *gorm.DB, ejemplares []model.Ejemplar) error {
	if len(ejemplares) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).Create(&ejemplares).Error
}

func (r *libroRepo) FindEjemplar(ctx context.Context, id uuid.UUID) (*model.Ejemplar, error) {
	var e model.Ejemplar
	err := r.db.WithContext(ctx).Preload("Libro").First(&e, "id = ?", id).Error
	return &e, err
}

func (r *libroRepo) ListEjemplares(ctx context.Context, libroID uuid.UUID) ([]model.Ejemplar, error) {
	var ejemplares []model.Ejemplar
	err := r.db.WithContext(ctx).
		Where("libro_id = ?", libroID).
		Order("numero_copia ASC").
		Find(&ejemplares).Error
	return ejemplares, err
}

func (r *libroRepo) MaxNumeroCopia(ctx context.Context, libroID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.Ejemplar{}).
		Where("libro_id = ?", libroID).
		Select("COALESCE(MAX(numero_copia), 0)").
		Scan(&max).Error
	return max, err
}

func (r *libroRepo) CountEjemplares(ctx context.Context, libroID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ejemplar{}).
		Where("libro_id = ?", libroID).
		Count(&n).Error
	return n, err
}

func (r *libroRepo) ConteoCopias(ctx context.Context, libroID uuid.UUID) (ConteoCopias, error) {
	var c ConteoCopias
	err := r.db.WithContext(ctx).Model(&model.Ejemplar{}).
		Where("libro_id = ?", libroID).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE estado = 'disponible') AS disponibles").
		Scan(&c).Error
	return c, err
}

func (r *libroRepo) DeleteEjemplar(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Delete(&model.Ejemplar{}, "id = ?", id).Error
}

func (r *libroRepo) PrimerEjemplarDisponible(ctx context.Context, libroID uuid.UUID) (*model.Ejemplar, error) {
	var e model.Ejemplar
	err := r.db.WithContext(ctx).
		Where("libro_id = ? AND estado = ?", libroID, model.ItemDisponible).
		Order("numero_copia ASC").
		First(&e).Error
	return &e, err
}
