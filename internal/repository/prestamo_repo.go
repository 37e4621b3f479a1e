package repository

import (
	"context"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrestamoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Prestamo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prestamo, error)
	Save(ctx context.Context, tx *gorm.DB, p *model.Prestamo) error
	// CountEnCurso returns the user's open-loan counts split by item class.
	// Derived-overdue loans are still enCurso and count toward the caps.
	CountEnCurso(ctx context.Context, usuarioID uuid.UUID) (libros, recursos int64, err error)
	ExisteEnCursoPorItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	List(ctx context.Context, filter dto.PrestamoFilter, ahora time.Time) ([]model.Prestamo, int64, error)
	ListPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Prestamo, error)
	// AtrasadosConUsuario returns every derived-overdue loan with the borrower
	// preloaded; used by the overdue-notice cron.
	AtrasadosConUsuario(ctx context.Context, ahora time.Time) ([]model.Prestamo, error)
	CountDesde(ctx context.Context, inicio time.Time) (int64, error)
	CountAtrasados(ctx context.Context, ahora time.Time) (int64, error)
	Report(ctx context.Context, filter dto.ReporteFilter, usuarioIDs, itemIDs []uuid.UUID) ([]model.Prestamo, int64, error)
	DB() *gorm.DB
}

type prestamoRepo struct{ db *gorm.DB }

func NewPrestamoRepository(db *gorm.DB) PrestamoRepository { return &prestamoRepo{db: db} }

func (r *prestamoRepo) DB() *gorm.DB { return r.db }

func (r *prestamoRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *prestamoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Prestamo) error {
	return r.tx(tx).WithContext(ctx).Create(p).Error
}

func (r *prestamoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Prestamo, error) {
	var p model.Prestamo
	err := r.db.WithContext(ctx).Preload("Usuario").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *prestamoRepo) Save(ctx context.Context, tx *gorm.DB, p *model.Prestamo) error {
	return r.tx(tx).WithContext(ctx).Save(p).Error
}

func (r *prestamoRepo) CountEnCurso(ctx context.Context, usuarioID uuid.UUID) (int64, int64, error) {
	type conteo struct {
		Libros   int64
		Recursos int64
	}
	var c conteo
	err := r.db.WithContext(ctx).Model(&model.Prestamo{}).
		Where("usuario_id = ? AND estado = ?", usuarioID, model.PrestamoEnCurso).
		Select("COUNT(*) FILTER (WHERE item_tipo = 'ejemplar') AS libros, COUNT(*) FILTER (WHERE item_tipo = 'recurso') AS recursos").
		Scan(&c).Error
	return c.Libros, c.Recursos, err
}

func (r *prestamoRepo) ExisteEnCursoPorItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Prestamo{}).
		Where("item_id = ? AND estado = ?", itemID, model.PrestamoEnCurso).
		Count(&n).Error
	return n > 0, err
}

// withSearch restricts loans to those whose borrower name/RUT or item title/
// resource name matches the free text.
func (r *prestamoRepo) withSearch(q *gorm.DB, search string) *gorm.DB {
	like := "%" + search + "%"

	usuarios := r.db.Model(&model.Usuario{}).Select("id").
		Where("primer_nombre ILIKE ? OR primer_apellido ILIKE ? OR rut ILIKE ?", like, like, like)
	ejemplares := r.db.Table("ejemplares").Select("ejemplares.id").
		Joins("JOIN libros ON libros.id = ejemplares.libro_id").
		Where("libros.titulo ILIKE ?", like)
	instancias := r.db.Table("instancias_recurso").Select("instancias_recurso.id").
		Joins("JOIN recursos_cra ON recursos_cra.id = instancias_recurso.recurso_id").
		Where("recursos_cra.nombre ILIKE ?", like)

	return q.Where("usuario_id IN (?) OR item_id IN (?) OR item_id IN (?)", usuarios, ejemplares, instancias)
}

func (r *prestamoRepo) List(ctx context.Context, filter dto.PrestamoFilter, ahora time.Time) ([]model.Prestamo, int64, error) {
	var prestamos []model.Prestamo
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Prestamo{})

	switch {
	case filter.SoloAtrasados || filter.Estado == string(model.PrestamoAtrasado):
		q = q.Where("estado = ? AND fecha_vencimiento < ?", model.PrestamoEnCurso, ahora)
	case filter.Estado == string(model.PrestamoEnCurso):
		q = q.Where("estado = ? AND fecha_vencimiento >= ?", model.PrestamoEnCurso, ahora)
	case filter.Estado != "":
		q = q.Where("estado = ?", filter.Estado)
	}

	if filter.UsuarioID != "" {
		q = q.Where("usuario_id = ?", filter.UsuarioID)
	}
	if filter.Search != "" {
		q = r.withSearch(q, filter.Search)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orden := "fecha_inicio DESC"
	if filter.SoloAtrasados {
		orden = "fecha_vencimiento ASC"
	}
	err := q.Preload("Usuario").
		Order(orden).
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&prestamos).Error
	return prestamos, total, err
}

func (r *prestamoRepo) ListPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Prestamo, error) {
	var prestamos []model.Prestamo
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("fecha_inicio DESC").
		Find(&prestamos).Error
	return prestamos, err
}

func (r *prestamoRepo) AtrasadosConUsuario(ctx context.Context, ahora time.Time) ([]model.Prestamo, error) {
	var prestamos []model.Prestamo
	err := r.db.WithContext(ctx).
		Where("estado = ? AND fecha_vencimiento < ?", model.PrestamoEnCurso, ahora).
		Preload("Usuario").
		Order("fecha_vencimiento ASC").
		Find(&prestamos).Error
	return prestamos, err
}

func (r *prestamoRepo) CountDesde(ctx context.Context, inicio time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Prestamo{}).
		Where("fecha_inicio >= ?", inicio).
		Count(&n).Error
	return n, err
}

func (r *prestamoRepo) CountAtrasados(ctx context.Context, ahora time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Prestamo{}).
		Where("estado = ? AND fecha_vencimiento < ?", model.PrestamoEnCurso, ahora).
		Count(&n).Error
	return n, err
}

// Report applies the report constraints. A nil id slice means "no
// restriction"; the service pre-resolves role/course/book filters to ids and
// short-circuits on empty matches before calling.
func (r *prestamoRepo) Report(ctx context.Context, filter dto.ReporteFilter, usuarioIDs, itemIDs []uuid.UUID) ([]model.Prestamo, int64, error) {
	var prestamos []model.Prestamo
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Prestamo{})

	if filter.FechaInicio != nil && filter.FechaFin != nil {
		q = q.Where("fecha_inicio BETWEEN ? AND ?", *filter.FechaInicio, *filter.FechaFin)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if usuarioIDs != nil {
		q = q.Where("usuario_id IN ?", usuarioIDs)
	}
	if itemIDs != nil {
		q = q.Where("item_id IN ? AND item_tipo = ?", itemIDs, model.TipoEjemplar)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Preload("Usuario").Order("fecha_inicio DESC, id ASC")
	if !filter.Export {
		q = q.Offset(filter.Offset()).Limit(filter.Limit)
	}
	err := q.Find(&prestamos).Error
	return prestamos, total, err
}
