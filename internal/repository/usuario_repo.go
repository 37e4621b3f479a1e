package repository

import (
	"context"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error)
	ExisteCorreoORUT(ctx context.Context, correo, rut string) (bool, error)
	List(ctx context.Context, filter dto.PageFilter) ([]model.Usuario, int64, error)
	ListSancionados(ctx context.Context, filter dto.PageFilter, ahora time.Time) ([]model.Usuario, int64, error)
	Save(ctx context.Context, tx *gorm.DB, u *model.Usuario) error
	UpdateSancion(ctx context.Context, tx *gorm.DB, id uuid.UUID, hasta *time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Search(ctx context.Context, q string, soloAlumnos bool, limit int) ([]model.Usuario, error)
	CountSancionados(ctx context.Context, ahora time.Time) (int64, error)
	IDsPorTexto(ctx context.Context, q string) ([]uuid.UUID, error)
	IDsPorRolCurso(ctx context.Context, rol, curso string) ([]uuid.UUID, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) DB() *gorm.DB { return r.db }

// tx falls back to the repo connection when no transaction is in flight.
func (r *usuarioRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *usuarioRepo) FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("correo = ?", correo).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) ExisteCorreoORUT(ctx context.Context, correo, rut string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("correo = ? OR rut = ?", correo, rut).
		Count(&n).Error
	return n > 0, err
}

func (r *usuarioRepo) List(ctx context.Context, filter dto.PageFilter) ([]model.Usuario, int64, error) {
	var usuarios []model.Usuario
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Usuario{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("primer_nombre ILIKE ? OR primer_apellido ILIKE ? OR rut ILIKE ? OR correo ILIKE ?",
			like, like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&usuarios).Error
	return usuarios, total, err
}

func (r *usuarioRepo) ListSancionados(ctx context.Context, filter dto.PageFilter, ahora time.Time) ([]model.Usuario, int64, error) {
	var usuarios []model.Usuario
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Usuario{}).Where("sancion_hasta > ?", ahora)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("primer_nombre ILIKE ? OR primer_apellido ILIKE ? OR rut ILIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("sancion_hasta ASC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&usuarios).Error
	return usuarios, total, err
}

func (r *usuarioRepo) Save(ctx context.Context, tx *gorm.DB, u *model.Usuario) error {
	return r.tx(tx).WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) UpdateSancion(ctx context.Context, tx *gorm.DB, id uuid.UUID, hasta *time.Time) error {
	return r.tx(tx).WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ?", id).
		Update("sancion_hasta", hasta).Error
}

func (r *usuarioRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Delete(&model.Usuario{}, "id = ?", id).Error
}

func (r *usuarioRepo) Search(ctx context.Context, q string, soloAlumnos bool, limit int) ([]model.Usuario, error) {
	var usuarios []model.Usuario
	like := "%" + q + "%"

	query := r.db.WithContext(ctx).
		Where("primer_nombre ILIKE ? OR primer_apellido ILIKE ? OR rut ILIKE ? OR correo ILIKE ?",
			like, like, like, like)
	if soloAlumnos {
		query = query.Where("rol = ?", model.RolAlumno)
	}
	err := query.Limit(limit).Find(&usuarios).Error
	return usuarios, err
}

func (r *usuarioRepo) CountSancionados(ctx context.Context, ahora time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("sancion_hasta > ?", ahora).
		Count(&n).Error
	return n, err
}

// IDsPorTexto resolves the user ids matching a free-text search; used by the
// loan listing to search by borrower name or RUT.
func (r *usuarioRepo) IDsPorTexto(ctx context.Context, q string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	like := "%" + q + "%"
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("primer_nombre ILIKE ? OR primer_apellido ILIKE ? OR rut ILIKE ?", like, like, like).
		Pluck("id", &ids).Error
	return ids, err
}

// IDsPorRolCurso resolves the borrower ids matching a role and/or course
// filter; used by the loan report.
func (r *usuarioRepo) IDsPorRolCurso(ctx context.Context, rol, curso string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&model.Usuario{})
	if rol != "" {
		q = q.Where("rol = ?", rol)
	}
	if curso != "" {
		q = q.Where("curso = ?", curso)
	}
	err := q.Pluck("id", &ids).Error
	return ids, err
}
