package repository

import (
	"context"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, res *model.Reserva) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reserva, error)
	Save(ctx context.Context, tx *gorm.DB, res *model.Reserva) error
	ListActivas(ctx context.Context, filter dto.PageFilter) ([]model.Reserva, int64, error)
	ListPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Reserva, error)
	PendientesPorUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) ([]model.Reserva, error)
	DeletePendientesPorUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) error
	PendientesExpiradas(ctx context.Context, ahora time.Time) ([]model.Reserva, error)
	ExistePendientePorItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	CountDesde(ctx context.Context, inicio time.Time) (int64, error)
	DB() *gorm.DB
}

type reservaRepo struct{ db *gorm.DB }

func NewReservaRepository(db *gorm.DB) ReservaRepository { return &reservaRepo{db: db} }

func (r *reservaRepo) DB() *gorm.DB { return r.db }

func (r *reservaRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *reservaRepo) Create(ctx context.Context, tx *gorm.DB, res *model.Reserva) error {
	return r.tx(tx).WithContext(ctx).Create(res).Error
}

func (r *reservaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reserva, error) {
	var res model.Reserva
	err := r.db.WithContext(ctx).Preload("Usuario").First(&res, "id = ?", id).Error
	return &res, err
}

func (r *reservaRepo) Save(ctx context.Context, tx *gorm.DB, res *model.Reserva) error {
	return r.tx(tx).WithContext(ctx).Save(res).Error
}

func (r *reservaRepo) ListActivas(ctx context.Context, filter dto.PageFilter) ([]model.Reserva, int64, error) {
	var reservas []model.Reserva
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Reserva{}).
		Where("estado = ?", model.ReservaPendiente)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		usuarios := r.db.Model(&model.Usuario{}).Select("id").
			Where("primer_nombre ILIKE ? OR primer_apellido ILIKE ? OR rut ILIKE ?", like, like, like)
		q = q.Where("usuario_id IN (?)", usuarios)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Usuario").
		Order("expira_en ASC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&reservas).Error
	return reservas, total, err
}

func (r *reservaRepo) ListPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Reserva, error) {
	var reservas []model.Reserva
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("fecha_reserva DESC").
		Find(&reservas).Error
	return reservas, err
}

func (r *reservaRepo) PendientesPorUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) ([]model.Reserva, error) {
	var reservas []model.Reserva
	err := r.tx(tx).WithContext(ctx).
		Where("usuario_id = ? AND estado = ?", usuarioID, model.ReservaPendiente).
		Find(&reservas).Error
	return reservas, err
}

func (r *reservaRepo) DeletePendientesPorUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).
		Where("usuario_id = ? AND estado = ?", usuarioID, model.ReservaPendiente).
		Delete(&model.Reserva{}).Error
}

func (r *reservaRepo) PendientesExpiradas(ctx context.Context, ahora time.Time) ([]model.Reserva, error) {
	var reservas []model.Reserva
	err := r.db.WithContext(ctx).
		Where("estado = ? AND expira_en < ?", model.ReservaPendiente, ahora).
		Find(&reservas).Error
	return reservas, err
}

func (r *reservaRepo) ExistePendientePorItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reserva{}).
		Where("item_id = ? AND estado = ?", itemID, model.ReservaPendiente).
		Count(&n).Error
	return n > 0, err
}

func (r *reservaRepo) CountDesde(ctx context.Context, inicio time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reserva{}).
		Where("fecha_reserva >= ?", inicio).
		Count(&n).Error
	return n, err
}
