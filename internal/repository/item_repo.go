package repository

import (
	"context"
	"fmt"

	"bibliocra/internal/model"

	"gorm.io/gorm"
)

// ItemRepository operates on the availability state of a copy through its
// polymorphic ItemRef, hiding the ejemplar/instancia split from the loan and
// reservation services.
type ItemRepository interface {
	// Claim performs the atomic conditional transition
	// "set estado=hacia where estado=desde". Returns false when the copy was
	// not in the expected state — the caller maps that to a policy error.
	// This single UPDATE closes the two-loans-one-copy race.
	Claim(ctx context.Context, tx *gorm.DB, ref model.ItemRef, desde, hacia model.EstadoItem) (bool, error)

	// UpdateEstado sets the copy state unconditionally (return flow, where the
	// outcome state is chosen by the librarian) and attaches observations.
	UpdateEstado(ctx context.Context, tx *gorm.DB, ref model.ItemRef, estado model.EstadoItem, observaciones *string) error

	// Estado reads the current availability state.
	Estado(ctx context.Context, ref model.ItemRef) (model.EstadoItem, error)

	// Etiqueta resolves the human-readable label (book title + copy number,
	// or resource name + internal code). gorm.ErrRecordNotFound signals an
	// orphaned reference; callers substitute a placeholder.
	Etiqueta(ctx context.Context, ref model.ItemRef) (string, error)
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *itemRepo) modelFor(ref model.ItemRef) (interface{}, error) {
	switch ref.Tipo {
	case model.TipoEjemplar:
		return &model.Ejemplar{}, nil
	case model.TipoRecurso:
		return &model.InstanciaRecurso{}, nil
	default:
		return nil, fmt.Errorf("tipo de ítem desconocido: %q", ref.Tipo)
	}
}

func (r *itemRepo) Claim(ctx context.Context, tx *gorm.DB, ref model.ItemRef, desde, hacia model.EstadoItem) (bool, error) {
	m, err := r.modelFor(ref)
	if err != nil {
		return false, err
	}
	res := r.tx(tx).WithContext(ctx).Model(m).
		Where("id = ? AND estado = ?", ref.ID, desde).
		Update("estado", hacia)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *itemRepo) UpdateEstado(ctx context.Context, tx *gorm.DB, ref model.ItemRef, estado model.EstadoItem, observaciones *string) error {
	m, err := r.modelFor(ref)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"estado": estado}
	if observaciones != nil {
		updates["observaciones"] = *observaciones
	}
	return r.tx(tx).WithContext(ctx).Model(m).
		Where("id = ?", ref.ID).
		Updates(updates).Error
}

func (r *itemRepo) Estado(ctx context.Context, ref model.ItemRef) (model.EstadoItem, error) {
	m, err := r.modelFor(ref)
	if err != nil {
		return "", err
	}
	var estado model.EstadoItem
	err = r.db.WithContext(ctx).Model(m).
		Where("id = ?", ref.ID).
		Limit(1).
		Pluck("estado", &estado).Error
	if err != nil {
		return "", err
	}
	if estado == "" {
		return "", gorm.ErrRecordNotFound
	}
	return estado, nil
}

func (r *itemRepo) Etiqueta(ctx context.Context, ref model.ItemRef) (string, error) {
	switch ref.Tipo {
	case model.TipoEjemplar:
		var e model.Ejemplar
		if err := r.db.WithContext(ctx).Preload("Libro").First(&e, "id = ?", ref.ID).Error; err != nil {
			return "", err
		}
		if e.Libro == nil {
			return "", gorm.ErrRecordNotFound
		}
		return fmt.Sprintf("%s (Copia #%d)", e.Libro.Titulo, e.NumeroCopia), nil
	case model.TipoRecurso:
		var i model.InstanciaRecurso
		if err := r.db.WithContext(ctx).Preload("Recurso").First(&i, "id = ?", ref.ID).Error; err != nil {
			return "", err
		}
		if i.Recurso == nil {
			return "", gorm.ErrRecordNotFound
		}
		return fmt.Sprintf("%s (%s)", i.Recurso.Nombre, i.CodigoInterno), nil
	default:
		return "", fmt.Errorf("tipo de ítem desconocido: %q", ref.Tipo)
	}
}
