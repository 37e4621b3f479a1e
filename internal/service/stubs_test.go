package service

import (
	"context"
	"strings"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubItemRepo is an in-memory copy-state table. Claim mimics the conditional
// UPDATE: a missing or mismatched row reports not-claimed, never an error.
type stubItemRepo struct {
	estados   map[uuid.UUID]model.EstadoItem
	etiquetas map[uuid.UUID]string
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{
		estados:   make(map[uuid.UUID]model.EstadoItem),
		etiquetas: make(map[uuid.UUID]string),
	}
}

func (r *stubItemRepo) agregar(id uuid.UUID, estado model.EstadoItem, etiqueta string) {
	r.estados[id] = estado
	r.etiquetas[id] = etiqueta
}

func (r *stubItemRepo) Claim(_ context.Context, _ *gorm.DB, ref model.ItemRef, desde, hacia model.EstadoItem) (bool, error) {
	if r.estados[ref.ID] != desde {
		return false, nil
	}
	r.estados[ref.ID] = hacia
	return true, nil
}

func (r *stubItemRepo) UpdateEstado(_ context.Context, _ *gorm.DB, ref model.ItemRef, estado model.EstadoItem, _ *string) error {
	if _, ok := r.estados[ref.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.estados[ref.ID] = estado
	return nil
}

func (r *stubItemRepo) Estado(_ context.Context, ref model.ItemRef) (model.EstadoItem, error) {
	e, ok := r.estados[ref.ID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubItemRepo) Etiqueta(_ context.Context, ref model.ItemRef) (string, error) {
	e, ok := r.etiquetas[ref.ID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return e, nil
}

var _ repository.ItemRepository = (*stubItemRepo)(nil)

// stubUsuarioRepo keeps users keyed by ID.
type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) agregar(u *model.Usuario) *model.Usuario {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return u
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.agregar(u)
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *u
	return &copia, nil
}

func (r *stubUsuarioRepo) FindByCorreo(_ context.Context, correo string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Correo == correo {
			copia := *u
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) ExisteCorreoORUT(_ context.Context, correo, rut string) (bool, error) {
	for _, u := range r.usuarios {
		if (correo != "" && u.Correo == correo) || (rut != "" && u.RUT == rut) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, _ dto.PageFilter) ([]model.Usuario, int64, error) {
	out := make([]model.Usuario, 0, len(r.usuarios))
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *stubUsuarioRepo) ListSancionados(_ context.Context, _ dto.PageFilter, ahora time.Time) ([]model.Usuario, int64, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Sancionado(ahora) {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubUsuarioRepo) Save(_ context.Context, _ *gorm.DB, u *model.Usuario) error {
	copia := *u
	r.usuarios[u.ID] = &copia
	return nil
}

func (r *stubUsuarioRepo) UpdateSancion(_ context.Context, _ *gorm.DB, id uuid.UUID, hasta *time.Time) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.SancionHasta = hasta
	return nil
}

func (r *stubUsuarioRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.usuarios, id)
	return nil
}

func (r *stubUsuarioRepo) Search(_ context.Context, q string, soloAlumnos bool, limit int) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if soloAlumnos && u.Rol != model.RolAlumno {
			continue
		}
		if strings.Contains(strings.ToLower(u.NombreCompleto()), strings.ToLower(q)) && len(out) < limit {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) CountSancionados(_ context.Context, ahora time.Time) (int64, error) {
	var n int64
	for _, u := range r.usuarios {
		if u.Sancionado(ahora) {
			n++
		}
	}
	return n, nil
}

func (r *stubUsuarioRepo) IDsPorTexto(_ context.Context, q string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, u := range r.usuarios {
		if strings.Contains(strings.ToLower(u.NombreCompleto()), strings.ToLower(q)) {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (r *stubUsuarioRepo) IDsPorRolCurso(_ context.Context, rol, curso string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, u := range r.usuarios {
		if rol != "" && string(u.Rol) != rol {
			continue
		}
		if curso != "" && (u.Curso == nil || *u.Curso != curso) {
			continue
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (r *stubUsuarioRepo) DB() *gorm.DB { return nil }

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// stubPrestamoRepo returns copies from FindByID so that a forgotten Save
// shows up as a failing assertion.
type stubPrestamoRepo struct {
	prestamos map[uuid.UUID]*model.Prestamo
}

func newStubPrestamoRepo() *stubPrestamoRepo {
	return &stubPrestamoRepo{prestamos: make(map[uuid.UUID]*model.Prestamo)}
}

func (r *stubPrestamoRepo) agregar(p *model.Prestamo) *model.Prestamo {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.prestamos[p.ID] = p
	return p
}

func (r *stubPrestamoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Prestamo) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	copia := *p
	r.prestamos[p.ID] = &copia
	return nil
}

func (r *stubPrestamoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Prestamo, error) {
	p, ok := r.prestamos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	return &copia, nil
}

func (r *stubPrestamoRepo) Save(_ context.Context, _ *gorm.DB, p *model.Prestamo) error {
	copia := *p
	r.prestamos[p.ID] = &copia
	return nil
}

func (r *stubPrestamoRepo) CountEnCurso(_ context.Context, usuarioID uuid.UUID) (int64, int64, error) {
	var libros, recursos int64
	for _, p := range r.prestamos {
		if p.UsuarioID != usuarioID || p.Estado != model.PrestamoEnCurso {
			continue
		}
		if p.ItemTipo == model.TipoEjemplar {
			libros++
		} else {
			recursos++
		}
	}
	return libros, recursos, nil
}

func (r *stubPrestamoRepo) ExisteEnCursoPorItem(_ context.Context, itemID uuid.UUID) (bool, error) {
	for _, p := range r.prestamos {
		if p.ItemID == itemID && p.Estado == model.PrestamoEnCurso {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPrestamoRepo) List(_ context.Context, filter dto.PrestamoFilter, ahora time.Time) ([]model.Prestamo, int64, error) {
	var out []model.Prestamo
	for _, p := range r.prestamos {
		if filter.SoloAtrasados && p.EstadoDerivado(ahora) != model.PrestamoAtrasado {
			continue
		}
		if filter.Estado != "" && string(p.EstadoDerivado(ahora)) != filter.Estado {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPrestamoRepo) ListPorUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Prestamo, error) {
	var out []model.Prestamo
	for _, p := range r.prestamos {
		if p.UsuarioID == usuarioID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPrestamoRepo) AtrasadosConUsuario(_ context.Context, ahora time.Time) ([]model.Prestamo, error) {
	var out []model.Prestamo
	for _, p := range r.prestamos {
		if p.Estado == model.PrestamoEnCurso && p.FechaVencimiento.Before(ahora) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPrestamoRepo) CountDesde(_ context.Context, inicio time.Time) (int64, error) {
	var n int64
	for _, p := range r.prestamos {
		if !p.FechaInicio.Before(inicio) {
			n++
		}
	}
	return n, nil
}

func (r *stubPrestamoRepo) CountAtrasados(_ context.Context, ahora time.Time) (int64, error) {
	var n int64
	for _, p := range r.prestamos {
		if p.Estado == model.PrestamoEnCurso && p.FechaVencimiento.Before(ahora) {
			n++
		}
	}
	return n, nil
}

func (r *stubPrestamoRepo) Report(_ context.Context, _ dto.ReporteFilter, usuarioIDs, itemIDs []uuid.UUID) ([]model.Prestamo, int64, error) {
	contiene := func(ids []uuid.UUID, id uuid.UUID) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	}
	var out []model.Prestamo
	for _, p := range r.prestamos {
		if usuarioIDs != nil && !contiene(usuarioIDs, p.UsuarioID) {
			continue
		}
		if itemIDs != nil && !contiene(itemIDs, p.ItemID) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPrestamoRepo) DB() *gorm.DB { return nil }

var _ repository.PrestamoRepository = (*stubPrestamoRepo)(nil)

// stubReservaRepo mirrors the loan stub for holds.
type stubReservaRepo struct {
	reservas map[uuid.UUID]*model.Reserva
}

func newStubReservaRepo() *stubReservaRepo {
	return &stubReservaRepo{reservas: make(map[uuid.UUID]*model.Reserva)}
}

func (r *stubReservaRepo) agregar(res *model.Reserva) *model.Reserva {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.reservas[res.ID] = res
	return res
}

func (r *stubReservaRepo) Create(_ context.Context, _ *gorm.DB, res *model.Reserva) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	copia := *res
	r.reservas[res.ID] = &copia
	return nil
}

func (r *stubReservaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reserva, error) {
	res, ok := r.reservas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *res
	return &copia, nil
}

func (r *stubReservaRepo) Save(_ context.Context, _ *gorm.DB, res *model.Reserva) error {
	copia := *res
	r.reservas[res.ID] = &copia
	return nil
}

func (r *stubReservaRepo) ListActivas(_ context.Context, _ dto.PageFilter) ([]model.Reserva, int64, error) {
	var out []model.Reserva
	for _, res := range r.reservas {
		if res.Estado == model.ReservaPendiente {
			out = append(out, *res)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubReservaRepo) ListPorUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Reserva, error) {
	var out []model.Reserva
	for _, res := range r.reservas {
		if res.UsuarioID == usuarioID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *stubReservaRepo) PendientesPorUsuario(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID) ([]model.Reserva, error) {
	var out []model.Reserva
	for _, res := range r.reservas {
		if res.UsuarioID == usuarioID && res.Estado == model.ReservaPendiente {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *stubReservaRepo) DeletePendientesPorUsuario(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID) error {
	for id, res := range r.reservas {
		if res.UsuarioID == usuarioID && res.Estado == model.ReservaPendiente {
			delete(r.reservas, id)
		}
	}
	return nil
}

func (r *stubReservaRepo) PendientesExpiradas(_ context.Context, ahora time.Time) ([]model.Reserva, error) {
	var out []model.Reserva
	for _, res := range r.reservas {
		if res.Estado == model.ReservaPendiente && res.ExpiraEn.Before(ahora) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *stubReservaRepo) ExistePendientePorItem(_ context.Context, itemID uuid.UUID) (bool, error) {
	for _, res := range r.reservas {
		if res.ItemID == itemID && res.Estado == model.ReservaPendiente {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubReservaRepo) CountDesde(_ context.Context, inicio time.Time) (int64, error) {
	var n int64
	for _, res := range r.reservas {
		if !res.FechaReserva.Before(inicio) {
			n++
		}
	}
	return n, nil
}

func (r *stubReservaRepo) DB() *gorm.DB { return nil }

var _ repository.ReservaRepository = (*stubReservaRepo)(nil)
