package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubRecursoRepo keeps resource definitions and coded units; the code
// sequence derives from the highest existing code per prefix, like the SQL
// implementation.
type stubRecursoRepo struct {
	recursos   map[uuid.UUID]*model.RecursoCRA
	instancias map[uuid.UUID]*model.InstanciaRecurso
}

func newStubRecursoRepo() *stubRecursoRepo {
	return &stubRecursoRepo{
		recursos:   make(map[uuid.UUID]*model.RecursoCRA),
		instancias: make(map[uuid.UUID]*model.InstanciaRecurso),
	}
}

func (r *stubRecursoRepo) Create(_ context.Context, _ *gorm.DB, rec *model.RecursoCRA) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	copia := *rec
	r.recursos[rec.ID] = &copia
	return nil
}

func (r *stubRecursoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RecursoCRA, error) {
	rec, ok := r.recursos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *rec
	return &copia, nil
}

func (r *stubRecursoRepo) List(_ context.Context, _ dto.PageFilter) ([]model.RecursoCRA, int64, error) {
	out := make([]model.RecursoCRA, 0, len(r.recursos))
	for _, rec := range r.recursos {
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *stubRecursoRepo) Save(_ context.Context, _ *gorm.DB, rec *model.RecursoCRA) error {
	copia := *rec
	r.recursos[rec.ID] = &copia
	return nil
}

func (r *stubRecursoRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.recursos, id)
	return nil
}

func (r *stubRecursoRepo) IDsPorNombre(_ context.Context, q string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, rec := range r.recursos {
		if strings.Contains(strings.ToLower(rec.Nombre), strings.ToLower(q)) {
			ids = append(ids, rec.ID)
		}
	}
	return ids, nil
}

func (r *stubRecursoRepo) SearchPorNombre(_ context.Context, q string, limit int) ([]model.RecursoCRA, error) {
	var out []model.RecursoCRA
	for _, rec := range r.recursos {
		if strings.Contains(strings.ToLower(rec.Nombre), strings.ToLower(q)) && len(out) < limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubRecursoRepo) CrearInstancias(_ context.Context, _ *gorm.DB, instancias []model.InstanciaRecurso) error {
	for i := range instancias {
		if instancias[i].ID == uuid.Nil {
			instancias[i].ID = uuid.New()
		}
		copia := instancias[i]
		r.instancias[copia.ID] = &copia
	}
	return nil
}

func (r *stubRecursoRepo) FindInstancia(_ context.Context, id uuid.UUID) (*model.InstanciaRecurso, error) {
	ins, ok := r.instancias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *ins
	return &copia, nil
}

func (r *stubRecursoRepo) ListInstancias(_ context.Context, recursoID uuid.UUID) ([]model.InstanciaRecurso, error) {
	var out []model.InstanciaRecurso
	for _, ins := range r.instancias {
		if ins.RecursoID == recursoID {
			out = append(out, *ins)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CodigoInterno < out[j].CodigoInterno })
	return out, nil
}

func (r *stubRecursoRepo) CountInstancias(_ context.Context, recursoID uuid.UUID) (int64, error) {
	var n int64
	for _, ins := range r.instancias {
		if ins.RecursoID == recursoID {
			n++
		}
	}
	return n, nil
}

func (r *stubRecursoRepo) ConteoInstancias(_ context.Context, recursoID uuid.UUID) (repository.ConteoCopias, error) {
	var c repository.ConteoCopias
	for _, ins := range r.instancias {
		if ins.RecursoID != recursoID {
			continue
		}
		c.Total++
		if ins.Estado == model.ItemDisponible {
			c.Disponibles++
		}
	}
	return c, nil
}

func (r *stubRecursoRepo) DeleteInstancia(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.instancias, id)
	return nil
}

func (r *stubRecursoRepo) DeleteInstanciasLibres(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		if ins, ok := r.instancias[id]; ok && ins.Estado == model.ItemDisponible {
			delete(r.instancias, id)
		}
	}
	return nil
}

func (r *stubRecursoRepo) DeleteInstanciasDeRecurso(_ context.Context, _ *gorm.DB, recursoID uuid.UUID) error {
	for id, ins := range r.instancias {
		if ins.RecursoID == recursoID {
			delete(r.instancias, id)
		}
	}
	return nil
}

func (r *stubRecursoRepo) SiguienteNumeroCodigo(_ context.Context, _ *gorm.DB, prefijo string) (int, error) {
	max := 0
	for _, ins := range r.instancias {
		if !strings.HasPrefix(ins.CodigoInterno, prefijo+"-") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(ins.CodigoInterno, prefijo+"-"))
		if err != nil {
			return 0, fmt.Errorf("código interno malformado %q: %w", ins.CodigoInterno, err)
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

func (r *stubRecursoRepo) PrimeraInstanciaDisponible(_ context.Context, recursoID uuid.UUID) (*model.InstanciaRecurso, error) {
	instancias, _ := r.ListInstancias(context.Background(), recursoID)
	for i := range instancias {
		if instancias[i].Estado == model.ItemDisponible {
			return &instancias[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRecursoRepo) UpdateEstadoInstancia(_ context.Context, id uuid.UUID, estado model.EstadoItem) (*model.InstanciaRecurso, error) {
	ins, ok := r.instancias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	ins.Estado = estado
	copia := *ins
	return &copia, nil
}

func (r *stubRecursoRepo) DB() *gorm.DB { return nil }

var _ repository.RecursoRepository = (*stubRecursoRepo)(nil)

func recursoDataPrueba(sede string) dto.RecursoData {
	return dto.RecursoData{
		Nombre:    "Ajedrez",
		Categoria: "Juegos de mesa",
		Sede:      sede,
	}
}

func TestCrearRecursoGeneraCodigos(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	resp, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso:            recursoDataPrueba("Media"),
		CantidadInstancias: 3,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	instancias, err := svc.ListarInstancias(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, instancias, 3)
	assert.Equal(t, "RBM-001", instancias[0].CodigoInterno)
	assert.Equal(t, "RBM-002", instancias[1].CodigoInterno)
	assert.Equal(t, "RBM-003", instancias[2].CodigoInterno)
}

// La secuencia de códigos es por sede, no por recurso: un segundo recurso de
// la misma sede continúa donde quedó el primero.
func TestCodigosCompartidosPorSede(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	_, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso:            recursoDataPrueba("Media"),
		CantidadInstancias: 2,
	})
	require.NoError(t, err)

	resp, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso: dto.RecursoData{
			Nombre:    "Tablet",
			Categoria: "Tecnología",
			Sede:      "Media",
		},
		CantidadInstancias: 1,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	instancias, _ := svc.ListarInstancias(context.Background(), id)
	require.Len(t, instancias, 1)
	assert.Equal(t, "RBM-003", instancias[0].CodigoInterno)
}

func TestCodigosSedeBasica(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	resp, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso:            recursoDataPrueba("Básica"),
		CantidadInstancias: 1,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	instancias, _ := svc.ListarInstancias(context.Background(), id)
	require.Len(t, instancias, 1)
	assert.Equal(t, "RBB-001", instancias[0].CodigoInterno)
}

func TestEliminarUltimaInstancia(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	resp, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso:            recursoDataPrueba("Media"),
		CantidadInstancias: 1,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	instancias, _ := svc.ListarInstancias(context.Background(), id)
	iid, _ := uuid.Parse(instancias[0].ID)

	err = svc.EliminarInstancia(context.Background(), iid)
	assert.ErrorIs(t, err, ErrUltimaInstancia)
}

func TestEliminarInstanciaEnUso(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	resp, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso:            recursoDataPrueba("Media"),
		CantidadInstancias: 2,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	instancias, _ := svc.ListarInstancias(context.Background(), id)
	iid, _ := uuid.Parse(instancias[0].ID)
	recursos.instancias[iid].Estado = model.ItemPrestado

	err = svc.EliminarInstancia(context.Background(), iid)
	assert.ErrorIs(t, err, ErrItemEnUso)
}

func TestCambiarEstadoInstanciaInvalido(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	_, err := svc.CambiarEstadoInstancia(context.Background(), uuid.New(), "roto")
	assert.ErrorIs(t, err, ErrEstadoInvalido)
}

func TestCambiarEstadoInstanciaMantenimiento(t *testing.T) {
	recursos := newStubRecursoRepo()
	svc := NewRecursoService(recursos)

	resp, err := svc.Crear(context.Background(), dto.CrearRecursoRequest{
		Recurso:            recursoDataPrueba("Media"),
		CantidadInstancias: 1,
	})
	require.NoError(t, err)

	id, _ := uuid.Parse(resp.ID)
	instancias, _ := svc.ListarInstancias(context.Background(), id)
	iid, _ := uuid.Parse(instancias[0].ID)

	actualizado, err := svc.CambiarEstadoInstancia(context.Background(), iid, model.ItemMantenimiento)
	require.NoError(t, err)
	assert.Equal(t, string(model.ItemMantenimiento), actualizado.Estado)
}
