package service

import (
	"context"
	"testing"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// martes 10 de marzo de 2026, mediodía
var ahoraPrueba = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func prestamoServicePrueba(ahora time.Time) (*prestamoService, *stubPrestamoRepo, *stubUsuarioRepo, *stubItemRepo) {
	prestamos := newStubPrestamoRepo()
	usuarios := newStubUsuarioRepo()
	items := newStubItemRepo()
	svc := NewPrestamoService(prestamos, usuarios, items).(*prestamoService)
	svc.now = func() time.Time { return ahora }
	return svc, prestamos, usuarios, items
}

func alumnoPrueba(usuarios *stubUsuarioRepo) *model.Usuario {
	curso := "8°A"
	return usuarios.agregar(&model.Usuario{
		PrimerNombre:   "Martina",
		PrimerApellido: "Rojas",
		RUT:            "22333444-5",
		Correo:         "martina@colegio.cl",
		Rol:            model.RolAlumno,
		Curso:          &curso,
	})
}

func TestCrearPrestamoLibro(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemDisponible, "Papelucho (Copia #1)")

	resp, err := svc.Crear(context.Background(), dto.CrearPrestamoRequest{
		UsuarioID: usuario.ID.String(),
		ItemID:    itemID.String(),
		ItemTipo:  string(model.TipoEjemplar),
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.PrestamoEnCurso), resp.Estado)
	assert.Equal(t, "Papelucho (Copia #1)", resp.ItemDetalle.Etiqueta)
	// 10 días hábiles desde el martes 10 → martes 24
	assert.Equal(t, time.Date(2026, 3, 24, 12, 0, 0, 0, time.UTC), resp.FechaVencimiento)
	assert.Equal(t, model.ItemPrestado, items.estados[itemID])
	assert.Len(t, prestamos.prestamos, 1)
}

func TestCrearPrestamoUsuarioSancionado(t *testing.T) {
	svc, _, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	hasta := ahoraPrueba.AddDate(0, 0, 5)
	usuario := alumnoPrueba(usuarios)
	usuario.SancionHasta = &hasta
	itemID := uuid.New()
	items.agregar(itemID, model.ItemDisponible, "Papelucho (Copia #1)")

	_, err := svc.Crear(context.Background(), dto.CrearPrestamoRequest{
		UsuarioID: usuario.ID.String(),
		ItemID:    itemID.String(),
		ItemTipo:  string(model.TipoEjemplar),
	})

	var sancion *SancionError
	require.ErrorAs(t, err, &sancion)
	assert.Equal(t, hasta, sancion.Hasta)
	// El ítem no debe quedar tomado
	assert.Equal(t, model.ItemDisponible, items.estados[itemID])
}

// La sanción se evalúa antes que el límite: un sancionado que además está al
// tope recibe el error de sanción, no el de cupo.
func TestCrearPrestamoSancionAntesQueLimite(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	hasta := ahoraPrueba.AddDate(0, 0, 2)
	usuario := alumnoPrueba(usuarios)
	usuario.SancionHasta = &hasta
	for i := 0; i < 3; i++ {
		prestamos.agregar(&model.Prestamo{
			UsuarioID: usuario.ID,
			ItemID:    uuid.New(),
			ItemTipo:  model.TipoEjemplar,
			Estado:    model.PrestamoEnCurso,
		})
	}
	itemID := uuid.New()
	items.agregar(itemID, model.ItemDisponible, "Quique Hache (Copia #2)")

	_, err := svc.Crear(context.Background(), dto.CrearPrestamoRequest{
		UsuarioID: usuario.ID.String(),
		ItemID:    itemID.String(),
		ItemTipo:  string(model.TipoEjemplar),
	})

	var sancion *SancionError
	assert.ErrorAs(t, err, &sancion)
}

func TestCrearPrestamoLimiteAlcanzado(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	for i := 0; i < 3; i++ {
		prestamos.agregar(&model.Prestamo{
			UsuarioID: usuario.ID,
			ItemID:    uuid.New(),
			ItemTipo:  model.TipoEjemplar,
			Estado:    model.PrestamoEnCurso,
		})
	}
	itemID := uuid.New()
	items.agregar(itemID, model.ItemDisponible, "Papelucho (Copia #3)")

	_, err := svc.Crear(context.Background(), dto.CrearPrestamoRequest{
		UsuarioID: usuario.ID.String(),
		ItemID:    itemID.String(),
		ItemTipo:  string(model.TipoEjemplar),
	})

	var limite *policy.LimiteExcedidoError
	require.ErrorAs(t, err, &limite)
	assert.Equal(t, 3, limite.Limite)
	assert.Equal(t, model.ItemDisponible, items.estados[itemID])
}

// Los devueltos no cuentan para el cupo.
func TestCrearPrestamoDevueltosNoCuentan(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	for i := 0; i < 3; i++ {
		prestamos.agregar(&model.Prestamo{
			UsuarioID: usuario.ID,
			ItemID:    uuid.New(),
			ItemTipo:  model.TipoEjemplar,
			Estado:    model.PrestamoDevuelto,
		})
	}
	itemID := uuid.New()
	items.agregar(itemID, model.ItemDisponible, "Papelucho (Copia #1)")

	_, err := svc.Crear(context.Background(), dto.CrearPrestamoRequest{
		UsuarioID: usuario.ID.String(),
		ItemID:    itemID.String(),
		ItemTipo:  string(model.TipoEjemplar),
	})
	assert.NoError(t, err)
}

func TestCrearPrestamoItemNoDisponible(t *testing.T) {
	svc, _, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")

	_, err := svc.Crear(context.Background(), dto.CrearPrestamoRequest{
		UsuarioID: usuario.ID.String(),
		ItemID:    itemID.String(),
		ItemTipo:  string(model.TipoEjemplar),
	})
	assert.ErrorIs(t, err, ErrItemNoDisponible)
}

func TestDevolverATiempo(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaInicio:      ahoraPrueba.AddDate(0, 0, -3),
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, 7),
		Estado:           model.PrestamoEnCurso,
	})

	resp, err := svc.Devolver(context.Background(), prestamo.ID, dto.DevolverPrestamoRequest{})
	require.NoError(t, err)

	assert.Equal(t, string(model.PrestamoDevuelto), resp.Estado)
	require.NotNil(t, resp.FechaDevolucion)
	assert.Equal(t, ahoraPrueba, *resp.FechaDevolucion)
	assert.Equal(t, model.ItemDisponible, items.estados[itemID])
	// Devolución puntual: sin sanción
	guardado, _ := usuarios.FindByID(context.Background(), usuario.ID)
	assert.Nil(t, guardado.SancionHasta)
}

func TestDevolverAtrasadoSanciona(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, -5),
		Estado:           model.PrestamoEnCurso,
	})

	_, err := svc.Devolver(context.Background(), prestamo.ID, dto.DevolverPrestamoRequest{})
	require.NoError(t, err)

	// 5 días de atraso → sanción de 5 días desde hoy
	guardado, _ := usuarios.FindByID(context.Background(), usuario.ID)
	require.NotNil(t, guardado.SancionHasta)
	assert.Equal(t, ahoraPrueba.AddDate(0, 0, 5), *guardado.SancionHasta)
}

// Una sanción vigente más larga no se acorta por un atraso menor.
func TestDevolverAtrasadoNoAcortaSancion(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	hastaExistente := ahoraPrueba.AddDate(0, 0, 30)
	usuario.SancionHasta = &hastaExistente
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, -2),
		Estado:           model.PrestamoEnCurso,
	})

	_, err := svc.Devolver(context.Background(), prestamo.ID, dto.DevolverPrestamoRequest{})
	require.NoError(t, err)

	guardado, _ := usuarios.FindByID(context.Background(), usuario.ID)
	require.NotNil(t, guardado.SancionHasta)
	assert.Equal(t, hastaExistente, *guardado.SancionHasta)
}

func TestDevolverConEstadoDeteriorado(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, 7),
		Estado:           model.PrestamoEnCurso,
	})

	_, err := svc.Devolver(context.Background(), prestamo.ID, dto.DevolverPrestamoRequest{
		NuevoEstado:   string(model.ItemDeteriorado),
		Observaciones: "tapa rota",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ItemDeteriorado, items.estados[itemID])
}

func TestDevolverEstadoInvalido(t *testing.T) {
	svc, _, _, _ := prestamoServicePrueba(ahoraPrueba)
	_, err := svc.Devolver(context.Background(), uuid.New(), dto.DevolverPrestamoRequest{
		NuevoEstado: string(model.ItemReservado),
	})
	assert.ErrorIs(t, err, ErrEstadoInvalido)
}

func TestDevolverDosVeces(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, 7),
		Estado:           model.PrestamoEnCurso,
	})

	_, err := svc.Devolver(context.Background(), prestamo.ID, dto.DevolverPrestamoRequest{})
	require.NoError(t, err)
	_, err = svc.Devolver(context.Background(), prestamo.ID, dto.DevolverPrestamoRequest{})
	assert.ErrorIs(t, err, ErrPrestamoYaDevuelto)
}

func TestRenovarExtiendeDiasHabiles(t *testing.T) {
	svc, prestamos, usuarios, _ := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	// vence el viernes 13
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           uuid.New(),
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC),
		Estado:           model.PrestamoEnCurso,
	})

	_, err := svc.Renovar(context.Background(), prestamo.ID, 3)
	require.NoError(t, err)

	// viernes 13 + 3 hábiles = miércoles 18 (fin de semana no cuenta)
	guardado, _ := prestamos.FindByID(context.Background(), prestamo.ID)
	assert.Equal(t, time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC), guardado.FechaVencimiento)
}

func TestRenovarDevuelto(t *testing.T) {
	svc, prestamos, usuarios, _ := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           uuid.New(),
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba,
		Estado:           model.PrestamoDevuelto,
	})

	_, err := svc.Renovar(context.Background(), prestamo.ID, 3)
	assert.ErrorIs(t, err, ErrPrestamoNoEnCurso)
}

func TestRenovarDiasInvalidos(t *testing.T) {
	svc, prestamos, usuarios, _ := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           uuid.New(),
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, 7),
		Estado:           model.PrestamoEnCurso,
	})

	_, err := svc.Renovar(context.Background(), prestamo.ID, 0)
	assert.ErrorIs(t, err, ErrDiasRenovacion)

	_, err = svc.Renovar(context.Background(), prestamo.ID, -3)
	assert.ErrorIs(t, err, ErrDiasRenovacion)
}

// Un préstamo cuyo ítem fue borrado del catálogo se sigue listando, con la
// etiqueta sustituta.
func TestListarPrestamoHuerfano(t *testing.T) {
	svc, prestamos, usuarios, _ := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           uuid.New(), // no existe en items
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, 7),
		Estado:           model.PrestamoEnCurso,
	})

	resp, err := svc.MisPrestamos(context.Background(), usuario.ID)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, EtiquetaItemEliminado, resp[0].ItemDetalle.Etiqueta)
}

// atrasado nunca se guarda: se deriva al momento de leer.
func TestEstadoAtrasadoDerivado(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamo := prestamos.agregar(&model.Prestamo{
		UsuarioID:        usuario.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, -1),
		Estado:           model.PrestamoEnCurso,
	})

	resp, err := svc.MisPrestamos(context.Background(), usuario.ID)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, string(model.PrestamoAtrasado), resp[0].Estado)

	// En la base sigue enCurso
	guardado, _ := prestamos.FindByID(context.Background(), prestamo.ID)
	assert.Equal(t, model.PrestamoEnCurso, guardado.Estado)
}

func TestListarPorUsuarioAjenoNoAdmin(t *testing.T) {
	svc, _, usuarios, _ := prestamoServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	otro := uuid.New()

	_, err := svc.ListarPorUsuario(context.Background(), usuario.ID, model.RolProfesor, otro)
	assert.ErrorIs(t, err, ErrAccesoNoAutorizado)
}

// El personal del mesón consulta el historial de cualquier usuario, igual que
// un administrador.
func TestListarPorUsuarioPersonalDeMeson(t *testing.T) {
	svc, prestamos, usuarios, items := prestamoServicePrueba(ahoraPrueba)
	alumno := alumnoPrueba(usuarios)
	operador := usuarios.agregar(&model.Usuario{
		PrimerNombre: "Carla", PrimerApellido: "Soto",
		RUT: "14555666-7", Correo: "carla@colegio.cl", Rol: model.RolPersonal,
	})

	itemID := uuid.New()
	items.agregar(itemID, model.ItemPrestado, "Papelucho (Copia #1)")
	prestamos.agregar(&model.Prestamo{
		UsuarioID:        alumno.ID,
		ItemID:           itemID,
		ItemTipo:         model.TipoEjemplar,
		FechaVencimiento: ahoraPrueba.AddDate(0, 0, 7),
		Estado:           model.PrestamoEnCurso,
	})

	resp, err := svc.ListarPorUsuario(context.Background(), operador.ID, model.RolPersonal, alumno.ID)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, alumno.ID.String(), resp[0].UsuarioID)
}
