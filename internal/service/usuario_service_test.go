package service

import (
	"context"
	"testing"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func usuarioServicePrueba(ahora time.Time) (*usuarioService, *stubUsuarioRepo, *stubPrestamoRepo, *stubReservaRepo, *stubItemRepo) {
	usuarios := newStubUsuarioRepo()
	prestamos := newStubPrestamoRepo()
	reservas := newStubReservaRepo()
	items := newStubItemRepo()
	svc := NewUsuarioService(usuarios, prestamos, reservas, items).(*usuarioService)
	svc.now = func() time.Time { return ahora }
	return svc, usuarios, prestamos, reservas, items
}

func TestCrearUsuarioPasswordPorDefecto(t *testing.T) {
	svc, usuarios, _, _, _ := usuarioServicePrueba(ahoraPrueba)

	resp, err := svc.Crear(context.Background(), dto.CrearUsuarioRequest{
		PrimerNombre:   "Pedro",
		PrimerApellido: "Soto",
		RUT:            "11222333-4",
		Correo:         "pedro@colegio.cl",
		Rol:            string(model.RolAlumno),
	})
	require.NoError(t, err)

	// Sin clave explícita, el RUT es la clave inicial
	id, _ := uuid.Parse(resp.ID)
	guardado, _ := usuarios.FindByID(context.Background(), id)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(guardado.PasswordHash), []byte("11222333-4")))
}

func TestCrearUsuarioCorreoDuplicado(t *testing.T) {
	svc, usuarios, _, _, _ := usuarioServicePrueba(ahoraPrueba)
	alumnoPrueba(usuarios)

	_, err := svc.Crear(context.Background(), dto.CrearUsuarioRequest{
		PrimerNombre:   "Otra",
		PrimerApellido: "Persona",
		RUT:            "99888777-6",
		Correo:         "martina@colegio.cl",
		Rol:            string(model.RolAlumno),
	})
	assert.ErrorIs(t, err, ErrCorreoORUTDuplicado)
}

func TestActualizarUsuarioCorreoDuplicado(t *testing.T) {
	svc, usuarios, _, _, _ := usuarioServicePrueba(ahoraPrueba)
	alumnoPrueba(usuarios)
	otro := usuarios.agregar(&model.Usuario{
		PrimerNombre:   "Pedro",
		PrimerApellido: "Soto",
		RUT:            "11222333-4",
		Correo:         "pedro@colegio.cl",
		Rol:            model.RolAlumno,
	})

	_, err := svc.Actualizar(context.Background(), otro.ID, dto.ActualizarUsuarioRequest{
		Correo: "martina@colegio.cl",
	})
	assert.ErrorIs(t, err, ErrCorreoORUTDuplicado)
}

func TestEliminarAdminRechazado(t *testing.T) {
	svc, usuarios, _, _, _ := usuarioServicePrueba(ahoraPrueba)
	admin := usuarios.agregar(&model.Usuario{
		PrimerNombre:   "Ana",
		PrimerApellido: "Pérez",
		RUT:            "10111222-3",
		Correo:         "ana@colegio.cl",
		Rol:            model.RolAdmin,
	})

	err := svc.Eliminar(context.Background(), admin.ID)
	assert.ErrorIs(t, err, ErrEliminarAdmin)
}

func TestEliminarUsuarioConPrestamosActivos(t *testing.T) {
	svc, usuarios, prestamos, _, _ := usuarioServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	prestamos.agregar(&model.Prestamo{
		UsuarioID: usuario.ID,
		ItemID:    uuid.New(),
		ItemTipo:  model.TipoEjemplar,
		Estado:    model.PrestamoEnCurso,
	})

	err := svc.Eliminar(context.Background(), usuario.ID)
	assert.ErrorIs(t, err, ErrUsuarioConPrestamos)
}

// Al eliminar un usuario, sus reservas pendientes se descartan y los ítems
// retenidos vuelven a estar disponibles.
func TestEliminarUsuarioLiberaReservas(t *testing.T) {
	svc, usuarios, _, reservas, items := usuarioServicePrueba(ahoraPrueba)
	usuario := alumnoPrueba(usuarios)
	itemID := uuid.New()
	items.agregar(itemID, model.ItemReservado, "Atlas escolar (RBM-001)")
	reservas.agregar(&model.Reserva{
		UsuarioID: usuario.ID,
		ItemID:    itemID,
		ItemTipo:  model.TipoRecurso,
		ExpiraEn:  ahoraPrueba.Add(24 * time.Hour),
		Estado:    model.ReservaPendiente,
	})

	require.NoError(t, svc.Eliminar(context.Background(), usuario.ID))

	assert.Equal(t, model.ItemDisponible, items.estados[itemID])
	assert.Empty(t, reservas.reservas)
	_, err := usuarios.FindByID(context.Background(), usuario.ID)
	assert.Error(t, err)
}

func TestQuitarSancion(t *testing.T) {
	svc, usuarios, _, _, _ := usuarioServicePrueba(ahoraPrueba)
	hasta := ahoraPrueba.AddDate(0, 0, 10)
	usuario := alumnoPrueba(usuarios)
	usuario.SancionHasta = &hasta

	require.NoError(t, svc.QuitarSancion(context.Background(), usuario.ID))

	guardado, _ := usuarios.FindByID(context.Background(), usuario.ID)
	assert.Nil(t, guardado.SancionHasta)
}

func TestSancionados(t *testing.T) {
	svc, usuarios, _, _, _ := usuarioServicePrueba(ahoraPrueba)
	hasta := ahoraPrueba.AddDate(0, 0, 3)
	sancionado := alumnoPrueba(usuarios)
	sancionado.SancionHasta = &hasta
	expirada := ahoraPrueba.AddDate(0, 0, -1)
	usuarios.agregar(&model.Usuario{
		PrimerNombre:   "Pedro",
		PrimerApellido: "Soto",
		RUT:            "11222333-4",
		Correo:         "pedro@colegio.cl",
		Rol:            model.RolAlumno,
		SancionHasta:   &expirada, // sanción ya vencida, no debe aparecer
	})

	page, err := svc.Sancionados(context.Background(), dto.PageFilter{})
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, sancionado.ID.String(), page.Docs[0].ID)
}
