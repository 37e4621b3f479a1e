package policy

import (
	"testing"

	"bibliocra/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_SinPrestamosSiempreValido(t *testing.T) {
	for _, rol := range []model.Rol{model.RolAlumno, model.RolProfesor, model.RolPersonal, model.RolAdmin} {
		assert.NoError(t, Check(rol, model.TipoEjemplar, 0, 0), "rol %s", rol)
		assert.NoError(t, Check(rol, model.TipoRecurso, 0, 0), "rol %s", rol)
	}
}

func TestCheck_AlumnoEnElLimiteDeLibros(t *testing.T) {
	lim, ok := LimitesParaRol(model.RolAlumno)
	require.True(t, ok)

	assert.NoError(t, Check(model.RolAlumno, model.TipoEjemplar, lim.MaxLibros-1, 0))

	err := Check(model.RolAlumno, model.TipoEjemplar, lim.MaxLibros, 0)
	require.Error(t, err)
	var le *LimiteExcedidoError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, lim.MaxLibros, le.Limite)
	assert.Contains(t, err.Error(), "límite")
}

func TestCheck_LimitesIndependientesPorClase(t *testing.T) {
	// libros al tope no bloquea recursos, y viceversa
	lim, _ := LimitesParaRol(model.RolAlumno)
	assert.NoError(t, Check(model.RolAlumno, model.TipoRecurso, lim.MaxLibros, 0))
	assert.Error(t, Check(model.RolAlumno, model.TipoRecurso, 0, lim.MaxRecursos))
}

func TestCheck_ProfesorSuperaAlAlumno(t *testing.T) {
	alumno, _ := LimitesParaRol(model.RolAlumno)
	profesor, _ := LimitesParaRol(model.RolProfesor)
	assert.Greater(t, profesor.MaxLibros, alumno.MaxLibros)
	assert.Greater(t, profesor.MaxRecursos, alumno.MaxRecursos)

	// una carga que bloquea a un alumno no bloquea a un profesor
	assert.Error(t, Check(model.RolAlumno, model.TipoEjemplar, alumno.MaxLibros, 0))
	assert.NoError(t, Check(model.RolProfesor, model.TipoEjemplar, alumno.MaxLibros, 0))
}

func TestCheck_RolDesconocido(t *testing.T) {
	assert.Error(t, Check(model.Rol("visitante"), model.TipoEjemplar, 0, 0))
	assert.Error(t, Check(model.RolAlumno, model.TipoItem("otro"), 0, 0))
}
