package service

import (
	"context"
	"testing"

	"bibliocra/internal/config"
	"bibliocra/internal/dto"
	"bibliocra/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authServicePrueba() (AuthService, *stubUsuarioRepo) {
	usuarios := newStubUsuarioRepo()
	cfg := &config.Config{
		JWTSecret:          "secreto-de-prueba",
		JWTExpirationHours: 5,
		JWTRefreshHours:    24,
	}
	return NewAuthService(usuarios, cfg), usuarios
}

func usuarioConClave(usuarios *stubUsuarioRepo, correo, clave string) *model.Usuario {
	hash, _ := bcrypt.GenerateFromPassword([]byte(clave), bcrypt.MinCost)
	return usuarios.agregar(&model.Usuario{
		PrimerNombre:   "Carla",
		PrimerApellido: "Vidal",
		RUT:            "14555666-7",
		Correo:         correo,
		PasswordHash:   string(hash),
		Rol:            model.RolPersonal,
	})
}

func TestLogin(t *testing.T) {
	svc, usuarios := authServicePrueba()
	usuarioConClave(usuarios, "carla@colegio.cl", "clave1234")

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Correo:   "carla@colegio.cl",
		Password: "clave1234",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 5*3600, resp.ExpiresIn)
	assert.Equal(t, "carla@colegio.cl", resp.User.Correo)
}

func TestLoginClaveIncorrecta(t *testing.T) {
	svc, usuarios := authServicePrueba()
	usuarioConClave(usuarios, "carla@colegio.cl", "clave1234")

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Correo:   "carla@colegio.cl",
		Password: "otra-clave",
	})
	assert.ErrorIs(t, err, ErrCredenciales)
}

// Correo inexistente y clave incorrecta responden igual.
func TestLoginCorreoInexistente(t *testing.T) {
	svc, _ := authServicePrueba()

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Correo:   "nadie@colegio.cl",
		Password: "clave1234",
	})
	assert.ErrorIs(t, err, ErrCredenciales)
}

func TestRefresh(t *testing.T) {
	svc, usuarios := authServicePrueba()
	usuarioConClave(usuarios, "carla@colegio.cl", "clave1234")

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Correo:   "carla@colegio.cl",
		Password: "clave1234",
	})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "carla@colegio.cl", resp.User.Correo)
}

func TestRefreshTokenInvalido(t *testing.T) {
	svc, _ := authServicePrueba()

	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	assert.ErrorIs(t, err, ErrCredenciales)
}
