package service

import (
	"context"
	"time"

	"bibliocra/internal/config"
	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
}

type authService struct {
	usuarios repository.UsuarioRepository
	cfg      *config.Config
}

func NewAuthService(usuarios repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{usuarios: usuarios, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	usuario, err := s.usuarios.FindByCorreo(ctx, req.Correo)
	if err != nil {
		return nil, ErrCredenciales
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usuario.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredenciales
	}
	return s.buildResponse(usuario)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrCredenciales
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrCredenciales
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrCredenciales
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrCredenciales
	}

	usuario, err := s.usuarios.FindByID(ctx, uid)
	if err != nil {
		return nil, ErrUsuarioNoEncontrado
	}
	return s.buildResponse(usuario)
}

func (s *authService) buildResponse(usuario *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(usuario, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(usuario, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         dto.ToUsuarioResponse(usuario),
	}, nil
}

func (s *authService) generateToken(usuario *model.Usuario, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": usuario.ID.String(),
		"correo":  usuario.Correo,
		"rol":     string(usuario.Rol),
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
