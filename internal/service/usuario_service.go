package service

import (
	"context"
	"errors"
	"time"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UsuarioService interface {
	Crear(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
	Listar(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.UsuarioResponse], error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	// Eliminar rejects admins and users with open loans; pending reservations
	// are cancelled and their copies freed in the same transaction.
	Eliminar(ctx context.Context, id uuid.UUID) error
	Sancionados(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.SancionadoResponse], error)
	QuitarSancion(ctx context.Context, id uuid.UUID) error
	Me(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
}

type usuarioService struct {
	usuarios  repository.UsuarioRepository
	prestamos repository.PrestamoRepository
	reservas  repository.ReservaRepository
	items     repository.ItemRepository

	now func() time.Time
}

func NewUsuarioService(
	usuarios repository.UsuarioRepository,
	prestamos repository.PrestamoRepository,
	reservas repository.ReservaRepository,
	items repository.ItemRepository,
) UsuarioService {
	return &usuarioService{
		usuarios:  usuarios,
		prestamos: prestamos,
		reservas:  reservas,
		items:     items,
		now:       time.Now,
	}
}

func (s *usuarioService) Crear(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	existe, err := s.usuarios.ExisteCorreoORUT(ctx, req.Correo, req.RUT)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrCorreoORUTDuplicado
	}

	// Sin clave explícita el RUT es la clave inicial.
	password := req.Password
	if password == "" {
		password = req.RUT
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	usuario := &model.Usuario{
		PrimerNombre:    req.PrimerNombre,
		SegundoNombre:   req.SegundoNombre,
		PrimerApellido:  req.PrimerApellido,
		SegundoApellido: req.SegundoApellido,
		RUT:             req.RUT,
		Correo:          req.Correo,
		PasswordHash:    string(hash),
		Rol:             model.Rol(req.Rol),
		Curso:           req.Curso,
	}
	if err := s.usuarios.Create(ctx, usuario); err != nil {
		return nil, err
	}

	resp := dto.ToUsuarioResponse(usuario)
	return &resp, nil
}

func (s *usuarioService) Obtener(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	usuario, err := s.usuarios.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsuarioNoEncontrado
		}
		return nil, err
	}
	resp := dto.ToUsuarioResponse(usuario)
	return &resp, nil
}

func (s *usuarioService) Listar(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.UsuarioResponse], error) {
	filter.Normalize()
	usuarios, total, err := s.usuarios.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]dto.UsuarioResponse, 0, len(usuarios))
	for i := range usuarios {
		docs = append(docs, dto.ToUsuarioResponse(&usuarios[i]))
	}
	page := dto.NewPage(docs, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *usuarioService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	usuario, err := s.usuarios.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsuarioNoEncontrado
		}
		return nil, err
	}

	if req.PrimerNombre != "" {
		usuario.PrimerNombre = req.PrimerNombre
	}
	if req.SegundoNombre != nil {
		usuario.SegundoNombre = req.SegundoNombre
	}
	if req.PrimerApellido != "" {
		usuario.PrimerApellido = req.PrimerApellido
	}
	if req.SegundoApellido != nil {
		usuario.SegundoApellido = req.SegundoApellido
	}
	if req.Correo != "" && req.Correo != usuario.Correo {
		existe, err := s.usuarios.ExisteCorreoORUT(ctx, req.Correo, "")
		if err != nil {
			return nil, err
		}
		if existe {
			return nil, ErrCorreoORUTDuplicado
		}
		usuario.Correo = req.Correo
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		usuario.PasswordHash = string(hash)
	}
	if req.Rol != "" {
		usuario.Rol = model.Rol(req.Rol)
	}
	if req.Curso != nil {
		usuario.Curso = req.Curso
	}

	if err := s.usuarios.Save(ctx, nil, usuario); err != nil {
		return nil, err
	}
	resp := dto.ToUsuarioResponse(usuario)
	return &resp, nil
}

func (s *usuarioService) Eliminar(ctx context.Context, id uuid.UUID) error {
	usuario, err := s.usuarios.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUsuarioNoEncontrado
		}
		return err
	}
	if usuario.Rol == model.RolAdmin {
		return ErrEliminarAdmin
	}

	libros, recursos, err := s.prestamos.CountEnCurso(ctx, id)
	if err != nil {
		return err
	}
	if libros+recursos > 0 {
		return ErrUsuarioConPrestamos
	}

	return runTx(ctx, s.usuarios.DB(), func(tx *gorm.DB) error {
		pendientes, err := s.reservas.PendientesPorUsuario(ctx, tx, id)
		if err != nil {
			return err
		}
		for i := range pendientes {
			if _, err := s.items.Claim(ctx, tx, pendientes[i].Item(), model.ItemReservado, model.ItemDisponible); err != nil {
				return err
			}
		}
		if err := s.reservas.DeletePendientesPorUsuario(ctx, tx, id); err != nil {
			return err
		}
		return s.usuarios.Delete(ctx, tx, id)
	})
}

func (s *usuarioService) Sancionados(ctx context.Context, filter dto.PageFilter) (*dto.Page[dto.SancionadoResponse], error) {
	filter.Normalize()
	usuarios, total, err := s.usuarios.ListSancionados(ctx, filter, s.now())
	if err != nil {
		return nil, err
	}
	docs := make([]dto.SancionadoResponse, 0, len(usuarios))
	for i := range usuarios {
		u := &usuarios[i]
		docs = append(docs, dto.SancionadoResponse{
			ID:             u.ID.String(),
			PrimerNombre:   u.PrimerNombre,
			PrimerApellido: u.PrimerApellido,
			RUT:            u.RUT,
			SancionHasta:   *u.SancionHasta,
		})
	}
	page := dto.NewPage(docs, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *usuarioService) QuitarSancion(ctx context.Context, id uuid.UUID) error {
	if _, err := s.usuarios.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUsuarioNoEncontrado
		}
		return err
	}
	return s.usuarios.UpdateSancion(ctx, nil, id, nil)
}

func (s *usuarioService) Me(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	return s.Obtener(ctx, id)
}
