package handler

import (
	"errors"
	"net/http"
	"reflect"

	"bibliocra/internal/apierror"
	"bibliocra/internal/policy"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps domain errors to HTTP statuses. Unknown errors are pushed
// onto the Gin error list for the ErrorHandler middleware to log and mask.
func respondError(c *gin.Context, err error) {
	var sancion *service.SancionError
	var limite *policy.LimiteExcedidoError

	switch {
	case errors.Is(err, service.ErrUsuarioNoEncontrado),
		errors.Is(err, service.ErrPrestamoNoEncontrado),
		errors.Is(err, service.ErrReservaNoEncontrada),
		errors.Is(err, service.ErrLibroNoEncontrado),
		errors.Is(err, service.ErrRecursoNoEncontrado),
		errors.Is(err, service.ErrItemNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrItemNoDisponible),
		errors.Is(err, service.ErrPrestamoYaDevuelto),
		errors.Is(err, service.ErrPrestamoNoEnCurso),
		errors.Is(err, service.ErrReservaNoPendiente),
		errors.Is(err, service.ErrCorreoORUTDuplicado),
		errors.Is(err, service.ErrEliminarAdmin),
		errors.Is(err, service.ErrUsuarioConPrestamos),
		errors.Is(err, service.ErrItemEnUso),
		errors.Is(err, service.ErrItemConPrestamoActivo),
		errors.Is(err, service.ErrUltimaInstancia),
		errors.Is(err, service.ErrUltimaCopia):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &sancion), errors.As(err, &limite),
		errors.Is(err, service.ErrEstadoInvalido),
		errors.Is(err, service.ErrDiasRenovacion):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrAccesoNoAutorizado),
		errors.Is(err, service.ErrReporteNoAutorizado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCredenciales):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}

// parseID reads a uuid path parameter; writes the 400 response on failure.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}
