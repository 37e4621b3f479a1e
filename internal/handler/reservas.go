package handler

import (
	"net/http"

	"bibliocra/internal/dto"
	"bibliocra/internal/middleware"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservasHandler struct{ svc service.ReservaService }

func NewReservasHandler(svc service.ReservaService) *ReservasHandler {
	return &ReservasHandler{svc: svc}
}

// Crear godoc
// @Summary Reservar una copia
// @Description Aparta una copia disponible para el usuario autenticado. La reserva vence sola si no se retira.
// @Tags reservas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearReservaRequest true "Copia a reservar"
// @Success 201 {object} dto.ReservaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/reservas [post]
func (h *ReservasHandler) Crear(c *gin.Context) {
	var req dto.CrearReservaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Crear(c.Request.Context(), claims.UsuarioID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Confirmar godoc
// @Summary Confirmar retiro de una reserva
// @Description Convierte una reserva pendiente en préstamo al mostrador. Sanción y cupo se verifican igual que en un préstamo directo.
// @Tags reservas
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID de la reserva"
// @Success 201 {object} dto.PrestamoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/reservas/{id}/confirmar [post]
func (h *ReservasHandler) Confirmar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Confirmar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ReservasHandler) Cancelar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelarPropia only cancels reservations owned by the caller.
func (h *ReservasHandler) CancelarPropia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.svc.CancelarPropia(c.Request.Context(), claims.UsuarioID(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReservasHandler) Mis(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.MisReservas(c.Request.Context(), claims.UsuarioID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReservasHandler) ListarActivas(c *gin.Context) {
	var filter dto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ListarActivas(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
