package handler

import (
	"net/http"

	"bibliocra/internal/dto"
	"bibliocra/internal/middleware"
	"bibliocra/internal/model"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
)

type PrestamosHandler struct{ svc service.PrestamoService }

func NewPrestamosHandler(svc service.PrestamoService) *PrestamosHandler {
	return &PrestamosHandler{svc: svc}
}

// Crear godoc
// @Summary Registrar préstamo
// @Description Presta una copia disponible a un usuario. Verifica sanción vigente, cupo por rol y disponibilidad de la copia, en ese orden.
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPrestamoRequest true "Usuario y copia"
// @Success 201 {object} dto.PrestamoResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/prestamos [post]
func (h *PrestamosHandler) Crear(c *gin.Context) {
	var req dto.CrearPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Devolver godoc
// @Summary Registrar devolución
// @Description Cierra el préstamo. Una devolución tardía extiende la sanción del usuario; devolver dos veces es un error.
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del préstamo"
// @Param body body dto.DevolverPrestamoRequest false "Estado final de la copia"
// @Success 200 {object} dto.PrestamoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/prestamos/{id}/devolver [post]
func (h *PrestamosHandler) Devolver(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.DevolverPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Devolver(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrestamosHandler) Renovar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.RenovarPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Renovar(c.Request.Context(), id, req.Dias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrestamosHandler) Listar(c *gin.Context) {
	var filter dto.PrestamoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrestamosHandler) ListarAtrasados(c *gin.Context) {
	var filter dto.PrestamoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ListarAtrasados(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PorUsuario only lets staff read other borrowers' histories.
func (h *PrestamosHandler) PorUsuario(c *gin.Context) {
	usuarioID, ok := parseID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ListarPorUsuario(c.Request.Context(), claims.UsuarioID(), model.Rol(claims.Rol), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrestamosHandler) Mis(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.MisPrestamos(c.Request.Context(), claims.UsuarioID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
