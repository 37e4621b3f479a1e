package handler

import (
	"net/http"

	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
)

type RecursosHandler struct{ svc service.RecursoService }

func NewRecursosHandler(svc service.RecursoService) *RecursosHandler {
	return &RecursosHandler{svc: svc}
}

// Crear godoc
// @Summary Registrar recurso CRA
// @Description Alta de un recurso con sus unidades; cada unidad recibe un código interno correlativo por sede (RBB-001, RBM-042).
// @Tags recursos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearRecursoRequest true "Ficha del recurso"
// @Success 201 {object} dto.RecursoResponse
// @Router /v1/recursos [post]
func (h *RecursosHandler) Crear(c *gin.Context) {
	var req dto.CrearRecursoRequest
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

func (h *RecursosHandler) Listar(c *gin.Context) {
	var filter dto.PageFilter
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

func (h *RecursosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecursosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarRecursoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecursosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecursosHandler) AgregarInstancias(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AgregarInstanciasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarInstancias(c.Request.Context(), id, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RecursosHandler) ListarInstancias(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarInstancias(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstadoInstancia godoc
// @Summary Cambiar estado de una unidad
// @Description Ajuste manual del estado de una unidad (p.ej. enviar a mantenimiento).
// @Tags recursos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param instanciaId path string true "UUID de la unidad"
// @Param body body dto.CambiarEstadoInstanciaRequest true "Nuevo estado"
// @Success 200 {object} dto.InstanciaResponse
// @Router /v1/recursos/instancias/{instanciaId}/estado [patch]
func (h *RecursosHandler) CambiarEstadoInstancia(c *gin.Context) {
	id, ok := parseID(c, "instanciaId")
	if !ok {
		return
	}
	var req dto.CambiarEstadoInstanciaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstadoInstancia(c.Request.Context(), id, model.EstadoItem(req.Estado))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecursosHandler) EliminarInstancia(c *gin.Context) {
	id, ok := parseID(c, "instanciaId")
	if !ok {
		return
	}
	if err := h.svc.EliminarInstancia(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
