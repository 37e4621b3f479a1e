package handler

import (
	"net/http"

	"bibliocra/internal/dto"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
)

type LibrosHandler struct{ svc service.CatalogoService }

func NewLibrosHandler(svc service.CatalogoService) *LibrosHandler {
	return &LibrosHandler{svc: svc}
}

// Crear godoc
// @Summary Registrar libro
// @Description Alta de un título con sus copias numeradas iniciales.
// @Tags libros
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearLibroRequest true "Ficha del libro"
// @Success 201 {object} dto.LibroResponse
// @Router /v1/libros [post]
func (h *LibrosHandler) Crear(c *gin.Context) {
	var req dto.CrearLibroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearLibro(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LibrosHandler) Listar(c *gin.Context) {
	var filter dto.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ListarLibros(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LibrosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerLibro(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LibrosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarLibroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarLibro(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Eliminar libro
// @Description Borra el título y todas sus copias; rechaza si alguna copia está prestada o reservada.
// @Tags libros
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del libro"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/libros/{id} [delete]
func (h *LibrosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarLibro(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LibrosHandler) AgregarEjemplares(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AgregarEjemplaresRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarEjemplares(c.Request.Context(), id, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LibrosHandler) ListarEjemplares(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarEjemplares(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LibrosHandler) EliminarEjemplar(c *gin.Context) {
	id, ok := parseID(c, "ejemplarId")
	if !ok {
		return
	}
	if err := h.svc.EliminarEjemplar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
