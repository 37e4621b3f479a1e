package handler

import (
	"net/http"

	"bibliocra/internal/apierror"
	"bibliocra/internal/model"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BusquedaHandler struct{ svc service.BusquedaService }

func NewBusquedaHandler(svc service.BusquedaService) *BusquedaHandler {
	return &BusquedaHandler{svc: svc}
}

func (h *BusquedaHandler) Usuarios(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetro q requerido"))
		return
	}
	soloAlumnos := c.Query("soloAlumnos") == "true"
	resp, err := h.svc.Usuarios(c.Request.Context(), q, soloAlumnos)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BusquedaHandler) Libros(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetro q requerido"))
		return
	}
	resp, err := h.svc.Libros(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Items godoc
// @Summary Buscar copias disponibles
// @Description Devuelve una copia libre por cada título o recurso que coincide, lista para el formulario de préstamo.
// @Tags busqueda
// @Produce json
// @Security BearerAuth
// @Param q query string true "Texto a buscar"
// @Success 200 {array} dto.ItemSugerencia
// @Router /v1/busqueda/items [get]
func (h *BusquedaHandler) Items(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetro q requerido"))
		return
	}
	resp, err := h.svc.Items(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CopiaDisponible resolves the first free copy of a title or resource.
func (h *BusquedaHandler) CopiaDisponible(c *gin.Context) {
	tipo := model.TipoItem(c.Param("tipo"))
	if !tipo.Valid() {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de ítem inválido"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.CopiaDisponible(c.Request.Context(), tipo, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
