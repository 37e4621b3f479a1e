package handler

import (
	"net/http"

	"bibliocra/internal/apierror"
	"bibliocra/internal/dto"
	"bibliocra/internal/model"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// Atencion godoc
// @Summary Ítems por atender
// @Description Copias deterioradas, extraviadas o en mantenimiento de ambos catálogos en una sola vista.
// @Tags inventario
// @Produce json
// @Security BearerAuth
// @Param estado query string false "deteriorado | extraviado | mantenimiento"
// @Param tipo query string false "Libro | Recurso"
// @Success 200 {object} dto.Page[dto.ItemAtencionResponse]
// @Router /v1/inventario/atencion [get]
func (h *InventarioHandler) Atencion(c *gin.Context) {
	var filter dto.InventarioFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ListarAtencion(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DarDeBaja godoc
// @Summary Dar de baja una copia
// @Description Retira una copia de circulación. Si es la última del título o recurso, la ficha también se elimina.
// @Tags inventario
// @Produce json
// @Security BearerAuth
// @Param tipo path string true "ejemplar | recurso"
// @Param id path string true "UUID de la copia"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/inventario/{tipo}/{id} [delete]
func (h *InventarioHandler) DarDeBaja(c *gin.Context) {
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
	if err := h.svc.DarDeBaja(c.Request.Context(), model.ItemRef{Tipo: tipo, ID: id}); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
