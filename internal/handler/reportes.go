package handler

import (
	"net/http"

	"bibliocra/internal/dto"
	"bibliocra/internal/middleware"
	"bibliocra/internal/model"
	"bibliocra/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Generar godoc
// @Summary Reporte de préstamos
// @Description Historial filtrado por fechas, estado, rol, curso, usuario o título. Profesores solo ven sus propios préstamos.
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param fechaInicio query string false "YYYY-MM-DD"
// @Param fechaFin query string false "YYYY-MM-DD"
// @Param estado query string false "enCurso | devuelto"
// @Param rol query string false "alumno | profesor | personal | admin"
// @Param curso query string false "Curso del prestatario"
// @Param libroId query string false "UUID del título"
// @Success 200 {object} dto.Page[dto.PrestamoResponse]
// @Failure 403 {object} apierror.APIError
// @Router /v1/reportes/prestamos [get]
func (h *ReportesHandler) Generar(c *gin.Context) {
	var filter dto.ReporteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Generar(c.Request.Context(), claims.UsuarioID(), model.Rol(claims.Rol), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarPDF godoc
// @Summary Exportar reporte a PDF
// @Description Genera el reporte completo (sin paginar) y lo descarga como PDF.
// @Tags reportes
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 403 {object} apierror.APIError
// @Router /v1/reportes/prestamos/pdf [get]
func (h *ReportesHandler) ExportarPDF(c *gin.Context) {
	var filter dto.ReporteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	claims := middleware.GetClaims(c)
	path, err := h.svc.ExportarPDF(c.Request.Context(), claims.UsuarioID(), model.Rol(claims.Rol), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, "reporte_prestamos.pdf")
}
