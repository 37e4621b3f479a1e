package infra

// pdf.go — loan report export using go-pdf/fpdf.
// Renders an A4 table with one row per loan: borrower, item label, start,
// due and return dates, and the derived state. The output file is saved to
// storagePath/reporte_prestamos_{timestamp}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bibliocra/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateReportePDF writes the filtered loan report to disk and returns the
// absolute path of the generated file. storagePath is created if needed.
func GenerateReportePDF(filas []dto.PrestamoResponse, generado time.Time, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("reporte_prestamos_%s.pdf", generado.Format("20060102_150405"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr("Reporte de Préstamos"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Generado el %s — %d préstamos", generado.Format("02/01/2006 15:04"), len(filas))), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Column layout ─────────────────────────────────────────────────────────
	colUsuario := contentW * 0.24
	colItem := contentW * 0.30
	colFecha := contentW * 0.12
	colEstado := contentW * 0.10

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(colUsuario, 6, "Usuario", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colItem, 6, tr("Ítem"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colFecha, 6, "Inicio", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colFecha, 6, "Vencimiento", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colFecha, 6, tr("Devolución"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colEstado, 6, "Estado", "1", 1, "C", true, 0, "")
	}
	header()

	// ── Rows ──────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	for _, fila := range filas {
		if pdf.GetY() > 185 {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 8)
		}

		usuario := "—"
		if fila.Usuario != nil {
			usuario = fmt.Sprintf("%s %s (%s)", fila.Usuario.PrimerNombre, fila.Usuario.PrimerApellido, fila.Usuario.RUT)
		}
		item := fila.ItemDetalle.Etiqueta
		if len(item) > 48 {
			item = item[:47] + "…"
		}
		devolucion := "—"
		if fila.FechaDevolucion != nil {
			devolucion = fila.FechaDevolucion.Format("02/01/2006")
		}

		pdf.CellFormat(colUsuario, 5, tr(usuario), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colItem, 5, tr(item), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colFecha, 5, fila.FechaInicio.Format("02/01/2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colFecha, 5, fila.FechaVencimiento.Format("02/01/2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colFecha, 5, tr(devolucion), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colEstado, 5, fila.Estado, "1", 1, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
