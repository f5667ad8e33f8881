package infra

// pdf.go — Envelope label generation using go-pdf/fpdf.
// The label is the physical slip stapled to the cash pouch; it is printed
// exactly once per envelope (the one-shot issuance guarantee lives in the
// closing service, not here).

import (
	"fmt"
	"os"
	"path/filepath"

	"labcaixa/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateLabelPDF renders the label for a sealed envelope.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateLabelPDF(e *model.Envelope, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("label_%s.pdf", e.Code)
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm — matches the thermal label stock used at the units
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "LabCaixa", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Envelope de Fechamento", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Envelope info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, e.Code, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Unidade %s — %s — canal %s",
		e.UnitID, e.BatchDate.Format("02/01/2006"), e.Channel), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Amounts ───────────────────────────────────────────────────────────────
	labelCol := contentW * 0.55
	valueCol := contentW * 0.45

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(labelCol, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueCol, 5, value, "", 1, "R", false, 0, "")
	}

	row("Valor esperado:", "R$ "+e.ExpectedCash.StringFixed(2), false)
	row("Valor conferido:", "R$ "+e.CountedCash.StringFixed(2), false)
	row("Diferença:", "R$ "+e.Difference.StringFixed(2), e.HasDifference)
	row("Itens no envelope:", fmt.Sprintf("%d", e.RecordCount), false)

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Seal info ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Selado em "+e.SealedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if e.LabelIssuedAt != nil {
		pdf.CellFormat(contentW, 4, "Etiqueta emitida em "+e.LabelIssuedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 6)
	pdf.CellFormat(contentW, 4, "Documento de conferência interna — via única", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
