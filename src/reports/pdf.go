package reports

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/Grupo-LOROs/ComisionadorERA/src/utils"
	"github.com/go-pdf/fpdf"
)

// CoverSheetParams selects the header dates and the optional type column for
// the payout cover sheet.
type CoverSheetParams struct {
	DateStart   time.Time
	DateEnd     time.Time
	PaymentDate time.Time
	IncludeType bool
}

const (
	pageMargin  = 36 // 0.5 inch
	rowHeight   = 18
	headerShade = 224
	totalsShade = 245
)

// BuildCoverSheet renders the payout summary as a one-page-per-overflow PDF:
// a titled date-range header, the payment-date line, one bordered row per
// advisor and a bold totals row. Money renders as #,##0.00.
func BuildCoverSheet(summaries []models.AdvisorSummary, p CoverSheetParams) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	title := fmt.Sprintf("CALCULO DE COMISIONES DEL %s AL %s",
		utils.FormatDate(p.DateStart), utils.FormatDate(p.DateEnd))
	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 22, strings.ToUpper(title), "", "C", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, rowHeight,
		strings.ToUpper(fmt.Sprintf("COMISIONES A PAGO %s", p.PaymentDate.Format("02-Jan-06"))),
		"", 1, "L", false, 0, "")
	pdf.Ln(8)

	headers := []string{"NOMBRE ASESOR", "VENTAS", "TOTAL COMISION $"}
	widths := []float64{280, 120, 120}
	aligns := []string{"L", "R", "R"}
	if p.IncludeType {
		headers = []string{"NOMBRE ASESOR", "TIPO", "VENTAS", "TOTAL COMISION $"}
		widths = []float64{220, 80, 120, 120}
		aligns = []string{"L", "L", "R", "R"}
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(headerShade, headerShade, headerShade)
	for i, h := range headers {
		pdf.CellFormat(widths[i], rowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	var totalSales, totalCommission float64
	for _, s := range summaries {
		cells := []string{s.Advisor, utils.Money(s.TotalSales), utils.Money(s.TotalCommission)}
		if p.IncludeType {
			cells = []string{s.Advisor, s.TypeLabel, utils.Money(s.TotalSales), utils.Money(s.TotalCommission)}
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], rowHeight, c, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
		totalSales += s.TotalSales
		totalCommission += s.TotalCommission
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(totalsShade, totalsShade, totalsShade)
	totals := []string{"TOTALES", utils.Money(totalSales), utils.Money(totalCommission)}
	if p.IncludeType {
		totals = []string{"TOTALES", "", utils.Money(totalSales), utils.Money(totalCommission)}
	}
	for i, c := range totals {
		pdf.CellFormat(widths[i], rowHeight, c, "1", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering cover sheet PDF: %w", err)
	}
	return buf.Bytes(), nil
}
