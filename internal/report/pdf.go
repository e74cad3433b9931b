package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// RenderPDF renders the PDF projection: summary cards, per-bucket
// sub-totals with the labor line distinguished, and the full transaction
// table including the running balance column.
func RenderPDF(d ReportData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Moliya hisoboti", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s hisobot - %s", d.PeriodLabel, d.ScopeLabel), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Davr: %s", d.RangeLabel), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// summary cards
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(16, 185, 129)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(63, 14, "KIRIM  +"+d.TotalIncome.Format(d.Currency), "", 0, "C", true, 0, "")
	pdf.SetFillColor(239, 68, 68)
	pdf.CellFormat(63, 14, "CHIQIM  -"+d.TotalExpense.Format(d.Currency), "", 0, "C", true, 0, "")
	pdf.SetFillColor(59, 130, 246)
	if d.HasOpeningBalance {
		pdf.CellFormat(63, 14, "BALANS  "+d.FinalBalance().Format(d.Currency), "", 1, "C", true, 0, "")
	} else {
		pdf.CellFormat(63, 14, "JAMI  "+d.TotalExpense.Format(d.Currency), "", 1, "C", true, 0, "")
	}
	pdf.SetTextColor(15, 23, 42)
	pdf.Ln(4)

	if d.Empty() {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 10, "Bu davr uchun ma'lumot topilmadi.", "", 1, "L", false, 0, "")
		return pdfBytes(pdf)
	}

	if len(d.Buckets) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, "Xarajatlar bo'limlari", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, bk := range d.Buckets {
			pdf.CellFormat(120, 6, bk.Label, "B", 0, "L", false, 0, "")
			pdf.CellFormat(69, 6, bk.Total.Format(d.Currency), "B", 1, "R", false, 0, "")
			if bk.LaborTotal.Cents > 0 {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.CellFormat(120, 5, "    ish haqi", "", 0, "L", false, 0, "")
				pdf.CellFormat(69, 5, bk.LaborTotal.Format(d.Currency), "", 1, "R", false, 0, "")
				if bk.RegularTotal.Cents > 0 {
					pdf.CellFormat(120, 5, "    boshqa xarajatlar", "", 0, "L", false, 0, "")
					pdf.CellFormat(69, 5, bk.RegularTotal.Format(d.Currency), "", 1, "R", false, 0, "")
				}
				pdf.SetFont("Helvetica", "", 10)
			}
		}
		pdf.Ln(4)
	}

	// transaction table with running balance
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(51, 65, 85)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(22, 8, "SANA", "", 0, "L", true, 0, "")
	pdf.CellFormat(77, 8, "TAVSIF", "", 0, "L", true, 0, "")
	pdf.CellFormat(45, 8, "SUMMA", "", 0, "R", true, 0, "")
	pdf.CellFormat(45, 8, "BALANS", "", 1, "R", true, 0, "")
	pdf.SetTextColor(15, 23, 42)

	pdf.SetFont("Helvetica", "", 9)
	fill := false
	for _, row := range d.Rows {
		if fill {
			pdf.SetFillColor(248, 250, 252)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		desc := truncate(row.Tx.Description, 45)
		pdf.CellFormat(22, 7, row.Tx.CreatedAt.Format("02.01.2006"), "", 0, "L", fill, 0, "")
		pdf.CellFormat(77, 7, desc, "", 0, "L", fill, 0, "")
		pdf.CellFormat(45, 7, row.Tx.Amount.FormatSigned(row.Tx.Kind, d.Currency), "", 0, "R", fill, 0, "")
		if d.HasOpeningBalance {
			pdf.CellFormat(45, 7, row.Balance.Format(d.Currency), "", 1, "R", fill, 0, "")
		} else {
			pdf.CellFormat(45, 7, "", "", 1, "R", fill, 0, "")
		}
		fill = !fill
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	if d.HasOpeningBalance {
		pdf.CellFormat(120, 7, "Boshlang'ich balans", "T", 0, "L", false, 0, "")
		pdf.CellFormat(69, 7, d.OpeningBalance.Format(d.Currency), "T", 1, "R", false, 0, "")
		pdf.CellFormat(120, 7, "YAKUNIY BALANS", "", 0, "L", false, 0, "")
		pdf.CellFormat(69, 7, d.FinalBalance().Format(d.Currency), "", 1, "R", false, 0, "")
	} else {
		pdf.CellFormat(120, 7, "JAMI XARAJAT", "T", 0, "L", false, 0, "")
		pdf.CellFormat(69, 7, d.TotalExpense.Format(d.Currency), "T", 1, "R", false, 0, "")
	}

	return pdfBytes(pdf)
}

// truncate cuts the string to at most n runes so a multi-byte character
// is never split mid-sequence.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func pdfBytes(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
