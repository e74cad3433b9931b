package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"hisobchi/internal/core"
)

const sheetName = "Hisobot"

// RenderExcel renders the spreadsheet projection. Same data contract as
// the PDF: full transaction list with the running balance column, bucket
// sub-totals with the labor line distinguished, and the shared totals.
func RenderExcel(d ReportData) ([]byte, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	row := 1
	set := func(col string, v interface{}) {
		f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v)
	}

	set("A", fmt.Sprintf("%s hisobot — %s", d.PeriodLabel, d.ScopeLabel))
	row++
	set("A", "Davr")
	set("B", d.RangeLabel)
	row += 2

	set("A", "Jami kirim")
	set("B", "+"+d.TotalIncome.Format(d.Currency))
	row++
	set("A", "Jami chiqim")
	set("B", "-"+d.TotalExpense.Format(d.Currency))
	row++
	if d.HasOpeningBalance {
		set("A", "Boshlang'ich balans")
		set("B", d.OpeningBalance.Format(d.Currency))
		row++
		set("A", "Yakuniy balans")
		set("B", d.FinalBalance().Format(d.Currency))
		row++
	}
	row++

	if len(d.Buckets) > 0 {
		set("A", "Xarajatlar bo'limlari")
		row++
		for _, bk := range d.Buckets {
			set("A", bk.Label)
			set("B", bk.Total.Format(d.Currency))
			row++
			if bk.LaborTotal.Cents > 0 {
				set("A", "    ish haqi")
				set("B", bk.LaborTotal.Format(d.Currency))
				row++
				if bk.RegularTotal.Cents > 0 {
					set("A", "    boshqa xarajatlar")
					set("B", bk.RegularTotal.Format(d.Currency))
					row++
				}
			}
		}
		row++
	}

	headers := []string{"Sana", "Tavsif", "Tur", "Summa", "Balans"}
	for i, h := range headers {
		set(string(rune('A'+i)), h)
	}
	row++
	for _, r := range d.Rows {
		set("A", r.Tx.CreatedAt.Format("2006-01-02 15:04"))
		set("B", r.Tx.Description)
		if r.Tx.Kind == core.Income {
			set("C", "Kirim")
		} else {
			set("C", "Chiqim")
		}
		set("D", r.Tx.Amount.FormatSigned(r.Tx.Kind, d.Currency))
		if d.HasOpeningBalance {
			set("E", r.Balance.Format(d.Currency))
		}
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "B", 36)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "E", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
