package report

import (
	"fmt"
	"strings"
)

// chatRowLimit caps the line items in the chat projection. The PDF and
// spreadsheet render the full list; chat shows the newest window slice
// plus a counter of what was omitted.
const chatRowLimit = 20

// RenderText renders the chat-message projection. It reads every number
// from ReportData and computes nothing itself.
func RenderText(d ReportData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 %s hisobot — %s\n", d.PeriodLabel, d.ScopeLabel)
	fmt.Fprintf(&b, "Davr: %s\n\n", d.RangeLabel)

	if d.Empty() {
		b.WriteString("⚠️ Bu davr uchun ma'lumot topilmadi.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "🟢 Kirim: +%s\n", d.TotalIncome.Format(d.Currency))
	fmt.Fprintf(&b, "🔴 Chiqim: -%s\n", d.TotalExpense.Format(d.Currency))

	if len(d.Buckets) > 0 {
		b.WriteString("\n")
		for _, bk := range d.Buckets {
			fmt.Fprintf(&b, "🏗 %s: %s\n", bk.Label, bk.Total.Format(d.Currency))
			if bk.LaborTotal.Cents > 0 {
				fmt.Fprintf(&b, "   👷 Ish haqi: %s\n", bk.LaborTotal.Format(d.Currency))
			}
			if bk.RegularTotal.Cents > 0 && bk.LaborTotal.Cents > 0 {
				fmt.Fprintf(&b, "   📦 Boshqa xarajatlar: %s\n", bk.RegularTotal.Format(d.Currency))
			}
		}
	}

	b.WriteString("\n")
	rows := d.Rows
	omitted := 0
	if len(rows) > chatRowLimit {
		omitted = len(rows) - chatRowLimit
		rows = rows[len(rows)-chatRowLimit:]
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "• %s %s: %s\n",
			row.Tx.CreatedAt.Format("02.01"),
			row.Tx.Description,
			row.Tx.Amount.FormatSigned(row.Tx.Kind, d.Currency))
	}
	if omitted > 0 {
		fmt.Fprintf(&b, "… va yana %d ta yozuv\n", omitted)
	}

	b.WriteString("────────────────\n")
	if d.HasOpeningBalance {
		fmt.Fprintf(&b, "Boshlang'ich balans: %s\n", d.OpeningBalance.Format(d.Currency))
		final := d.FinalBalance()
		sign := ""
		if final.Cents > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "💵 Balans: %s%s\n", sign, final.Format(d.Currency))
	} else {
		fmt.Fprintf(&b, "💵 Jami xarajat: %s\n", d.TotalExpense.Format(d.Currency))
	}

	return b.String()
}
