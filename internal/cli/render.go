package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/repository"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// dayTable renders the records of one day the way the desk operator reads
// them: name, weight, price, clock time, payment and owning store.
func dayTable(records []models.Record, cal *timex.Calendar, euroPerKg float64) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		payment := r.PaymentMethod
		if payment == "" {
			payment = "-"
		}
		rows = append(rows, []string{
			r.Name,
			fmt.Sprintf("%.2f", r.WeightKg),
			fmt.Sprintf("%.2f", r.Amount(euroPerKg)),
			cal.FormatClock(r.EventTimeMs),
			payment,
			string(r.Origin) + "/" + r.ID,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Nome", "Peso (kg)", "Prezzo (€)", "Ora", "Pagamento", "Origine/ID").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func printDay(w io.Writer, d timex.Date, records []models.Record, src repository.Source,
	cal *timex.Calendar, euroPerKg float64) {
	sum := models.Summarize(records, euroPerKg)

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Molitura %s (%s)", d, src)))
	fmt.Fprintln(w, dayTable(records, cal, euroPerKg))
	fmt.Fprintf(w, "Totale kg: %.2f\n", sum.TotalKg)
	fmt.Fprintf(w, "Totale €: %.2f\n", sum.TotalAmount)
	fmt.Fprintf(w, "Record: %d\n", sum.Count)
}
