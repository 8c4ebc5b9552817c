// Package preview renders a draft invoice for the terminal.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"timetrack-invoicing-backend/internal/services/billing"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ece6a"))
)

// Header names what the invoice is for.
type Header struct {
	Project string
	Client  string
}

// Render lays out the entries that count towards the invoice and its total.
// Removed entries are left out.
func Render(h Header, inv billing.Invoice) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Invoice preview"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(headerLine(h, inv)))
	b.WriteString("\n\n")

	active := billing.ActiveEntries(inv.Entries)
	rows := make([][]string, 0, len(active))
	for _, e := range active {
		rows = append(rows, []string{
			e.Description,
			billing.FormatQtyEntry(e),
			fmt.Sprintf("%.2f", billing.HoursFromEntry(e)),
			billing.ParseRate(e.Rate).StringFixed(2),
			billing.CalculateEntryAmount(e).StringFixed(2),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Description", "Qty", "Hours", "Rate", "Amount").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 {
				return cellStyle
			}
			return numberStyle
		})
	b.WriteString(t.String())
	b.WriteString("\n")

	removed := len(inv.Entries) - len(active)
	if removed > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d removed entries not billed", removed)))
		b.WriteString("\n")
	}
	b.WriteString(totalStyle.Render("Total: " + billing.CalculateTotalFromEntries(inv.Entries).StringFixed(2)))
	b.WriteString("\n")
	return b.String()
}

func headerLine(h Header, inv billing.Invoice) string {
	parts := []string{}
	if h.Project != "" {
		parts = append(parts, "Project: "+h.Project)
	}
	if h.Client != "" {
		parts = append(parts, "Client: "+h.Client)
	}
	if inv.From != nil && inv.To != nil {
		parts = append(parts, fmt.Sprintf("Period: %s - %s", inv.From.Format("2006-01-02"), inv.To.Format("2006-01-02")))
	}
	return strings.Join(parts, "  ")
}
