package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"renovation-quoter/models"
)

// ReportPrinter renders a quote as a human-readable terminal report.
type ReportPrinter struct {
	w       io.Writer
	title   lipgloss.Style
	section lipgloss.Style
	bold    lipgloss.Style
	money   lipgloss.Style
	muted   lipgloss.Style
}

// NewReportPrinter creates a printer writing to w. Colors are only
// emitted when w is a color-capable terminal.
func NewReportPrinter(w io.Writer) *ReportPrinter {
	r := lipgloss.NewRenderer(w)
	return &ReportPrinter{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		bold:    r.NewStyle().Bold(true),
		money:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		muted:   r.NewStyle().Faint(true),
	}
}

// Print writes the report for q priced under pricing.
func (p *ReportPrinter) Print(q *models.Quote, pricing PricingConfig) {
	sep := strings.Repeat("═", 72)
	thin := strings.Repeat("─", 72)

	fmt.Fprintf(p.w, "\n%s\n", p.title.Render(sep))
	fmt.Fprintf(p.w, "%s\n", p.title.Render("  RENOVATION QUOTE"))
	fmt.Fprintf(p.w, "%s\n\n", p.title.Render(sep))

	fmt.Fprintf(p.w, "%s\n", p.section.Render("  Overview"))
	fmt.Fprintf(p.w, "  %s\n", thin)
	fmt.Fprintf(p.w, "  Room size   : %s\n", p.bold.Render(fmt.Sprintf("%.2f m²", q.RoomSize)))
	fmt.Fprintf(p.w, "  Location    : %s\n", p.bold.Render(pricing.Location))
	fmt.Fprintf(p.w, "  Hourly rate : %s\n", p.bold.Render(fmt.Sprintf("%.2f", pricing.HourlyRate)))
	fmt.Fprintf(p.w, "  Margin      : %s\n\n", p.bold.Render(fmt.Sprintf("%.0f%%", pricing.Margin*100)))

	fmt.Fprintf(p.w, "%s\n", p.section.Render("  Line items"))
	fmt.Fprintf(p.w, "  %s\n", thin)
	if len(q.Tasks) == 0 {
		fmt.Fprintf(p.w, "  %s\n", p.muted.Render("No renovation tasks detected"))
	} else {
		fmt.Fprintf(p.w, "  %-20s %10s %10s %8s %6s %12s\n",
			"Task", "Material", "Labor", "Hours", "VAT", "Total")
		for _, item := range q.Tasks {
			fmt.Fprintf(p.w, "  %-20s %10.2f %10.2f %8.2f %5.0f%% %s\n",
				truncate(item.Task.String(), 20),
				item.MaterialCost, item.LaborCost, item.EstimatedTime, item.VATRate*100,
				p.money.Render(fmt.Sprintf("%12.2f", item.TotalPrice)))
		}
	}
	fmt.Fprintln(p.w)

	fmt.Fprintf(p.w, "  %s\n", thin)
	fmt.Fprintf(p.w, "  Grand total (tax incl.) : %s\n", p.money.Render(fmt.Sprintf("%.2f", q.TotalPrice)))
	fmt.Fprintf(p.w, "\n%s\n\n", p.title.Render(sep))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
