package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"digimart/internal/core"
	"digimart/internal/report"
)

// Output formats accepted by RenderReport.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown}

const barWidth = 30

// RenderReport writes rep to w in format. years lists the selectable years
// and only appears in JSON output.
func RenderReport(w io.Writer, rep core.Report, years []int, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return renderText(w, rep)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report.NewJSONReport(rep, years))
	case FormatMarkdown, "md":
		return renderMarkdown(w, rep)
	}
	return fmt.Errorf("unknown format %q: must be one of %s", format, strings.Join(Formats, ", "))
}

func renderText(w io.Writer, rep core.Report) error {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("DigiMart orders "+rep.Range.Start.String()+" to "+rep.Range.End.String()) + "\n")

	average := "n/a"
	if rep.Scalars.HasData {
		average = core.FormatUSD(rep.Scalars.AverageTransactions)
	}
	summary := fmt.Sprintf("Total orders         %s\nTotal transactions   %s\nAverage transaction  %s",
		humanize.Comma(int64(rep.Scalars.TotalOrders)),
		core.FormatUSD(rep.Scalars.TotalTransactions),
		average)
	b.WriteString(BoxStyle.Render(summary) + "\n")

	b.WriteString(SubtitleStyle.Render("Orders by payment type") + "\n")
	if len(rep.PaymentTypes) == 0 {
		b.WriteString(FormatWarning("No orders in the selected range") + "\n")
	} else {
		top := 0
		for _, pt := range rep.PaymentTypes {
			top = max(top, pt.Orders)
		}
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t\n", HeaderStyle.Render("Payment type"), HeaderStyle.Render("Orders"))
		for _, pt := range rep.PaymentTypes {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", pt.Type.Label(), humanize.Comma(int64(pt.Orders)), bar(pt.Orders, top))
		}
		tw.Flush()
	}

	b.WriteString(SubtitleStyle.Render("Orders and income per month, "+strconv.Itoa(rep.Year)) + "\n")
	if len(rep.Monthly) == 0 {
		b.WriteString(FormatWarning("No orders in "+strconv.Itoa(rep.Year)+" for the selected range") + "\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", HeaderStyle.Render("Month"), HeaderStyle.Render("Orders"), HeaderStyle.Render("Income"))
		for _, m := range rep.Monthly {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", m.Name, humanize.Comma(int64(m.TotalOrders)), core.FormatUSD(m.Income))
		}
		tw.Flush()
	}

	b.WriteString(SubtitleStyle.Render("Delivery time") + "\n")
	if len(rep.Delivery) == 0 {
		b.WriteString(FormatWarning("No deliveries in the selected range") + "\n")
	} else {
		top := 0
		for _, d := range rep.Delivery {
			top = max(top, d.Orders)
		}
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t\n", HeaderStyle.Render("Days"), HeaderStyle.Render("Orders"))
		for _, d := range rep.Delivery {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", formatDays(d.Days), humanize.Comma(int64(d.Orders)), bar(d.Orders, top))
		}
		tw.Flush()
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderMarkdown(w io.Writer, rep core.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# DigiMart orders %s to %s\n\n", rep.Range.Start, rep.Range.End)

	average := "n/a"
	if rep.Scalars.HasData {
		average = core.FormatUSD(rep.Scalars.AverageTransactions)
	}
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total orders | %s |\n", humanize.Comma(int64(rep.Scalars.TotalOrders)))
	fmt.Fprintf(&b, "| Total transactions | %s |\n", core.FormatUSD(rep.Scalars.TotalTransactions))
	fmt.Fprintf(&b, "| Average transaction | %s |\n", average)

	b.WriteString("\n## Orders by payment type\n\n")
	b.WriteString("| Payment type | Orders |\n|---|---:|\n")
	for _, pt := range rep.PaymentTypes {
		fmt.Fprintf(&b, "| %s | %s |\n", pt.Type.Label(), humanize.Comma(int64(pt.Orders)))
	}

	fmt.Fprintf(&b, "\n## Orders and income per month, %d\n\n", rep.Year)
	b.WriteString("| Month | Orders | Income |\n|---|---:|---:|\n")
	for _, m := range rep.Monthly {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Name, humanize.Comma(int64(m.TotalOrders)), core.FormatUSD(m.Income))
	}

	b.WriteString("\n## Delivery time\n\n")
	b.WriteString("| Days | Orders |\n|---:|---:|\n")
	for _, d := range rep.Delivery {
		fmt.Fprintf(&b, "| %s | %s |\n", strconv.FormatFloat(d.Days, 'f', -1, 64), humanize.Comma(int64(d.Orders)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func bar(n, top int) string {
	if top <= 0 || n <= 0 {
		return ""
	}
	width := max(n*barWidth/top, 1)
	return BarStyle.Render(strings.Repeat("█", width))
}

func formatDays(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if d == 1 {
		return s + " day"
	}
	return s + " days"
}
