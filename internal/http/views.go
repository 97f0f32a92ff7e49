package http

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"digimart/internal/core"
	"digimart/internal/report"
)

// reportView is the data every dashboard template renders from.
type reportView struct {
	Start, End string
	Min, Max   string
	Year       int
	Years      []yearOption
	Rows       int

	Summary      summaryView
	PaymentTypes []barView
	Monthly      []monthView
	Delivery     []barView
}

type yearOption struct {
	Value    int
	Selected bool
}

type summaryView struct {
	TotalOrders       string
	TotalTransactions string
	Average           string
	HasData           bool
}

type barView struct {
	Label   string
	Value   string
	Percent int
}

type monthView struct {
	Name          string
	Orders        string
	Income        string
	OrdersPercent int
	IncomePercent int
}

func newReportView(rep core.Report, svc *report.Service) reportView {
	v := reportView{
		Start: rep.Range.Start.String(),
		End:   rep.Range.End.String(),
		Year:  rep.Year,
		Rows:  rep.Rows,
		Summary: summaryView{
			TotalOrders:       humanize.Comma(int64(rep.Scalars.TotalOrders)),
			TotalTransactions: core.FormatUSD(rep.Scalars.TotalTransactions),
			Average:           core.FormatUSD(rep.Scalars.AverageTransactions),
			HasData:           rep.Scalars.HasData,
		},
	}
	if min, max, ok := svc.Table().DateBounds(); ok {
		v.Min, v.Max = min.String(), max.String()
	}
	for _, y := range svc.Years() {
		v.Years = append(v.Years, yearOption{Value: y, Selected: y == rep.Year})
	}

	maxOrders := 0
	for _, pt := range rep.PaymentTypes {
		maxOrders = max(maxOrders, pt.Orders)
	}
	for _, pt := range rep.PaymentTypes {
		v.PaymentTypes = append(v.PaymentTypes, barView{
			Label:   pt.Type.Label(),
			Value:   humanize.Comma(int64(pt.Orders)),
			Percent: percentOf(int64(pt.Orders), int64(maxOrders)),
		})
	}

	maxMonthOrders, maxIncome := 0, decimal.Zero
	for _, m := range rep.Monthly {
		maxMonthOrders = max(maxMonthOrders, m.TotalOrders)
		maxIncome = decimal.Max(maxIncome, m.Income)
	}
	for _, m := range rep.Monthly {
		v.Monthly = append(v.Monthly, monthView{
			Name:          m.Name,
			Orders:        humanize.Comma(int64(m.TotalOrders)),
			Income:        core.FormatUSD(m.Income),
			OrdersPercent: percentOf(int64(m.TotalOrders), int64(maxMonthOrders)),
			IncomePercent: percentOfDecimal(m.Income, maxIncome),
		})
	}

	maxDelivered := 0
	for _, b := range rep.Delivery {
		maxDelivered = max(maxDelivered, b.Orders)
	}
	for _, b := range rep.Delivery {
		v.Delivery = append(v.Delivery, barView{
			Label:   formatDays(b.Days),
			Value:   humanize.Comma(int64(b.Orders)),
			Percent: percentOf(int64(b.Orders), int64(maxDelivered)),
		})
	}
	return v
}

// percentOf scales value against max, rounded, with a visible minimum of 2.
func percentOf(value, max int64) int {
	if max <= 0 || value <= 0 {
		return 0
	}
	width := int((value*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func percentOfDecimal(value, top decimal.Decimal) int {
	if !top.IsPositive() || !value.IsPositive() {
		return 0
	}
	width := int(value.Mul(decimal.NewFromInt(100)).Div(top).Round(0).IntPart())
	return min(max(width, 2), 100)
}

// formatDays renders a delivery time, e.g. "1 day" or "6.5 days".
func formatDays(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if d == 1 {
		return s + " day"
	}
	return s + " days"
}

// pushURL is the page URL that reproduces a selection.
func pushURL(p report.Params) string {
	q := url.Values{}
	q.Set("start", p.Range.Start.String())
	q.Set("end", p.Range.End.String())
	q.Set("year", strconv.Itoa(p.Year))
	return fmt.Sprintf("/?%s", q.Encode())
}
