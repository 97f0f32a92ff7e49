package report

import (
	"digimart/internal/core"
)

// JSONRange is the selected range as YYYY-MM-DD strings.
type JSONRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// JSONSummary carries the headline numbers.
type JSONSummary struct {
	TotalOrders         int    `json:"total_orders"`
	TotalTransactions   string `json:"total_transactions"`
	AverageTransactions string `json:"average_transactions"`
	HasData             bool   `json:"has_data"`
}

// JSONPaymentType is one row of the payment type breakdown.
type JSONPaymentType struct {
	PaymentType string `json:"payment_type"`
	Label       string `json:"label"`
	Orders      int    `json:"orders"`
}

// JSONMonth is one monthly bucket.
type JSONMonth struct {
	MonthEnd    string `json:"month_end"`
	Month       string `json:"month"`
	TotalOrders int    `json:"total_orders"`
	Income      string `json:"income"`
}

// JSONDelivery is one histogram bucket.
type JSONDelivery struct {
	Days   float64 `json:"days"`
	Orders int     `json:"orders"`
}

// JSONReport is the wire form of a report shared by the API and the CLI.
// Money is a decimal string with two fraction digits.
type JSONReport struct {
	Range        JSONRange         `json:"range"`
	Year         int               `json:"year"`
	Years        []int             `json:"years"`
	Rows         int               `json:"rows"`
	Summary      JSONSummary       `json:"summary"`
	PaymentTypes []JSONPaymentType `json:"payment_types"`
	Monthly      []JSONMonth       `json:"monthly"`
	DeliveryTime []JSONDelivery    `json:"delivery_time"`
}

// NewJSONReport converts rep. years lists the selectable years.
func NewJSONReport(rep core.Report, years []int) JSONReport {
	out := JSONReport{
		Range: JSONRange{Start: rep.Range.Start.String(), End: rep.Range.End.String()},
		Year:  rep.Year,
		Years: years,
		Rows:  rep.Rows,
		Summary: JSONSummary{
			TotalOrders:         rep.Scalars.TotalOrders,
			TotalTransactions:   rep.Scalars.TotalTransactions.StringFixed(2),
			AverageTransactions: rep.Scalars.AverageTransactions.StringFixed(2),
			HasData:             rep.Scalars.HasData,
		},
		PaymentTypes: make([]JSONPaymentType, 0, len(rep.PaymentTypes)),
		Monthly:      make([]JSONMonth, 0, len(rep.Monthly)),
		DeliveryTime: make([]JSONDelivery, 0, len(rep.Delivery)),
	}
	if out.Years == nil {
		out.Years = []int{}
	}
	for _, pt := range rep.PaymentTypes {
		out.PaymentTypes = append(out.PaymentTypes, JSONPaymentType{
			PaymentType: string(pt.Type),
			Label:       pt.Type.Label(),
			Orders:      pt.Orders,
		})
	}
	for _, m := range rep.Monthly {
		out.Monthly = append(out.Monthly, JSONMonth{
			MonthEnd:    m.MonthEnd.Format("2006-01-02"),
			Month:       m.Name,
			TotalOrders: m.TotalOrders,
			Income:      m.Income.StringFixed(2),
		})
	}
	for _, b := range rep.Delivery {
		out.DeliveryTime = append(out.DeliveryTime, JSONDelivery{Days: b.Days, Orders: b.Orders})
	}
	return out
}
