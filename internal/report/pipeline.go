// Package report turns the order table into the summary tables shown on the
// dashboard. Every function here is pure: it reads its input and returns
// freshly allocated results.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"digimart/internal/core"
	"digimart/internal/dataset"
)

// MaxDeliveryDays is the exclusive upper bound of the delivery histogram.
const MaxDeliveryDays = 11.0

// Params selects what a report covers.
type Params struct {
	Range core.DateRange
	Year  int
}

// Filter returns the rows purchased within r. The end day is covered in
// full. The result shares memory with the table and must not be modified.
func Filter(table *dataset.Table, r core.DateRange) ([]core.Order, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rows := table.Rows()
	// Rows are sorted by purchase timestamp, so the range is contiguous.
	lo := sort.Search(len(rows), func(i int) bool {
		return !rows[i].PurchasedAt.Before(r.Start.Time)
	})
	end := r.End.NextDay()
	hi := sort.Search(len(rows), func(i int) bool {
		return !rows[i].PurchasedAt.Before(end)
	})
	if hi <= lo {
		return []core.Order{}, nil
	}
	return rows[lo:hi:hi], nil
}

// OrdersByPaymentType counts distinct orders per payment type, in canonical
// order. Payment types with no orders, or outside the canonical set, are
// omitted.
func OrdersByPaymentType(rows []core.Order) []core.PaymentTypeCount {
	seen := make([]map[string]struct{}, len(core.PaymentTypes))
	for _, o := range rows {
		rank := o.PaymentType.Rank()
		if rank < 0 {
			continue
		}
		if seen[rank] == nil {
			seen[rank] = make(map[string]struct{})
		}
		seen[rank][o.OrderID] = struct{}{}
	}

	out := make([]core.PaymentTypeCount, 0, len(core.PaymentTypes))
	for rank, ids := range seen {
		if len(ids) == 0 {
			continue
		}
		out = append(out, core.PaymentTypeCount{Type: core.PaymentTypes[rank], Orders: len(ids)})
	}
	return out
}

type monthBucket struct {
	ids    map[string]struct{}
	income decimal.Decimal
}

// MonthlyOrdersAndIncome buckets rows by calendar month and returns the
// buckets of year in chronological order. Months between the first and last
// month of rows that have no orders are reported with zero values; a year
// without any rows yields no buckets.
func MonthlyOrdersAndIncome(rows []core.Order, year int) []core.MonthlyOrders {
	if len(rows) == 0 {
		return []core.MonthlyOrders{}
	}

	buckets := make(map[time.Time]*monthBucket)
	first, last := monthStart(rows[0].PurchasedAt), monthStart(rows[0].PurchasedAt)
	inYear := false
	for _, o := range rows {
		key := monthStart(o.PurchasedAt)
		inYear = inYear || key.Year() == year
		if key.Before(first) {
			first = key
		}
		if key.After(last) {
			last = key
		}
		b, ok := buckets[key]
		if !ok {
			b = &monthBucket{ids: make(map[string]struct{})}
			buckets[key] = b
		}
		b.ids[o.OrderID] = struct{}{}
		b.income = b.income.Add(o.PaymentValue)
	}
	if !inYear {
		return []core.MonthlyOrders{}
	}

	out := make([]core.MonthlyOrders, 0, 12)
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		if m.Year() != year {
			continue
		}
		row := core.MonthlyOrders{
			MonthEnd: m.AddDate(0, 1, -1),
			Income:   decimal.Zero,
		}
		if b, ok := buckets[m]; ok {
			row.TotalOrders = len(b.ids)
			row.Income = b.income
		}
		out = append(out, row)
	}
	// Names are attached after ordering so they never drive the sort.
	for i := range out {
		out[i].Name = out[i].MonthEnd.Month().String()
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DeliveryTimeHistogram counts distinct orders per exact delivery time for
// deliveries faster than MaxDeliveryDays. Rows without a delivery time are
// ignored.
func DeliveryTimeHistogram(rows []core.Order) []core.DeliveryBucket {
	byDays := make(map[float64]map[string]struct{})
	for _, o := range rows {
		if o.DeliveryTime == nil || !(*o.DeliveryTime < MaxDeliveryDays) {
			continue
		}
		d := *o.DeliveryTime
		ids, ok := byDays[d]
		if !ok {
			ids = make(map[string]struct{})
			byDays[d] = ids
		}
		ids[o.OrderID] = struct{}{}
	}

	out := make([]core.DeliveryBucket, 0, len(byDays))
	for d, ids := range byDays {
		out = append(out, core.DeliveryBucket{Days: d, Orders: len(ids)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Days < out[j].Days })
	return out
}

// Summarize computes the headline numbers. TotalOrders counts order lines.
// The average of an empty selection is zero.
func Summarize(rows []core.Order) core.Scalars {
	s := core.Scalars{
		TotalOrders:         len(rows),
		TotalTransactions:   decimal.Zero,
		AverageTransactions: decimal.Zero,
	}
	if len(rows) == 0 {
		return s
	}
	for _, o := range rows {
		s.TotalTransactions = s.TotalTransactions.Add(o.PaymentValue)
	}
	s.AverageTransactions = s.TotalTransactions.Div(decimal.NewFromInt(int64(len(rows))))
	s.HasData = true
	return s
}

// DistinctOrders counts unique order ids in rows.
func DistinctOrders(rows []core.Order) int {
	ids := make(map[string]struct{}, len(rows))
	for _, o := range rows {
		ids[o.OrderID] = struct{}{}
	}
	return len(ids)
}

// Build runs the filter and every aggregation for p.
func Build(table *dataset.Table, p Params) (core.Report, error) {
	rows, err := Filter(table, p.Range)
	if err != nil {
		return core.Report{}, fmt.Errorf("filter %s: %w", p.Range, err)
	}
	return core.Report{
		Range:        p.Range,
		Year:         p.Year,
		Rows:         len(rows),
		Scalars:      Summarize(rows),
		PaymentTypes: OrdersByPaymentType(rows),
		Monthly:      MonthlyOrdersAndIncome(rows, p.Year),
		Delivery:     DeliveryTimeHistogram(rows),
	}, nil
}
