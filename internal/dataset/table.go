// Package dataset loads the order history and exposes it as an immutable,
// time-ordered table shared by every request.
package dataset

import (
	"context"
	"sort"
	"time"

	"digimart/internal/core"
)

// Loader produces the order table from some source.
type Loader interface {
	Load(ctx context.Context) (*Table, error)
}

// Table is the raw order table. It is sorted by purchase timestamp and never
// modified after New returns.
type Table struct {
	orders []core.Order
	years  []int
}

// New copies orders and sorts them by purchase timestamp. Rows sharing a
// timestamp keep their input order.
func New(orders []core.Order) *Table {
	rows := make([]core.Order, len(orders))
	copy(rows, orders)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PurchasedAt.Before(rows[j].PurchasedAt)
	})

	var years []int
	for _, o := range rows {
		y := o.PurchasedAt.Year()
		if len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
	}
	return &Table{orders: rows, years: years}
}

// Rows returns the sorted rows. The slice is shared and must not be modified.
func (t *Table) Rows() []core.Order {
	if t == nil {
		return nil
	}
	return t.orders[:len(t.orders):len(t.orders)]
}

// Len returns the number of order lines.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.orders)
}

// Bounds returns the earliest and latest purchase timestamps.
func (t *Table) Bounds() (min, max time.Time, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.orders[0].PurchasedAt, t.orders[len(t.orders)-1].PurchasedAt, true
}

// DateBounds returns Bounds truncated to calendar days.
func (t *Table) DateBounds() (min, max core.Date, ok bool) {
	lo, hi, ok := t.Bounds()
	if !ok {
		return core.Date{}, core.Date{}, false
	}
	return core.DateOf(lo), core.DateOf(hi), true
}

// FullRange is the range covering every row.
func (t *Table) FullRange() (core.DateRange, bool) {
	lo, hi, ok := t.DateBounds()
	return core.NewDateRange(lo, hi), ok
}

// Years returns the distinct purchase years in ascending order.
func (t *Table) Years() []int {
	if t == nil {
		return nil
	}
	return append([]int(nil), t.years...)
}

// HasYear reports whether any row was purchased in year.
func (t *Table) HasYear(year int) bool {
	if t == nil {
		return false
	}
	for _, y := range t.years {
		if y == year {
			return true
		}
	}
	return false
}
