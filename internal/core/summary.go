package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTypeCount is the number of distinct orders paid with a payment type.
type PaymentTypeCount struct {
	Type   PaymentType
	Orders int
}

// MonthlyOrders summarizes one calendar month.
type MonthlyOrders struct {
	MonthEnd    time.Time // last day of the month, the bucket key
	Name        string    // full month name, e.g. "January"
	TotalOrders int
	Income      decimal.Decimal
}

// DeliveryBucket counts distinct orders delivered after exactly Days days.
type DeliveryBucket struct {
	Days   float64
	Orders int
}

// Scalars are the headline numbers of the dashboard.
type Scalars struct {
	TotalOrders         int // order lines, not distinct orders
	TotalTransactions   decimal.Decimal
	AverageTransactions decimal.Decimal
	HasData             bool
}

// Report is everything the dashboard renders for one selection.
type Report struct {
	Range        DateRange
	Year         int
	Rows         int
	Scalars      Scalars
	PaymentTypes []PaymentTypeCount
	Monthly      []MonthlyOrders
	Delivery     []DeliveryBucket
}
