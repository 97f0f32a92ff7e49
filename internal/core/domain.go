package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Boleto     PaymentType = "boleto"
	CreditCard PaymentType = "credit_card"
	DebitCard  PaymentType = "debit_card"
	Voucher    PaymentType = "voucher"
)

// PaymentTypes is the canonical display order of payment types.
var PaymentTypes = []PaymentType{Boleto, CreditCard, DebitCard, Voucher}

type (
	PaymentType string

	Date struct {
		time.Time
	}

	// Order is one line of the order history. An order may span several
	// lines, for example when the customer split the payment.
	Order struct {
		OrderID      string
		PaymentType  PaymentType
		PaymentValue decimal.Decimal
		PurchasedAt  time.Time
		DeliveredAt  time.Time // zero when the order was never delivered
		DeliveryTime *float64  // days between purchase and delivery
	}

	// DateRange is an inclusive interval of calendar days.
	DateRange struct {
		Start Date
		End   Date
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRange  = errors.New("start date is after end date")
	ErrEmptyOrderID  = errors.New("empty order id")
)

// IsCanonical reports whether p belongs to the closed set of payment types.
func (p PaymentType) IsCanonical() bool {
	return p.Rank() >= 0
}

// Rank returns the position of p in PaymentTypes, or -1.
func (p PaymentType) Rank() int {
	for i, t := range PaymentTypes {
		if t == p {
			return i
		}
	}
	return -1
}

// NormalizePaymentType lower-cases and trims a raw payment type value.
func NormalizePaymentType(s string) PaymentType {
	return PaymentType(strings.ToLower(strings.TrimSpace(s)))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// NextDay returns midnight of the following day.
func (d Date) NextDay() time.Time {
	return d.AddDate(0, 0, 1)
}

func (o Order) Validate() error {
	if strings.TrimSpace(o.OrderID) == "" {
		return ErrEmptyOrderID
	}
	if o.PaymentValue.IsNegative() {
		return ErrInvalidAmount
	}
	if o.PurchasedAt.IsZero() {
		return errors.New("purchase timestamp cannot be zero")
	}
	return nil
}

// Delivered reports whether the order has a delivery date.
func (o Order) Delivered() bool {
	return !o.DeliveredAt.IsZero()
}

// NewDateRange builds a range from two calendar days.
func NewDateRange(start, end Date) DateRange {
	return DateRange{Start: start, End: end}
}

func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if err := r.End.Validate(); err != nil {
		return errors.New("invalid end date: " + err.Error())
	}
	if r.Start.After(r.End.Time) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether t falls on any day of the range. The end day is
// covered up to its last instant.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start.Time) && t.Before(r.End.NextDay())
}

// Clamp restricts the range to [min, max], keeping it non-empty.
func (r DateRange) Clamp(min, max Date) DateRange {
	out := r
	if out.Start.Before(min.Time) {
		out.Start = min
	}
	if out.Start.After(max.Time) {
		out.Start = max
	}
	if out.End.After(max.Time) {
		out.End = max
	}
	if out.End.Before(min.Time) {
		out.End = min
	}
	return out
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
