package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"digimart/internal/core"
)

// Column names of the cleaned order history.
const (
	ColOrderID      = "order_id"
	ColPaymentType  = "payment_type"
	ColPaymentValue = "payment_value"
	ColPurchasedAt  = "order_purchase_timestamp"
	ColDeliveredAt  = "order_delivered_customer_date"
	ColDeliveryTime = "delivery_time"
)

// RequiredColumns lists every column the pipeline reads.
var RequiredColumns = []string{
	ColOrderID,
	ColPaymentType,
	ColPaymentValue,
	ColPurchasedAt,
	ColDeliveredAt,
	ColDeliveryTime,
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02",
}

// SchemaError reports required columns missing from a header row.
type SchemaError struct {
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset header: missing %s; got headers=%v", strings.Join(e.Missing, ","), e.Header)
}

// RowError reports a cell that could not be decoded.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Decoder maps rows of string cells to orders using a resolved header.
type Decoder struct {
	orderID, paymentType, paymentValue int
	purchasedAt, deliveredAt, delivery int
}

// NewDecoder resolves the column positions of header. Matching ignores case
// and surrounding whitespace; unknown columns are ignored.
func NewDecoder(header []string) (*Decoder, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	var missing []string
	col := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	d := &Decoder{
		orderID:      col(ColOrderID),
		paymentType:  col(ColPaymentType),
		paymentValue: col(ColPaymentValue),
		purchasedAt:  col(ColPurchasedAt),
		deliveredAt:  col(ColDeliveredAt),
		delivery:     col(ColDeliveryTime),
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Header: append([]string(nil), header...)}
	}
	return d, nil
}

// Decode converts one row. line is used for error reporting only.
func (d *Decoder) Decode(row []string, line int) (core.Order, error) {
	var o core.Order

	o.OrderID = strings.TrimSpace(safeGet(row, d.orderID))
	if o.OrderID == "" {
		return o, &RowError{Line: line, Column: ColOrderID, Err: core.ErrEmptyOrderID}
	}
	o.PaymentType = core.NormalizePaymentType(safeGet(row, d.paymentType))

	value, err := core.ParseAmount(safeGet(row, d.paymentValue))
	if err != nil {
		return o, &RowError{Line: line, Column: ColPaymentValue, Err: err}
	}
	o.PaymentValue = value

	purchased, ok, err := parseTimestamp(safeGet(row, d.purchasedAt))
	if err != nil {
		return o, &RowError{Line: line, Column: ColPurchasedAt, Err: err}
	}
	if !ok {
		return o, &RowError{Line: line, Column: ColPurchasedAt, Err: errors.New("missing value")}
	}
	o.PurchasedAt = purchased

	delivered, _, err := parseTimestamp(safeGet(row, d.deliveredAt))
	if err != nil {
		return o, &RowError{Line: line, Column: ColDeliveredAt, Err: err}
	}
	o.DeliveredAt = delivered

	days, err := parseOptionalFloat(safeGet(row, d.delivery))
	if err != nil {
		return o, &RowError{Line: line, Column: ColDeliveryTime, Err: err}
	}
	o.DeliveryTime = days

	return o, nil
}

// ParseRecords decodes a header and its data rows. The header is line 1.
func ParseRecords(header []string, rows [][]string) ([]core.Order, error) {
	dec, err := NewDecoder(header)
	if err != nil {
		return nil, err
	}
	out := make([]core.Order, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		o, err := dec.Decode(row, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func isNull(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "nat", "null", "none":
		return true
	}
	return false
}

func parseTimestamp(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return time.Time{}, false, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
