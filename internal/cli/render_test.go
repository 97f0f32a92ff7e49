package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digimart/internal/core"
	"digimart/internal/dataset"
	"digimart/internal/report"
)

func sampleReport(t *testing.T, start, end core.Date, year int) core.Report {
	t.Helper()
	five, sixHalf := 5.0, 6.5
	table := dataset.New([]core.Order{
		{OrderID: "A", PaymentType: core.CreditCard, PaymentValue: decimal.NewFromInt(10), PurchasedAt: time.Date(2017, 3, 1, 10, 0, 0, 0, time.UTC), DeliveryTime: &five},
		{OrderID: "A", PaymentType: core.CreditCard, PaymentValue: decimal.NewFromInt(10), PurchasedAt: time.Date(2017, 3, 1, 10, 0, 0, 0, time.UTC), DeliveryTime: &five},
		{OrderID: "B", PaymentType: core.Boleto, PaymentValue: decimal.NewFromInt(20), PurchasedAt: time.Date(2017, 3, 2, 10, 0, 0, 0, time.UTC), DeliveryTime: &sixHalf},
	})
	rep, err := report.Build(table, report.Params{Range: core.NewDateRange(start, end), Year: year})
	require.NoError(t, err)
	return rep
}

func TestRenderText(t *testing.T) {
	rep := sampleReport(t, core.NewDate(2017, 1, 1), core.NewDate(2017, 12, 31), 2017)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, rep, []int{2017}, FormatText))
	out := buf.String()

	assert.Contains(t, out, "DigiMart orders 2017-01-01 to 2017-12-31")
	assert.Contains(t, out, "US $40.00")
	assert.Contains(t, out, "US $13.33")
	assert.Contains(t, out, "Credit Card")
	assert.Contains(t, out, "March")
	assert.Contains(t, out, "6.5 days")
	assert.Less(t, strings.Index(out, "Boleto"), strings.Index(out, "Credit Card"), "canonical payment type order")
}

func TestRenderTextEmptySelection(t *testing.T) {
	rep := sampleReport(t, core.NewDate(2019, 1, 1), core.NewDate(2019, 1, 31), 2019)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, rep, nil, ""))
	out := buf.String()

	assert.Contains(t, out, "No orders in the selected range")
	assert.Contains(t, out, "No orders in 2019")
	assert.Contains(t, out, "No deliveries")
	assert.Contains(t, out, "n/a")
}

func TestRenderJSON(t *testing.T) {
	rep := sampleReport(t, core.NewDate(2017, 1, 1), core.NewDate(2017, 12, 31), 2017)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, rep, []int{2017}, "JSON"))

	var got report.JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, "40.00", got.Summary.TotalTransactions)
	assert.Equal(t, "13.33", got.Summary.AverageTransactions)
	assert.Equal(t, []int{2017}, got.Years)
	require.Len(t, got.Monthly, 1)
	assert.Equal(t, "March", got.Monthly[0].Month)
}

func TestRenderMarkdown(t *testing.T) {
	rep := sampleReport(t, core.NewDate(2017, 1, 1), core.NewDate(2017, 12, 31), 2017)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, rep, nil, FormatMarkdown))
	out := buf.String()

	assert.Contains(t, out, "# DigiMart orders 2017-01-01 to 2017-12-31")
	assert.Contains(t, out, "| Total transactions | US $40.00 |")
	assert.Contains(t, out, "| Boleto | 1 |")
	assert.Contains(t, out, "| Credit Card | 1 |")
	assert.Contains(t, out, "| March | 2 | US $40.00 |")
	assert.Contains(t, out, "| 6.5 | 1 |")
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := RenderReport(&buf, core.Report{}, nil, "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yaml")
	assert.Empty(t, buf.String())
}

func TestBar(t *testing.T) {
	assert.Empty(t, bar(0, 10))
	assert.Empty(t, bar(3, 0))
	assert.Equal(t, barWidth, strings.Count(bar(10, 10), "█"))
	assert.Equal(t, 1, strings.Count(bar(1, 1000), "█"), "small values stay visible")
}
