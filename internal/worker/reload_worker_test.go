package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digimart/internal/amqp"
	"digimart/internal/core"
	"digimart/internal/dataset"
)

type recordingTarget struct {
	mu     sync.Mutex
	tables []*dataset.Table
}

func (r *recordingTarget) Replace(table *dataset.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, table)
}

func (r *recordingTarget) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tables)
}

func tableOf(n int) *dataset.Table {
	orders := make([]core.Order, n)
	for i := range orders {
		orders[i] = core.Order{
			OrderID:      string(rune('a' + i)),
			PaymentType:  core.Boleto,
			PaymentValue: decimal.NewFromInt(1),
			PurchasedAt:  time.Date(2017, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
	}
	return dataset.New(orders)
}

func TestHandleDatasetImportedReloads(t *testing.T) {
	target := &recordingTarget{}
	w := NewReloadWorker(func(context.Context) (*dataset.Table, error) { return tableOf(2), nil }, target)

	err := w.HandleDatasetImported(context.Background(), amqp.NewDatasetImportedMessage("sqlite", "", 2))
	require.NoError(t, err)
	require.Equal(t, 1, target.count())
	assert.Equal(t, 2, target.tables[0].Len())

	stats := w.Stats()
	assert.Equal(t, int64(1), stats.Reloads)
	assert.False(t, stats.LastReload.IsZero())
}

func TestHandleDatasetImportedSkipsStaleMessages(t *testing.T) {
	target := &recordingTarget{}
	w := NewReloadWorker(func(context.Context) (*dataset.Table, error) { return tableOf(1), nil }, target)

	stale := amqp.NewDatasetImportedMessage("sqlite", "", 1)
	stale.Timestamp = time.Now().Add(-time.Second)
	require.NoError(t, w.Reload(context.Background()))

	require.NoError(t, w.HandleDatasetImported(context.Background(), stale))
	assert.Equal(t, 1, target.count(), "an import older than the last reload is already served")
	assert.Equal(t, int64(1), w.Stats().Skipped)

	fresh := amqp.NewDatasetImportedMessage("sqlite", "", 1)
	fresh.Timestamp = time.Now().Add(time.Second)
	require.NoError(t, w.HandleDatasetImported(context.Background(), fresh))
	assert.Equal(t, 2, target.count())
}

func TestReloadFailureKeepsTable(t *testing.T) {
	target := &recordingTarget{}
	w := NewReloadWorker(func(context.Context) (*dataset.Table, error) {
		return nil, errors.New("source unavailable")
	}, target)

	err := w.HandleDatasetImported(context.Background(), amqp.NewDatasetImportedMessage("sqlite", "", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import:sqlite")
	assert.Zero(t, target.count())
	assert.Equal(t, int64(1), w.Stats().Failures)
	assert.True(t, w.Stats().LastReload.IsZero())
}

func TestRunPeriodic(t *testing.T) {
	target := &recordingTarget{}
	w := NewReloadWorker(func(context.Context) (*dataset.Table, error) { return tableOf(1), nil }, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return target.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop after cancel")
	}
}
