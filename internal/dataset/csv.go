package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"digimart/internal/core"
)

// ReadCSV decodes a comma separated order history with a header row.
func ReadCSV(r io.Reader) ([]core.Order, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Missing: RequiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	dec, err := NewDecoder(header)
	if err != nil {
		return nil, err
	}

	var out []core.Order
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isBlank(row) {
			continue
		}
		o, err := dec.Decode(row, line)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// CSVLoader reads the order history from a local file or an http(s) URL.
type CSVLoader struct {
	Location string
	Client   *http.Client
}

// NewCSVLoader returns a loader for location with a bounded HTTP client.
func NewCSVLoader(location string) *CSVLoader {
	return &CSVLoader{
		Location: location,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Load implements Loader.
func (l *CSVLoader) Load(ctx context.Context) (*Table, error) {
	rc, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	orders, err := ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.Location, err)
	}
	LogLoaded(ctx, "csv", orders)
	return New(orders), nil
}

func (l *CSVLoader) open(ctx context.Context) (io.ReadCloser, error) {
	loc := strings.TrimSpace(l.Location)
	if loc == "" {
		return nil, errors.New("dataset location is empty")
	}
	if !isRemote(loc) {
		f, err := os.Open(loc)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		return f, nil
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func isRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// LogLoaded logs what a source produced, including rows whose payment type
// falls outside the canonical set.
func LogLoaded(ctx context.Context, source string, orders []core.Order) {
	unknown := 0
	for _, o := range orders {
		if !o.PaymentType.IsCanonical() {
			unknown++
		}
	}
	slog.InfoContext(ctx, "Dataset loaded", "source", source, "rows", len(orders))
	if unknown > 0 {
		slog.WarnContext(ctx, "Rows with non-canonical payment type", "source", source, "rows", unknown)
	}
}
