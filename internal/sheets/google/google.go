// Package google reads the order history from a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"digimart/internal/dataset"
)

// DefaultSheetName is used when Config.SheetName is empty.
const DefaultSheetName = "Orders"

// Config selects the sheet to read and how to authenticate.
type Config struct {
	SpreadsheetID string
	SheetName     string

	// Service account credentials: inline JSON wins over a file path. When
	// both are empty GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string

	// OAuth user credentials, used when no service account is configured:
	// the client secret file and the token saved by digimart-cli sheets-auth.
	OAuthClientFile string
	OAuthTokenFile  string

	// Extra client options, appended after the credentials.
	Options []goption.ClientOption
}

// Loader implements dataset.Loader over one sheet. The first row must be the
// header.
type Loader struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ dataset.Loader = (*Loader)(nil)

// NewLoader creates a Sheets client for cfg.
func NewLoader(ctx context.Context, cfg Config) (*Loader, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Loader{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a read-only Sheets service. With explicit
// client options and no credentials, authentication is left to those options.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		opts = append(opts, goption.WithCredentialsJSON([]byte(serviceAccountJSON)))
	case serviceAccountFile != "":
		credentialsJSON, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials file", "path", serviceAccountFile)
		opts = append(opts, goption.WithCredentialsJSON(credentialsJSON))
	case strings.TrimSpace(cfg.OAuthClientFile) != "":
		ts, err := oauthTokenSource(ctx, cfg.OAuthClientFile, cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth user credentials", "token", cfg.OAuthTokenFile)
		opts = append(opts, goption.WithTokenSource(ts))
	case len(cfg.Options) == 0:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	opts = append(opts, cfg.Options...)

	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Load implements dataset.Loader.
func (l *Loader) Load(ctx context.Context) (*dataset.Table, error) {
	if l.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", l.sheetName)
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}

	header, rows := splitValues(resp.Values)
	if header == nil {
		return nil, fmt.Errorf("read range %s: %w", rng, &dataset.SchemaError{Missing: dataset.RequiredColumns})
	}
	orders, err := dataset.ParseRecords(header, rows)
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}
	dataset.LogLoaded(ctx, "sheets", orders)
	return dataset.New(orders), nil
}
