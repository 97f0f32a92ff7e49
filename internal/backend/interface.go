package backend

import (
	"context"

	"digimart/internal/dataset"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the loader and an optional cleanup function
type BackendResult struct {
	Loader  dataset.Loader
	Cleanup CleanupFunc
}

// Factory creates dataset loaders based on configuration
type Factory interface {
	// CreateLoader creates a loader for the configured source
	CreateLoader(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for loader creation
type Config struct {
	Type BackendType

	// CSV specific: file path or http(s) URL
	CSVLocation string

	// SQLite specific
	SQLiteDBPath string

	// MySQL specific: driver DSN or mysql:// URL
	MySQLDSN string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
}

// BackendType represents the type of dataset source
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	MySQLBackend  BackendType = "mysql"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, MySQLBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
