package backend

import (
	"context"
	"fmt"
	"log/slog"

	"digimart/internal/dataset"
	gsheet "digimart/internal/sheets/google"
	"digimart/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateLoader implements Factory.CreateLoader
func (f *DefaultFactory) CreateLoader(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVLoader(config)
	case SQLiteBackend:
		return f.createSQLiteLoader(config)
	case MySQLBackend:
		return f.createMySQLLoader(ctx, config)
	case SheetsBackend:
		return f.createSheetsLoader(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVLoader(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized CSV source", "location", config.CSVLocation)
	return &BackendResult{Loader: dataset.NewCSVLoader(config.CSVLocation)}, nil
}

func (f *DefaultFactory) createSQLiteLoader(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite source", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Loader:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMySQLLoader(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewMySQLRepository(ctx, config.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL repository: %w", err)
	}

	f.logger.Info("Initialized MySQL source")

	return &BackendResult{
		Loader:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsLoader(ctx context.Context, config Config) (*BackendResult, error) {
	loader, err := gsheet.NewLoader(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		OAuthClientFile: config.GoogleOAuthClientFile,
		OAuthTokenFile:  config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets source", "sheet", config.GoogleSheetName)

	return &BackendResult{Loader: loader}, nil
}

// Load creates the configured loader, reads the table and releases the
// loader's resources.
func Load(ctx context.Context, factory Factory, config Config) (*dataset.Table, error) {
	result, err := factory.CreateLoader(ctx, config)
	if err != nil {
		return nil, err
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}
	table, err := result.Loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s dataset: %w", config.Type, err)
	}
	return table, nil
}
