package backend

import (
	"errors"
	"fmt"
	"strings"

	"digimart/internal/config"
)

// FromAppConfig picks the loader settings for cfg.DataSource out of the
// application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("app config is nil")
	}

	c := Config{
		Type:                     BackendType(cfg.DataSource),
		CSVLocation:              cfg.DatasetLocation,
		SQLiteDBPath:             cfg.SQLiteDBPath,
		MySQLDSN:                 cfg.MySQLDSN,
		GoogleSpreadsheetID:      cfg.GoogleSpreadsheetID,
		GoogleSheetName:          cfg.GoogleSheetName,
		GoogleServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: cfg.GoogleServiceAccountFile,
		GoogleOAuthClientFile:    cfg.GoogleOAuthClientFile,
		GoogleOAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	}
	if !c.Type.IsValid() {
		return Config{}, fmt.Errorf("unknown data source %q: must be one of %s",
			cfg.DataSource, strings.Join(GetBackendTypeStrings(), ", "))
	}
	return c, nil
}

type setting struct {
	name  string
	value string
}

// required lists the settings a source cannot load without.
func (c Config) required() []setting {
	switch c.Type {
	case CSVBackend:
		return []setting{{"dataset location", c.CSVLocation}}
	case SQLiteBackend:
		return []setting{{"SQLite database path", c.SQLiteDBPath}}
	case MySQLBackend:
		return []setting{{"MySQL DSN", c.MySQLDSN}}
	case SheetsBackend:
		return []setting{
			{"Google Spreadsheet ID", c.GoogleSpreadsheetID},
			{"Google Sheet name", c.GoogleSheetName},
		}
	}
	return nil
}

// Validate reports every required setting the selected source is missing.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	var missing []string
	for _, s := range c.required() {
		if strings.TrimSpace(s.value) == "" {
			missing = append(missing, s.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s backend: missing %s", c.Type, strings.Join(missing, ", "))
	}
	return nil
}

// GetBackendTypes returns the supported sources in DATA_SOURCE order.
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SQLiteBackend, MySQLBackend, SheetsBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}
