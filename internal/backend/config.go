package backend

import (
	"fmt"

	"finboard/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		BaseCSVPath:     appConfig.BaseCSVPath,
		OverrideCSVPath: appConfig.OverrideCSVPath,

		BaseDBPath:     appConfig.BaseDBPath,
		OverrideDBPath: appConfig.OverrideDBPath,

		SheetsTTL: appConfig.SheetsTTL,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.BaseCSVPath == "" {
			return fmt.Errorf("base CSV path is required for csv backend")
		}
		if c.OverrideCSVPath == "" {
			return fmt.Errorf("override CSV path is required for csv backend")
		}

	case SQLiteBackend:
		if c.BaseDBPath == "" {
			return fmt.Errorf("base database path is required for sqlite backend")
		}
		if c.OverrideDBPath == "" {
			return fmt.Errorf("override database path is required for sqlite backend")
		}

	case SheetsBackend:
		// Spreadsheet ID and credentials are read from the environment
		// by the sheets store. Overrides still live in a local database.
		if c.OverrideDBPath == "" {
			return fmt.Errorf("override database path is required for sheets backend")
		}

	case MemoryBackend:
		// Memory backend doesn't require additional configuration.
	}

	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, CSVBackend, SQLiteBackend, SheetsBackend}
}
