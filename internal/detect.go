package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDirName         = "mm-search-bot"
	localStorageDBName = "local_storage.db"
	configFileName     = "config.yaml"
)

// StoragePaths holds the detected paths for local client state
type StoragePaths struct {
	BasePath     string // per-user application directory
	DatabasePath string // SQLite file backing localStorage
	ConfigPath   string // optional YAML configuration
}

// DetectStoragePaths returns the default per-user locations for this OS
func DetectStoragePaths() (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var basePath string
	switch runtime.GOOS {
	case "darwin":
		basePath = filepath.Join(home, "Library/Application Support", appDirName)
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			basePath = filepath.Join(xdg, appDirName)
		} else {
			basePath = filepath.Join(home, ".config", appDirName)
		}
	case "windows":
		basePath = filepath.Join(home, "AppData", "Roaming", appDirName)
	default:
		return StoragePaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return pathsUnder(basePath), nil
}

// GetStoragePaths resolves a custom location (database file or directory),
// falling back to detection when custom is empty.
func GetStoragePaths(custom string) (StoragePaths, error) {
	if custom == "" {
		return DetectStoragePaths()
	}
	custom = expandHome(custom)
	if strings.HasSuffix(custom, ".db") {
		paths := pathsUnder(filepath.Dir(custom))
		paths.DatabasePath = custom
		return paths, nil
	}
	return pathsUnder(custom), nil
}

// DatabaseExists checks whether the localStorage database file exists
func (sp StoragePaths) DatabaseExists() bool {
	_, err := os.Stat(sp.DatabasePath)
	return err == nil
}

// ConfigExists checks whether a config file exists
func (sp StoragePaths) ConfigExists() bool {
	_, err := os.Stat(sp.ConfigPath)
	return err == nil
}

func pathsUnder(base string) StoragePaths {
	return StoragePaths{
		BasePath:     base,
		DatabasePath: filepath.Join(base, localStorageDBName),
		ConfigPath:   filepath.Join(base, configFileName),
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
