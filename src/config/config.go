package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvFileVar points at an alternate .env when none sits beside the
	// executable.
	EnvFileVar = "ELEMENT_DIGITIZER_ENV"

	DefaultHotkey         = "Ctrl+Shift+C"
	DefaultDatasetDir     = "database/ui_elements"
	DefaultMinSelectionPx = 10
	// Overlay translucency defaults: 20% grey dim, 10% tinted selection
	// fill, both on a 0..255 scale.
	DefaultDimAlpha  = 51
	DefaultFillAlpha = 25

	DefaultSaveDeadlineSec = 10

	// DefaultSoftwareVersion stamps records when SOFTWARE_VERSION is unset.
	DefaultSoftwareVersion = "1.0.0"
)

type LoadOptions struct {
	DatasetDirOverride string
}

type Config struct {
	Hotkey            string
	DatasetDir        string
	EnableFileLogging bool
	MinSelectionPx    int
	DimAlpha          int
	FillAlpha         int
	Author            string
	SoftwareVersion   string
	SaveDeadlineSec   int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use ELEMENT_DIGITIZER_ENV as a path to a config file
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	datasetDir := getEnvWithDefault("DATASET_DIR", DefaultDatasetDir)
	if override := strings.TrimSpace(opts.DatasetDirOverride); override != "" {
		datasetDir = override
	}

	cfg := &Config{
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		DatasetDir:        datasetDir,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		MinSelectionPx:    getEnvInt("MIN_SELECTION_PX", DefaultMinSelectionPx),
		DimAlpha:          getEnvAlpha("OVERLAY_DIM_ALPHA", DefaultDimAlpha),
		FillAlpha:         getEnvAlpha("OVERLAY_FILL_ALPHA", DefaultFillAlpha),
		Author:            os.Getenv("AUTHOR"),
		SoftwareVersion:   getEnvWithDefault("SOFTWARE_VERSION", DefaultSoftwareVersion),
		SaveDeadlineSec:   getEnvInt("SAVE_DEADLINE_SEC", DefaultSaveDeadlineSec),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvAlpha(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 255 {
			return n
		}
	}
	return defaultValue
}
