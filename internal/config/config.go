package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/breeze-rmm/driverwatch/internal/logging"
)

var log = logging.L("config")

const (
	// FileName is the settings file inside the data directory.
	FileName = "config.txt"
	// EnvPrefix is prepended to upper-cased keys for environment overrides.
	EnvPrefix = "DRIVERWATCH"

	DefaultCatalogURL = "https://gfwsl.geforce.com/services_toolkit/services/com/nvidia/services/AjaxDriverService.php"
)

// Config is built once at startup and passed by value afterwards.
type Config struct {
	SeriesID     string `mapstructure:"series_id"`
	FamilyID     string `mapstructure:"family_id"`
	OSID         string `mapstructure:"os_id"`
	LanguageCode string `mapstructure:"language_code"`
	ArchiverPath string `mapstructure:"7zip_path"`

	CatalogURL             string `mapstructure:"catalog_url"`
	CatalogTimeoutSeconds  int    `mapstructure:"catalog_timeout_seconds"`
	CatalogMaxRetries      int    `mapstructure:"catalog_max_retries"`
	DownloadTimeoutMinutes int    `mapstructure:"download_timeout_minutes"`
	ScratchDir             string `mapstructure:"scratch_dir"`
	MinFreeDiskMB          int    `mapstructure:"min_free_disk_mb"`
	EmptyCatalogOK         bool   `mapstructure:"empty_catalog_ok"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// DataDir is where config.txt, skip markers and the log live. It is
	// resolved from the command line, never read from the file.
	DataDir string `mapstructure:"-"`
}

// defaults lists every recognized key and its built-in value. The profile
// defaults target an RTX 2080 Super on Windows 11, en-US.
var defaults = map[string]any{
	"series_id":     "107",
	"family_id":     "904",
	"os_id":         "135",
	"language_code": "1033",
	"7zip_path":     `C:\Program Files\7-Zip\7z.exe`,

	"catalog_url":              DefaultCatalogURL,
	"catalog_timeout_seconds":  30,
	"catalog_max_retries":      2,
	"download_timeout_minutes": 0,
	"scratch_dir":              "",
	"min_free_disk_mb":         2048,
	"empty_catalog_ok":         false,

	"log_level":       "info",
	"log_format":      "text",
	"log_max_size_mb": 10,
	"log_max_backups": 3,
}

// Default returns the built-in configuration for dataDir.
func Default(dataDir string) Config {
	cfg, err := decode(newViper(), dataDir)
	if err != nil {
		// defaults are static; failing to decode them is a programming error
		panic(err)
	}
	return cfg
}

// Load reads <dataDir>/config.txt, creating an empty file when it does not
// exist, and applies DRIVERWATCH_* environment overrides. Unknown keys are
// logged and ignored.
func Load(dataDir string) (Config, error) {
	return LoadFile(dataDir, filepath.Join(dataDir, FileName))
}

// LoadFile is Load with an explicit settings path.
func LoadFile(dataDir, path string) (Config, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return Config{}, fmt.Errorf("create data directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("creating empty settings file", "path", path)
		if err := os.WriteFile(path, nil, 0600); err != nil {
			return Config{}, fmt.Errorf("create settings file: %w", err)
		}
		data = nil
	} else if err != nil {
		return Config{}, fmt.Errorf("read settings file: %w", err)
	}

	values, err := ParseLines(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	known := make(map[string]any, len(values))
	for _, key := range sortedKeys(values) {
		if _, ok := defaults[key]; !ok {
			log.Error("unknown settings key", "key", key)
			continue
		}
		known[key] = values[key]
	}

	v := newViper()
	if err := v.MergeConfigMap(known); err != nil {
		return Config{}, fmt.Errorf("merge settings: %w", err)
	}
	return decode(v, dataDir)
}

// ParseLines decodes the "key = value" settings format. Blank lines and
// lines starting with '#' are skipped, as are lines without " = ".
// Keys are case-sensitive.
func ParseLines(data []byte) (map[string]any, error) {
	out := make(map[string]any)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		key, value, ok := strings.Cut(line, " = ")
		if !ok {
			log.Warn("ignoring malformed settings line", "line", line)
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, sc.Err()
}

// Timeouts derived from the integer settings.

func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}

func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutMinutes) * time.Minute
}

// SettingsPath is the location of config.txt.
func (c Config) SettingsPath() string {
	return filepath.Join(c.DataDir, FileName)
}

// LogPath is the location of the rotating log file.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "driverwatch.log")
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper, dataDir string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode settings: %w", err)
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "driverwatch")
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "driverwatch")
	default:
		return filepath.Join(os.Getenv("HOME"), ".config", "driverwatch")
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
