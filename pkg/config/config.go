package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	xdgAppName = "organizer"
	configFile = "config.json"

	envPrefix = "ORGANIZER_"

	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

type Config struct {
	Store    string `json:"store"`
	DataPath string `json:"data_path,omitempty"`

	AnalysisMinutes int `json:"analysis_interval_minutes"`
	SweepSeconds    int `json:"sweep_interval_seconds"`

	WorkStartHour int `json:"work_start_hour"`
	WorkEndHour   int `json:"work_end_hour"`
	HorizonDays   int `json:"horizon_days"`
	SlotMinutes   int `json:"slot_minutes"`

	DriveSync bool   `json:"drive_sync"`
	DriveFile string `json:"drive_file"`
	// Calendar names the Google calendar whose events block scheduling. Empty disables it.
	Calendar string `json:"calendar,omitempty"`
}

func Default() *Config {
	return &Config{
		Store:           StoreFile,
		AnalysisMinutes: 5,
		SweepSeconds:    60,
		WorkStartHour:   9,
		WorkEndHour:     18,
		HorizonDays:     7,
		SlotMinutes:     30,
		DriveFile:       "tasks_app_data.json",
	}
}

func (c *Config) AnalysisInterval() time.Duration {
	return time.Duration(c.AnalysisMinutes) * time.Minute
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// ResolveDataPath returns DataPath, or the backend's default file under the config directory.
func (c *Config) ResolveDataPath() (string, error) {
	if c.DataPath != "" {
		return c.DataPath, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if c.Store == StoreSQLite {
		return filepath.Join(dir, "data.db"), nil
	}
	return filepath.Join(dir, "data.json"), nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Store != StoreFile && c.Store != StoreSQLite {
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreFile, StoreSQLite, c.Store))
	}
	if c.AnalysisMinutes <= 0 {
		errs = append(errs, errors.New("analysis interval must be positive"))
	}
	if c.SweepSeconds <= 0 {
		errs = append(errs, errors.New("sweep interval must be positive"))
	}
	if c.WorkStartHour < 0 || c.WorkEndHour > 24 || c.WorkStartHour >= c.WorkEndHour {
		errs = append(errs, fmt.Errorf("invalid work window %d-%d", c.WorkStartHour, c.WorkEndHour))
	}
	if c.HorizonDays <= 0 {
		errs = append(errs, errors.New("horizon days must be positive"))
	}
	if c.SlotMinutes <= 0 {
		errs = append(errs, errors.New("slot minutes must be positive"))
	}
	if c.DriveSync && c.DriveFile == "" {
		errs = append(errs, errors.New("drive file name is required when drive sync is enabled"))
	}
	return errors.Join(errs...)
}

func GetConfigDir() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, then .env and ORGANIZER_* overrides, and validates the result.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile reads path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	str := func(name string, dst *string) {
		if v := getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		v := getenv(envPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Warning: ignoring %s%s=%q: %v", envPrefix, name, v, err)
			return
		}
		*dst = n
	}

	str("STORE", &cfg.Store)
	str("DATA_PATH", &cfg.DataPath)
	num("ANALYSIS_INTERVAL_MINUTES", &cfg.AnalysisMinutes)
	num("SWEEP_INTERVAL_SECONDS", &cfg.SweepSeconds)
	num("WORK_START_HOUR", &cfg.WorkStartHour)
	num("WORK_END_HOUR", &cfg.WorkEndHour)
	num("HORIZON_DAYS", &cfg.HorizonDays)
	num("SLOT_MINUTES", &cfg.SlotMinutes)
	str("DRIVE_FILE", &cfg.DriveFile)
	str("CALENDAR", &cfg.Calendar)
	if v := getenv(envPrefix + "DRIVE_SYNC"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			log.Printf("Warning: ignoring %sDRIVE_SYNC=%q: %v", envPrefix, v, err)
		} else {
			cfg.DriveSync = b
		}
	}
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
