// =============================================================================
// Suenlace Generator - Configuration Module
// =============================================================================
//
// This module loads the application configuration and the YAML template files
// accepted by `template import`.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (optional)
//   3. .env file, loaded into the process environment
//   4. SUENLACE_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
)

// DotEnvPath is the .env file read by Load. A missing file is not an error.
var DotEnvPath = ".env"

// Environment variables that override file values.
const (
	EnvStorePath           = "SUENLACE_STORE_PATH"
	EnvOutputDir           = "SUENLACE_OUTPUT_DIR"
	EnvLogLevel            = "SUENLACE_LOG_LEVEL"
	EnvAdminPassphraseHash = "SUENLACE_ADMIN_PASSPHRASE_HASH"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application settings.
type Config struct {
	// =========================================================================
	// STORE SETTINGS
	// =========================================================================

	// StorePath is the sqlite database file.
	// Default: "./suenlace.db"
	StorePath string `yaml:"store_path"`

	// SeedFile is a JSON seed applied once when the store is empty.
	// Default: "./seed.json"
	SeedFile string `yaml:"seed_file"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir receives the posting files when --out is a bare name or empty.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives dated copies of every produced file.
	// Default: "./output_archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveOutputs enables the archive copy.
	ArchiveOutputs bool `yaml:"archive_outputs"`

	// WriteAdvisoryLog writes <output>_advisories.txt next to the output file.
	WriteAdvisoryLog bool `yaml:"write_advisory_log"`

	// WriteRetries bounds the rename retries on a sharing violation.
	// Default: 10
	WriteRetries int `yaml:"write_retries"`

	// WriteRetryDelay spaces the rename retries.
	// Default: 50ms
	WriteRetryDelay time.Duration `yaml:"write_retry_delay"`

	// =========================================================================
	// ADMIN SETTINGS
	// =========================================================================

	// AdminPassphraseHash is the bcrypt hash guarding `company delete`.
	// Empty means destructive actions are always denied.
	AdminPassphraseHash string `yaml:"admin_passphrase_hash"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	Log LogSettings `yaml:"log"`
}

// LogSettings mirrors logger.LogConfig in YAML form.
type LogSettings struct {
	// Level: trace, debug, info, warn, error. Default: "info"
	Level string `yaml:"level"`

	// Format: console or json. Default: "console"
	Format string `yaml:"format"`

	// File is an optional log file; empty logs to stderr.
	File string `yaml:"file"`
}

// LoggerConfig converts the settings for logger.Setup.
func (l LogSettings) LoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = l.Level
	lc.Format = l.Format
	if l.File != "" {
		lc.Output = l.File
	}
	return lc
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration at path. A missing file yields the defaults so
// the CLI works without any setup.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvPath, err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvAdminPassphraseHash); v != "" {
		cfg.AdminPassphraseHash = v
	}
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.StorePath == "" {
		cfg.StorePath = "./suenlace.db"
	}
	if cfg.SeedFile == "" {
		cfg.SeedFile = "./seed.json"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./output_archive"
	}
	if cfg.WriteRetries == 0 {
		cfg.WriteRetries = 10
	}
	if cfg.WriteRetryDelay == 0 {
		cfg.WriteRetryDelay = 50 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func validate(cfg *Config) error {
	if cfg.WriteRetries < 1 {
		return fmt.Errorf("write_retries must be at least 1, got %d", cfg.WriteRetries)
	}
	if cfg.WriteRetryDelay < 0 {
		return fmt.Errorf("write_retry_delay must not be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}

// =============================================================================
// TEMPLATE FILES
// =============================================================================

// templateFile accepts either a single template document or a list under
// `templates:`.
type templateFile struct {
	Templates []models.Template `yaml:"templates"`
}

// LoadTemplateFile reads the templates declared in one YAML file.
func LoadTemplateFile(path string) ([]models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	if len(file.Templates) == 0 {
		var single models.Template
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
		}
		if single.Name == "" && single.Kind == "" {
			return nil, fmt.Errorf("template file %s declares no template", path)
		}
		file.Templates = []models.Template{single}
	}

	for i := range file.Templates {
		applyTemplateDefaults(&file.Templates[i])
	}
	return file.Templates, nil
}

// LoadTemplateDir loads every *.yaml and *.yml file in dir, in name order.
func LoadTemplateDir(dir string) ([]models.Template, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	var all []models.Template
	for _, file := range files {
		tpls, err := LoadTemplateFile(file)
		if err != nil {
			return nil, err
		}
		all = append(all, tpls...)
	}
	return all, nil
}

// applyTemplateDefaults normalizes values that YAML authors tend to write loosely.
func applyTemplateDefaults(t *models.Template) {
	t.Kind = models.TemplateKind(strings.ToLower(strings.TrimSpace(string(t.Kind))))
	t.CompanyCode = strings.TrimSpace(t.CompanyCode)
	if t.Mapping.FirstRow == 0 {
		t.Mapping.FirstRow = 2
	}
	if t.Mapping.Columns == nil {
		t.Mapping.Columns = map[string]string{}
	}
	for k, v := range t.Mapping.Columns {
		t.Mapping.Columns[k] = strings.ToUpper(strings.TrimSpace(v))
	}
}

// =============================================================================
// JOB MANIFESTS
// =============================================================================

// Job is one batch of a job manifest run by the process command.
type Job struct {
	Kind      string `yaml:"kind"`
	Company   string `yaml:"company"`
	Year      int    `yaml:"year"`
	Template  string `yaml:"template"`
	Input     string `yaml:"in"`
	Sheet     string `yaml:"sheet"`
	Delimiter string `yaml:"delimiter"`
	Output    string `yaml:"out"`
	DryRun    bool   `yaml:"dry_run"`
}

type jobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobFile reads a job manifest. Relative input and output paths are
// resolved against the manifest's directory.
func LoadJobFile(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	var file jobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	if len(file.Jobs) == 0 {
		return nil, fmt.Errorf("job file %s declares no jobs", path)
	}

	base := filepath.Dir(path)
	for i := range file.Jobs {
		j := &file.Jobs[i]
		j.Kind = strings.ToLower(strings.TrimSpace(j.Kind))
		j.Company = strings.TrimSpace(j.Company)
		switch {
		case j.Kind == "":
			return nil, fmt.Errorf("job %d: kind is required", i+1)
		case j.Company == "":
			return nil, fmt.Errorf("job %d: company is required", i+1)
		case j.Year == 0:
			return nil, fmt.Errorf("job %d: year is required", i+1)
		case j.Input == "":
			return nil, fmt.Errorf("job %d: in is required", i+1)
		}
		j.Input = resolve(base, j.Input)
		if j.Output != "" {
			j.Output = resolve(base, j.Output)
		}
	}
	return file.Jobs, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
