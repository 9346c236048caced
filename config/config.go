package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"rosterload/student"
)

const (
	KeyAPIBaseURL       = "api.base_url"
	KeyAPIToken         = "api.token"
	KeyAPITimeout       = "api.timeout"
	KeyImportMode       = "import.mode"
	KeyImportPrimaryKey = "import.primary_key"
	KeyExportDir        = "export.dir"
	KeyExportFormats    = "export.formats"
	KeyStorageDB        = "storage.db"
)

type Config struct {
	API     APIConfig     `mapstructure:"api" validate:"required"`
	Import  ImportConfig  `mapstructure:"import"`
	Export  ExportConfig  `mapstructure:"export"`
	Storage StorageConfig `mapstructure:"storage"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ImportConfig struct {
	Mode       string `mapstructure:"mode" validate:"omitempty,oneof=insert upsert"`
	PrimaryKey string `mapstructure:"primary_key"`
}

type ExportConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats" validate:"dive,oneof=csv json excel xlsx"`
}

type StorageConfig struct {
	DB string `mapstructure:"db" validate:"required"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# rosterload configuration
api:
  base_url: "https://admin.example.edu/api"
  # token: "<bearer token>"
  timeout: 60s

import:
  # insert or upsert
  mode: insert
  # required for upsert: email, usn or enrollment_number
  primary_key: ""

export:
  dir: "."
  formats:
    - csv

storage:
  db: "./rosterload.db"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	normalize(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateImport(cfg.Import); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPITimeout, 60*time.Second)
	v.SetDefault(KeyImportMode, "insert")
	v.SetDefault(KeyImportPrimaryKey, "")
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyExportFormats, []string{"csv"})
	v.SetDefault(KeyStorageDB, "./rosterload.db")
}

func normalize(cfg *Config) {
	cfg.API.BaseURL = strings.TrimSpace(cfg.API.BaseURL)
	cfg.API.Token = strings.TrimSpace(cfg.API.Token)
	cfg.Import.Mode = strings.ToLower(strings.TrimSpace(cfg.Import.Mode))
	cfg.Import.PrimaryKey = strings.ToLower(strings.TrimSpace(cfg.Import.PrimaryKey))
	for i, format := range cfg.Export.Formats {
		cfg.Export.Formats[i] = strings.ToLower(strings.TrimSpace(format))
	}
}

func validateImport(cfg ImportConfig) error {
	if cfg.PrimaryKey != "" && !student.IsPrimaryCandidate(cfg.PrimaryKey) {
		return fmt.Errorf(
			"validation failed: import.primary_key %q is not supported (valid: %s)",
			cfg.PrimaryKey,
			strings.Join(student.PrimaryCandidates(), ", "),
		)
	}
	if cfg.Mode == "upsert" && cfg.PrimaryKey == "" {
		return fmt.Errorf("validation failed: import.primary_key is required when import.mode is upsert")
	}
	return nil
}
