package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

type ConfigParam struct {
	ServerPort string `toml:"server_port" validate:"required,numeric"`
	HandleCORS bool   `toml:"handle_cors"`
	LogLevel   string `toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`

	CORSAllowedOrigins []string `toml:"cors_allowed_origins" validate:"dive,required"`

	DB                 DBConfig                 `toml:"db"`
	Bom                BomConfig                `toml:"bom"`
	InternalComponents InternalComponentsConfig `toml:"internal_components"`
	Metrics            MetricsConfig            `toml:"metrics"`
}

type DBConfig struct {
	Driver          string `toml:"driver" validate:"required,oneof=postgresql sqlite"`
	DSN             string `toml:"dsn" validate:"required"`
	MaxOpenConns    int    `toml:"max_open_conns" validate:"gte=0"`
	ConnectAttempts uint   `toml:"connect_attempts" validate:"gte=1"`
	Migrate         bool   `toml:"migrate"`
}

type BomConfig struct {
	CycloneDXEnabled bool    `toml:"cyclonedx_enabled"`
	ValidateSchema   bool    `toml:"validate_schema"`
	Workers          int     `toml:"workers" validate:"gte=1"`
	QueueSize        int     `toml:"queue_size" validate:"gte=1"`
	MaxUploadBytes   int64   `toml:"max_upload_bytes" validate:"gte=1024"`
	UploadsPerSecond float64 `toml:"uploads_per_second" validate:"gte=0"`
	UploadBurst      int     `toml:"upload_burst" validate:"gte=0"`
}

// InternalComponentsConfig holds the patterns that flag a component as
// internal to the organization. Empty patterns match nothing.
type InternalComponentsConfig struct {
	GroupsRegex string `toml:"groups_regex" validate:"omitempty,regex"`
	NamesRegex  string `toml:"names_regex" validate:"omitempty,regex"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path" validate:"omitempty,startswith=/"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

// SetConfig replaces the active configuration.
func SetConfig(c *ConfigParam) {
	cfg = c
}

func Default() *ConfigParam {
	return &ConfigParam{
		ServerPort: "8194",
		HandleCORS: true,
		LogLevel:   "info",

		CORSAllowedOrigins: []string{"http://localhost:8190"},
		DB: DBConfig{
			Driver:          "sqlite",
			DSN:             "inventory.db",
			MaxOpenConns:    10,
			ConnectAttempts: 5,
			Migrate:         true,
		},
		Bom: BomConfig{
			CycloneDXEnabled: true,
			ValidateSchema:   true,
			Workers:          4,
			QueueSize:        64,
			MaxUploadBytes:   64 << 20,
			UploadsPerSecond: 0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadConfig reads a TOML file over the defaults. An empty filename loads
// the defaults only.
func LoadConfig(filename string) error {
	cp := Default()
	if filename != "" {
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("error reading config file: %v", err)
		}
		if _, err := toml.Decode(string(content), cp); err != nil {
			return fmt.Errorf("error parsing config file: %v", err)
		}
	}
	if err := Validate(cp); err != nil {
		return err
	}
	cfg = cp
	return nil
}

// Validate checks a configuration.
func Validate(cp *ConfigParam) error {
	if err := newValidator().Struct(cp); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config: %s failed on %q", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("invalid config: %v", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("regex", validateRegex)
	return v
}

func validateRegex(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

func init() {
	if err := LoadConfig(""); err != nil {
		panic(err)
	}
}
