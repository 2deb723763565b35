// Package config holds the export options read from an ifcpset.yaml file.
//
// Property-set switches are tri-state: an unset switch takes its default,
// which may depend on the export version (ExportInternal is off for
// IFC2x3CV2). CLI flags override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ifcpset/internal/classification"
	"github.com/roach88/ifcpset/internal/measure"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/registry"
)

// Config is the complete export configuration.
type Config struct {
	// Version is the export format version, e.g. "IFC2x3".
	Version string `yaml:"version"`
	// View is the model view definition, e.g. "FMHandOverView".
	View            string `yaml:"view,omitempty"`
	DuplicatePolicy string `yaml:"duplicate_policy,omitempty"`
	// Locale selects localized parameter names, e.g. "fr".
	Locale string `yaml:"locale,omitempty"`
	// LinearScale overrides the model's scale when non-zero.
	LinearScale float64 `yaml:"linear_scale,omitempty"`
	Cache       bool    `yaml:"cache"`
	Author      string  `yaml:"author,omitempty"`

	PropertySets   PropertySetOptions            `yaml:"property_sets"`
	Classification classification.Classification `yaml:"classification,omitempty"`
	Logging        LoggingConfig                 `yaml:"logging"`

	// dir resolves relative paths; set by Load.
	dir string
}

// PropertySetOptions selects which groups of sets are exported.
// A nil switch takes its default.
type PropertySetOptions struct {
	ExportIFCCommon        *bool `yaml:"export_ifc_common,omitempty"`
	ExportInternal         *bool `yaml:"export_internal,omitempty"`
	ExportBaseQuantities   *bool `yaml:"export_base_quantities,omitempty"`
	ExportSchedulesAsPsets *bool `yaml:"export_schedules_as_psets,omitempty"`
	ExportUserDefinedPsets *bool `yaml:"export_user_defined_psets,omitempty"`

	// UserDefinedPsetsFiles are CUE table files, relative to the config
	// file. Only read when ExportUserDefinedPsets is on.
	UserDefinedPsetsFiles []string `yaml:"user_defined_psets_files,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Version:         string(registry.IFC2x3),
		DuplicatePolicy: string(registry.KeepDuplicates),
		Cache:           true,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.dir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("IFCPSET_VERSION"); v != "" {
		c.Version = v
	}
	if v := os.Getenv("IFCPSET_LOCALE"); v != "" {
		c.Locale = v
	}
}

// Validate checks values that cannot be checked while parsing.
func (c *Config) Validate() error {
	if _, err := registry.ParseVersion(c.Version); err != nil {
		return err
	}
	if _, err := registry.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		return err
	}
	if c.LinearScale < 0 {
		return fmt.Errorf("linear_scale must not be negative, got %v", c.LinearScale)
	}
	if err := c.Classification.Validate(); err != nil {
		return fmt.Errorf("classification: %w", err)
	}
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q (valid: json, console)", c.Logging.Format)
	}
	if c.ExportUserDefinedPsets() && len(c.PropertySets.UserDefinedPsetsFiles) == 0 {
		return fmt.Errorf("export_user_defined_psets is on but no user_defined_psets_files are listed")
	}
	return nil
}

func (c *Config) version() registry.Version {
	v, err := registry.ParseVersion(c.Version)
	if err != nil {
		return registry.Version(c.Version)
	}
	return v
}

func boolOr(b *bool, def bool) bool {
	if b != nil {
		return *b
	}
	return def
}

// ExportIFCCommon reports whether the standard Pset_*Common sets are
// exported. Default: on.
func (c *Config) ExportIFCCommon() bool {
	return boolOr(c.PropertySets.ExportIFCCommon, true)
}

// ExportInternal reports whether the host's own parameter groups are
// exported. Default: on, except for IFC2x3CV2.
func (c *Config) ExportInternal() bool {
	return boolOr(c.PropertySets.ExportInternal, c.version() != registry.IFC2x3CV2)
}

// ExportBaseQuantities reports whether BaseQuantities sets are exported.
// Default: off.
func (c *Config) ExportBaseQuantities() bool {
	return boolOr(c.PropertySets.ExportBaseQuantities, false)
}

// ExportSchedulesAsPsets reports whether host schedules become property
// sets. Default: off.
func (c *Config) ExportSchedulesAsPsets() bool {
	return boolOr(c.PropertySets.ExportSchedulesAsPsets, false)
}

// ExportUserDefinedPsets reports whether user table files are exported.
// Default: off.
func (c *Config) ExportUserDefinedPsets() bool {
	return boolOr(c.PropertySets.ExportUserDefinedPsets, false)
}

// Profiles derives the registry profiles from the switches and version.
// The COBie sets are added only for the IFCCOBIE version.
func (c *Config) Profiles() []string {
	var profiles []string
	if c.ExportIFCCommon() {
		profiles = append(profiles, registry.ProfileCommon)
	}
	if c.version() == registry.IFCCOBIE {
		profiles = append(profiles, registry.ProfileCOBie)
	}
	if c.ExportBaseQuantities() {
		profiles = append(profiles, registry.ProfileBaseQuantities)
	}
	if c.ExportInternal() {
		profiles = append(profiles, registry.ProfileInternal)
	}
	return profiles
}

// UserTables returns the user table files resolved against the config
// file's directory, or nil when user-defined sets are off.
func (c *Config) UserTables() []string {
	if !c.ExportUserDefinedPsets() {
		return nil
	}
	out := make([]string, len(c.PropertySets.UserDefinedPsetsFiles))
	for i, f := range c.PropertySets.UserDefinedPsetsFiles {
		if filepath.IsAbs(f) || c.dir == "" {
			out[i] = f
			continue
		}
		out[i] = filepath.Join(c.dir, f)
	}
	return out
}

// RegistryOptions builds the registry options for one model. m may be nil
// when no model is involved (listing sets).
func (c *Config) RegistryOptions(m *model.Model, logger *zap.Logger) (registry.Options, error) {
	if err := c.Validate(); err != nil {
		return registry.Options{}, err
	}
	opts := registry.Options{
		Profiles: c.Profiles(),
		Version:  c.version(),
		View:     c.View,
		Policy:   registry.DuplicatePolicy(c.DuplicatePolicy),
		Tables:   c.UserTables(),
		Logger:   logger,
	}
	if c.ExportSchedulesAsPsets() && m != nil && len(m.Schedules) > 0 {
		opts.Extra = append(opts.Extra, registry.ScheduleSets("schedules", m.Schedules))
	}
	return opts, nil
}

// Scale returns the export unit context: the configured scale, or the
// model's when unset.
func (c *Config) Scale(m *model.Model) measure.ScaleContext {
	if c.LinearScale > 0 {
		return measure.ScaleContext{LinearScale: c.LinearScale}
	}
	if m != nil {
		return measure.ScaleContext{LinearScale: m.Scale()}
	}
	return measure.DefaultScale
}
