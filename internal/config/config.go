package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

const (
	DefaultPath               = "/data/options.json"
	DefaultLocalPath          = "/homeassistant/esphome"
	DefaultCheckPeriodSeconds = 300
	DefaultCommitterName      = "confsync"
	DefaultCommitterEmail     = "confsync@localhost"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "console"
)

// DefaultIgnorePatterns lists the paths never staged unless overridden. The
// ESPHome dashboard moves deleted device configurations into trash/.
var DefaultIgnorePatterns = []string{"trash/"}

var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration of the confsync service. It is read once at
// startup and never changes for the lifetime of the process.
type Config struct {
	RepositoryURI      string   `json:"repositoryUri" required:"true" minLength:"1" description:"Remote repository URL."`
	LocalPath          string   `json:"localPath,omitempty" description:"Directory kept under version control."`
	ESPHomePath        string   `json:"esphomePath,omitempty" description:"Deprecated alias of localPath."`
	RepositoryUsername string   `json:"repositoryUsername,omitempty"`
	RepositoryPassword Secret   `json:"repositoryPassword,omitempty"`
	CheckPeriodSeconds Seconds  `json:"checkPeriodSeconds,omitempty" description:"Polling interval in seconds."`
	CommitterName      string   `json:"committerName,omitempty"`
	CommitterEmail     string   `json:"committerEmail,omitempty"`
	IgnorePatterns     []string `json:"ignorePatterns,omitempty" description:"gitignore patterns excluded from staging for the lifetime of the process."`
	LogLevel           string   `json:"logLevel,omitempty" enum:"debug,info,warn,warning,error"`
	LogFormat          string   `json:"logFormat,omitempty" enum:"console,json"`
	MetricsAddress     string   `json:"metricsAddress,omitempty" description:"Listen address of the prometheus /metrics endpoint."`

	_ struct{} `additionalProperties:"false"`
}

// Seconds is a positive number of seconds. It is accepted both as a JSON
// integer and as a numeric string.
type Seconds int

func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

// CheckPeriod returns the polling interval of the sync loop.
func (c *Config) CheckPeriod() time.Duration {
	return c.CheckPeriodSeconds.Duration()
}

func (c *Config) applyDefaults() {
	c.LocalPath = cmp.Or(c.LocalPath, c.ESPHomePath, DefaultLocalPath)
	c.CheckPeriodSeconds = cmp.Or(c.CheckPeriodSeconds, DefaultCheckPeriodSeconds)
	c.CommitterName = cmp.Or(c.CommitterName, DefaultCommitterName)
	c.CommitterEmail = cmp.Or(c.CommitterEmail, DefaultCommitterEmail)
	c.LogLevel = cmp.Or(c.LogLevel, DefaultLogLevel)
	c.LogFormat = cmp.Or(c.LogFormat, DefaultLogFormat)
	if c.IgnorePatterns == nil {
		c.IgnorePatterns = slices.Clone(DefaultIgnorePatterns)
	}
}

func (c *Config) validate() error {
	if c.RepositoryURI == "" {
		return fmt.Errorf("%w: repositoryUri is required", ErrInvalid)
	}
	if c.CheckPeriodSeconds < 1 {
		return fmt.Errorf("%w: checkPeriodSeconds must be positive, got %d", ErrInvalid, c.CheckPeriodSeconds)
	}
	return nil
}

// Load reads, merges and parses the given configuration files. Later files
// override scalar values of earlier ones.
func Load(filenames ...string) (*Config, error) {
	switch len(filenames) {
	case 0:
		return ParseFile(DefaultPath)
	case 1:
		return ParseFile(filenames[0])
	}

	bs, err := Merge(filenames, false)
	if err != nil {
		return nil, err
	}

	return Parse(bs)
}

func ParseFile(filename string) (*Config, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	cfg, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Parse validates the document against the configuration schema and decodes
// it, applying defaults.
func Parse(bs []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}

	if err := rootSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var cfg Config
	if err := decode(doc, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a raw document against the configuration schema without
// decoding it.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	return rootSchema.Validate(doc)
}

// we use this one so we don't need duplicate tags on every struct
func decode(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           output,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
