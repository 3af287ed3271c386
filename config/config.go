package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/parse"
)

const (
	DefaultData   = "data"
	DefaultListen = ":8080"
)

type DistanceConfig struct {
	// auto, meters or kilometers.
	Unit string `yaml:"unit" validate:"oneof=auto m meters km kilometers"`
}

type LogConfig struct {
	// console or json.
	Format string `yaml:"format" validate:"oneof=console json"`
	Debug  bool   `yaml:"debug"`
}

type Config struct {
	// Snapshot location: a directory or an http(s) base URL.
	Data string `yaml:"data" validate:"required"`

	// Directory of traffic count files. Optional.
	TrafficDir string `yaml:"traffic_dir"`

	Listen    string `yaml:"listen" validate:"required"`
	Storage   string `yaml:"storage" validate:"oneof=memory sqlite"`
	Delimiter string `yaml:"delimiter" validate:"len=1"`

	// Extra headers sent when Data is a URL.
	Headers map[string]string `yaml:"headers"`

	Files    gtfsstats.Files `yaml:"files"`
	Distance DistanceConfig  `yaml:"distance"`
	Log      LogConfig       `yaml:"log"`

	BicycleKmh    float64           `yaml:"bicycle_kmh" validate:"gt=0"`
	ServiceLabels map[string]string `yaml:"service_labels"`
}

func Default() *Config {
	labels := map[string]string{}
	for k, v := range gtfsstats.DefaultServiceLabels {
		labels[k] = v
	}

	return &Config{
		Data:          DefaultData,
		Listen:        DefaultListen,
		Storage:       gtfsstats.BackendMemory,
		Delimiter:     string(parse.DefaultDelimiter),
		Headers:       map[string]string{},
		Files:         gtfsstats.DefaultFiles(),
		Distance:      DistanceConfig{Unit: "auto"},
		Log:           LogConfig{Format: "console"},
		BicycleKmh:    gtfsstats.DefaultBicycleKmh,
		ServiceLabels: labels,
	}
}

// Loads configuration. Defaults are overridden by the YAML file at
// path (if path is non-empty), then by the environment, including any
// .env file in the working directory.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Data = getenvDefault("GTFSSTATS_DATA", c.Data)
	c.TrafficDir = getenvDefault("GTFSSTATS_TRAFFIC_DIR", c.TrafficDir)
	c.Listen = getenvDefault("GTFSSTATS_LISTEN", c.Listen)
	c.Storage = getenvDefault("GTFSSTATS_STORAGE", c.Storage)
	c.Distance.Unit = getenvDefault("GTFSSTATS_DISTANCE_UNIT", c.Distance.Unit)
	c.Log.Format = strings.ToLower(getenvDefault("GTFSSTATS_LOG_FORMAT", c.Log.Format))

	if v := os.Getenv("GTFSSTATS_DEBUG"); v != "" {
		debug, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GTFSSTATS_DEBUG: %q", v)
		}
		c.Log.Debug = debug
	}

	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// The delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// A Manager set up to load snapshots the way c describes.
func (c *Config) NewManager() *gtfsstats.Manager {
	m := gtfsstats.NewManager()
	m.Files = c.Files
	m.DistanceUnit = c.Distance.Unit
	m.Delimiter = c.DelimiterRune()
	m.Backend = c.Storage
	return m
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
