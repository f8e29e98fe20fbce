package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"` // "text" or "json"

	// Sources
	MsgStorePath   string `json:"msgstore_path" yaml:"msgstore_path"`
	ContactsDBPath string `json:"contacts_db_path" yaml:"contacts_db_path"`
	ChatIndexTable string `json:"chat_index_table" yaml:"chat_index_table"`

	// Outputs
	OutputPath    string `json:"output_path" yaml:"output_path"`
	RunConfigPath string `json:"run_config_path" yaml:"run_config_path"`
	DryRun        bool   `json:"dry_run" yaml:"dry_run"`

	Sink    SinkConfig    `json:"sink" yaml:"sink"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// SinkConfig holds the relational sink connection and insert policy.
type SinkConfig struct {
	Driver   string `json:"driver" yaml:"driver"` // "mysql" or "postgres"
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"` // 0 selects the driver's default port
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"` // postgres only
	Table    string `json:"table" yaml:"table"`

	BatchSize int  `json:"batch_size" yaml:"batch_size"` // rows per INSERT statement
	Dedupe    bool `json:"dedupe" yaml:"dedupe"`
}

// MetricsConfig holds the optional Pushgateway target.
type MetricsConfig struct {
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string `json:"job" yaml:"job"`
}

// Default returns a Config with sensible defaults.
// Connection credentials have no defaults and must come from a file or the environment.
func Default() *Config {
	return &Config{
		LogLevel:       "INFO",
		LogFormat:      "text",
		MsgStorePath:   "/sdcard/msgstore.db",
		ContactsDBPath: "/sdcard/wa.db",
		ChatIndexTable: "chat_view",
		OutputPath:     "messages_processed.csv",
		RunConfigPath:  "config.txt",
		Sink: SinkConfig{
			Driver:    "mysql",
			Database:  "data_wa",
			SSLMode:   "disable",
			Table:     "extraccion",
			BatchSize: 1000,
		},
		Metrics: MetricsConfig{
			Job: "wa_extract",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file.
// The format is chosen by extension; anything other than .yaml/.yml is read as JSON.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Load loads configuration from the given file (if any) and applies
// environment variable overrides on top.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		var err error
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
	}

	applyEnv(cfg, os.Getenv)
	return cfg, nil
}

// applyEnv overrides cfg fields from WAEXTRACT_* variables.
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("WAEXTRACT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("WAEXTRACT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv("WAEXTRACT_MSGSTORE_PATH"); v != "" {
		cfg.MsgStorePath = v
	}
	if v := getenv("WAEXTRACT_CONTACTS_DB_PATH"); v != "" {
		cfg.ContactsDBPath = v
	}
	if v := getenv("WAEXTRACT_CHAT_INDEX_TABLE"); v != "" {
		cfg.ChatIndexTable = v
	}
	if v := getenv("WAEXTRACT_OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := getenv("WAEXTRACT_RUN_CONFIG_PATH"); v != "" {
		cfg.RunConfigPath = v
	}
	if v := getenv("WAEXTRACT_DRY_RUN"); v != "" {
		cfg.DryRun = v == "true" || v == "1"
	}
	if v := getenv("WAEXTRACT_SINK_DRIVER"); v != "" {
		cfg.Sink.Driver = v
	}
	if v := getenv("WAEXTRACT_SINK_HOST"); v != "" {
		cfg.Sink.Host = v
	}
	if v := getenv("WAEXTRACT_SINK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Sink.Port = port
		}
	}
	if v := getenv("WAEXTRACT_SINK_USER"); v != "" {
		cfg.Sink.User = v
	}
	if v := getenv("WAEXTRACT_SINK_PASSWORD"); v != "" {
		cfg.Sink.Password = v
	}
	if v := getenv("WAEXTRACT_SINK_DATABASE"); v != "" {
		cfg.Sink.Database = v
	}
	if v := getenv("WAEXTRACT_SINK_TABLE"); v != "" {
		cfg.Sink.Table = v
	}
	if v := getenv("WAEXTRACT_SINK_DEDUPE"); v != "" {
		cfg.Sink.Dedupe = v == "true" || v == "1"
	}
	if v := getenv("WAEXTRACT_PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
}

// Validate checks the settings needed for the configured run.
func (c *Config) Validate() error {
	if c.MsgStorePath == "" || c.ContactsDBPath == "" {
		return fmt.Errorf("both source database paths are required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.RunConfigPath == "" {
		return fmt.Errorf("run config path is required")
	}
	if c.DryRun {
		return nil
	}
	switch c.Sink.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported sink driver %q (supported: mysql, postgres)", c.Sink.Driver)
	}
	if c.Sink.Host == "" {
		return fmt.Errorf("sink host is required unless dry_run is set")
	}
	if c.Sink.User == "" {
		return fmt.Errorf("sink user is required unless dry_run is set")
	}
	if c.Sink.BatchSize < 1 {
		return fmt.Errorf("sink batch_size must be at least 1")
	}
	return nil
}
