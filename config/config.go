package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds scraper configuration.
type Config struct {
	// BaseURL is the API root of the consultation platform.
	BaseURL string
	// DownloadBaseURL is the prefix a document id resolves under.
	DownloadBaseURL string
	// PublicationID addresses one initiative's feedback collection.
	PublicationID string
	// TargetDir overrides the derived output directory when non-empty.
	TargetDir           string
	DownloadAttachments bool
	// SleepTime is the minimum wall-clock interval between requests.
	SleepTime    time.Duration
	Timeout      time.Duration
	MaxRetries   int
	ChunkSize    int
	CacheSize    int
	OutputFormat string // csv, json, or dual
	UserAgent    string
	Verbose      bool
	MetricsAddr  string
}

// DefaultConfig returns polite defaults for the Have your Say platform.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "https://ec.europa.eu/info/law/better-regulation/",
		DownloadBaseURL:     "https://ec.europa.eu/info/law/better-regulation/api/download/",
		DownloadAttachments: true,
		SleepTime:           time.Second,
		Timeout:             30 * time.Second,
		MaxRetries:          3,
		ChunkSize:           1024,
		CacheSize:           32,
		OutputFormat:        "csv",
		UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:             false,
		MetricsAddr:         "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.PublicationID == "" {
		return fmt.Errorf("publication id cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if c.DownloadBaseURL == "" {
		return fmt.Errorf("download base URL cannot be empty")
	}
	if c.SleepTime < 0 {
		return fmt.Errorf("sleep time cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// fileConfig mirrors the YAML config file. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it names.
type fileConfig struct {
	BaseURL             *string `yaml:"base_url"`
	DownloadBaseURL     *string `yaml:"download_base_url"`
	TargetDir           *string `yaml:"target_dir"`
	DownloadAttachments *bool   `yaml:"download_attachments"`
	SleepSeconds        *int    `yaml:"sleep_seconds"`
	TimeoutSeconds      *int    `yaml:"timeout_seconds"`
	MaxRetries          *int    `yaml:"max_retries"`
	OutputFormat        *string `yaml:"output_format"`
	UserAgent           *string `yaml:"user_agent"`
	MetricsAddr         *string `yaml:"metrics_addr"`
}

// LoadFile applies settings from a YAML file on top of the receiver.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if fc.BaseURL != nil {
		c.BaseURL = *fc.BaseURL
	}
	if fc.DownloadBaseURL != nil {
		c.DownloadBaseURL = *fc.DownloadBaseURL
	}
	if fc.TargetDir != nil {
		c.TargetDir = *fc.TargetDir
	}
	if fc.DownloadAttachments != nil {
		c.DownloadAttachments = *fc.DownloadAttachments
	}
	if fc.SleepSeconds != nil {
		c.SleepTime = time.Duration(*fc.SleepSeconds) * time.Second
	}
	if fc.TimeoutSeconds != nil {
		c.Timeout = time.Duration(*fc.TimeoutSeconds) * time.Second
	}
	if fc.MaxRetries != nil {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.OutputFormat != nil {
		c.OutputFormat = *fc.OutputFormat
	}
	if fc.UserAgent != nil {
		c.UserAgent = *fc.UserAgent
	}
	if fc.MetricsAddr != nil {
		c.MetricsAddr = *fc.MetricsAddr
	}
	return nil
}

// EnvString reads a string environment variable, reporting presence.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable, reporting presence.
func EnvInt(name string) (int, bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return parsed, true, nil
}

// EnvBool reads a boolean environment variable, reporting presence.
func EnvBool(name string) (bool, bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", name, err)
	}
	return parsed, true, nil
}
