// Package config provides configuration management for the uploader.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Config is the uploader configuration, loaded from an INI file and
// overridable per-flag by the CLI.
//
// Config file location: ~/.config/irida-uploader/config.ini
//
// INI format:
//
//	[irida]
//	base_url = https://irida.example.org/api
//	client_id = uploader
//	client_secret = <oauth-client-secret>
//	username = uploader-bot
//	password = <password>
//	parser = nextseq
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	password =
//	no_proxy =
//	warmup = false
//
//	[cloud]
//	backend = none
//	s3_bucket =
//	s3_region =
//	s3_prefix =
//	azure_container =
//	azure_connection_string =
//	azure_prefix =
type Config struct {
	// IRIDA connection settings
	BaseURL      string `ini:"base_url"`
	ClientID     string `ini:"client_id"`
	ClientSecret string `ini:"client_secret"`
	Username     string `ini:"username"`
	Password     string `ini:"password"`

	// Parser selects the platform layout: "nextseq" or "directory".
	Parser string `ini:"parser"`

	Proxy ProxyConfig `ini:"-"`
	Cloud CloudConfig `ini:"-"`
}

// ProxyConfig contains outbound proxy settings for all HTTP traffic.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic", "ntlm".
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`

	// NoProxy is a comma-separated bypass list of hosts and CIDRs.
	NoProxy string `ini:"no_proxy"`

	// Warmup performs a connection test against the IRIDA base URL when
	// the HTTP client is built.
	Warmup bool `ini:"warmup"`
}

// CloudConfig selects where sequence data listings come from. With the
// default "none" backend the parser walks the local filesystem; "s3" and
// "azure" build the data-directory listing from an object store instead.
type CloudConfig struct {
	Backend string `ini:"backend"`

	S3Bucket    string `ini:"s3_bucket"`
	S3Region    string `ini:"s3_region"`
	S3Prefix    string `ini:"s3_prefix"`
	S3AccessKey string `ini:"s3_access_key"`
	S3SecretKey string `ini:"s3_secret_key"`

	AzureContainer        string `ini:"azure_container"`
	AzureConnectionString string `ini:"azure_connection_string"`
	AzurePrefix           string `ini:"azure_prefix"`
}

// Cloud listing backends.
const (
	CloudBackendNone  = "none"
	CloudBackendS3    = "s3"
	CloudBackendAzure = "azure"
)

// Validation errors
var (
	ErrMissingBaseURL  = errors.New("base_url is required")
	ErrMissingClientID = errors.New("client_id is required")
	ErrMissingUsername = errors.New("username is required")
	ErrUnknownParser   = errors.New("parser must be one of: nextseq, directory")
	ErrUnknownBackend  = errors.New("cloud backend must be one of: none, s3, azure")
)

// DefaultConfigPath returns the default path for the config file:
// ~/.config/irida-uploader/config.ini
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "irida-uploader", "config.ini"), nil
}

// Default returns a config populated with defaults only.
func Default() *Config {
	return &Config{
		ClientID: "irida-uploader",
		Parser:   "nextseq",
		Proxy:    ProxyConfig{Mode: "no-proxy"},
		Cloud:    CloudConfig{Backend: "none"},
	}
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are returned so flag-only invocations work.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if err := file.Section("irida").MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse [irida] section: %w", err)
	}
	if err := file.Section("proxy").MapTo(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("failed to parse [proxy] section: %w", err)
	}
	if err := file.Section("cloud").MapTo(&cfg.Cloud); err != nil {
		return nil, fmt.Errorf("failed to parse [cloud] section: %w", err)
	}

	return cfg, nil
}

// Validate checks that the config can support an upload attempt.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrMissingClientID
	}
	if c.Username == "" {
		return ErrMissingUsername
	}
	if err := c.ValidateParser(); err != nil {
		return err
	}
	switch c.Cloud.Backend {
	case "", CloudBackendNone, CloudBackendS3, CloudBackendAzure:
	default:
		return fmt.Errorf("%w (got %q)", ErrUnknownBackend, c.Cloud.Backend)
	}
	return nil
}

// ValidateParser checks only the parser selection. Offline commands use
// this instead of Validate so a config with no server details can still
// drive local diagnostics.
func (c *Config) ValidateParser() error {
	switch c.Parser {
	case "nextseq", "directory":
		return nil
	default:
		return fmt.Errorf("%w (got %q)", ErrUnknownParser, c.Parser)
	}
}

// Save writes the config back to an INI file, creating the parent
// directory when needed. Used by "config init".
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("irida").ReflectFrom(c); err != nil {
		return fmt.Errorf("failed to build [irida] section: %w", err)
	}
	if err := file.Section("proxy").ReflectFrom(&c.Proxy); err != nil {
		return fmt.Errorf("failed to build [proxy] section: %w", err)
	}
	if err := file.Section("cloud").ReflectFrom(&c.Cloud); err != nil {
		return fmt.Errorf("failed to build [cloud] section: %w", err)
	}

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
