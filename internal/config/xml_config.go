// Package config provides XML-based configuration for the inspector web client.
package config

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"DocumentInspector"`

	Server ServerConfig `xml:"Server"`

	// Inspect describes where the inspection service lives
	Inspect InspectConfig `xml:"Inspect"`

	Pages PagesConfig `xml:"Pages"`

	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// InspectConfig contains the inspection service endpoint
type InspectConfig struct {
	Scheme      string `xml:"Scheme"`
	Host        string `xml:"Host"`
	Port        int    `xml:"Port"`
	Path        string `xml:"Path"`
	FiltersFile string `xml:"FiltersFile"`
}

// PagesConfig contains page session settings
type PagesConfig struct {
	MaxPages               int   `xml:"MaxPages"`
	SessionTimeoutMinutes  int   `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int   `xml:"CleanupIntervalMinutes"`
	MaxUploadSizeMB        int64 `xml:"MaxUploadSizeMB"`
}

// AdvancedConfig contains logging options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 300,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Inspect: InspectConfig{
			Scheme: "http",
			Host:   "127.0.0.1",
			Port:   8000,
			Path:   "/inspect/",
		},
		Pages: PagesConfig{
			MaxPages:               50,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			MaxUploadSizeMB:        50,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "console",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Document Inspector Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FromEnvironment returns the defaults with environment overrides applied.
// It is used when no config file is given.
func FromEnvironment() *AppConfig {
	config := DefaultConfig()
	config.applyEnvironmentOverrides()
	return config
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("INSPECT_HOST"); host != "" {
		c.Inspect.Host = host
	}
	if port := os.Getenv("INSPECT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Inspect.Port = p
		}
	}
	if scheme := os.Getenv("INSPECT_SCHEME"); scheme != "" {
		c.Inspect.Scheme = scheme
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Advanced.LogFormat = format
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Inspect.FiltersFile != "" && !filepath.IsAbs(c.Inspect.FiltersFile) {
		c.Inspect.FiltersFile = filepath.Join(configDir, c.Inspect.FiltersFile)
	}
}

// Validate checks the values that would otherwise fail later at request time.
func (c *AppConfig) Validate() error {
	if c.Inspect.Host == "" {
		return fmt.Errorf("invalid config: Inspect.Host is empty")
	}
	if c.Inspect.Port <= 0 || c.Inspect.Port > 65535 {
		return fmt.Errorf("invalid config: Inspect.Port %d out of range", c.Inspect.Port)
	}
	if c.Inspect.Scheme != "http" && c.Inspect.Scheme != "https" {
		return fmt.Errorf("invalid config: Inspect.Scheme must be http or https, got %q", c.Inspect.Scheme)
	}
	if c.Pages.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("invalid config: Pages.CleanupIntervalMinutes must be positive, got %d", c.Pages.CleanupIntervalMinutes)
	}
	if c.Pages.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("invalid config: Pages.SessionTimeoutMinutes must be positive, got %d", c.Pages.SessionTimeoutMinutes)
	}
	return nil
}

// InspectEndpoint returns the base inspection URL without query parameters.
func (c *AppConfig) InspectEndpoint() string {
	path := c.Inspect.Path
	if path == "" {
		path = "/inspect/"
	}
	u := url.URL{
		Scheme: c.Inspect.Scheme,
		Host:   fmt.Sprintf("%s:%d", c.Inspect.Host, c.Inspect.Port),
		Path:   path,
	}
	return u.String()
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxUploadBytes returns the selected-file size limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return c.Pages.MaxUploadSizeMB << 20
}
