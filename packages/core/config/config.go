package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds session defaults for easyhttp clients and the CLI
type Config struct {
	UserAgent         string            `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	Accept            string            `json:"accept,omitempty" yaml:"accept,omitempty"`
	Referer           string            `json:"referer,omitempty" yaml:"referer,omitempty"`
	ContentType       string            `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Headers           map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	Timeout           int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects   *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects      int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	KeepAlive         *bool             `json:"keepAlive,omitempty" yaml:"keepAlive,omitempty"`
	Expect100Continue *bool             `json:"expect100Continue,omitempty" yaml:"expect100Continue,omitempty"`
	AutoDecompress    *bool             `json:"autoDecompress,omitempty" yaml:"autoDecompress,omitempty"`
	ResponseEncoding  string            `json:"responseEncoding,omitempty" yaml:"responseEncoding,omitempty"`
	PostEncoding      string            `json:"postEncoding,omitempty" yaml:"postEncoding,omitempty"`
	LogLevel          string            `json:"logLevel,omitempty" yaml:"logLevel,omitempty"` // none, basic, header, body
	NoColor           *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetKeepAlive returns the keep-alive setting, defaulting to true
func (c *Config) GetKeepAlive() bool {
	return getBool(c.KeepAlive, true)
}

// GetExpect100Continue returns the expect-continue setting, defaulting to false
func (c *Config) GetExpect100Continue() bool {
	return getBool(c.Expect100Continue, false)
}

// GetAutoDecompress returns the decompression setting, defaulting to true
func (c *Config) GetAutoDecompress() bool {
	return getBool(c.AutoDecompress, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".easyhttp.json",
	"easyhttp.json",
	".easyhttp.yaml",
	".easyhttp.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.Accept != "" {
		result.Accept = other.Accept
	}
	if other.Referer != "" {
		result.Referer = other.Referer
	}
	if other.ContentType != "" {
		result.ContentType = other.ContentType
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.ResponseEncoding != "" {
		result.ResponseEncoding = other.ResponseEncoding
	}
	if other.PostEncoding != "" {
		result.PostEncoding = other.PostEncoding
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.KeepAlive != nil {
		result.KeepAlive = other.KeepAlive
	}
	if other.Expect100Continue != nil {
		result.Expect100Continue = other.Expect100Continue
	}
	if other.AutoDecompress != nil {
		result.AutoDecompress = other.AutoDecompress
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML when the
// extension asks for it and JSON otherwise
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
