package tool

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/edi-client/types"
)

var (
	ConfigPath = "config.yaml" // be aware that it can be changed, default to ./config.yaml

	DefaultBaseURL    = "http://localhost:8000"
	DefaultListenPort = 53318
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		BaseURL:        DefaultBaseURL,
		ListenPort:     DefaultListenPort,
		DownloadFolder: "downloads",
	}
}

// LoadConfig reads path (or ConfigPath), creating it with defaults when missing.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	if err := ValidateBaseURL(cfg.BaseURL); err != nil {
		return cfg, err
	}
	if cfg.ListenPort <= 0 {
		cfg.ListenPort = DefaultListenPort
	}
	if cfg.DownloadFolder == "" {
		cfg.DownloadFolder = "downloads"
	}
	return cfg, nil
}

// ValidateBaseURL accepts absolute http(s) URLs only.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid baseURL %q: %v", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid baseURL %q: must be an absolute http(s) URL", raw)
	}
	return nil
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// TrimBaseURL drops trailing slashes so endpoint paths can be appended.
func TrimBaseURL(raw string) string {
	return strings.TrimRight(raw, "/")
}
