package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format is a ValidationConfig file serialization
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath selects the serialization from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", newConfigurationError("", fmt.Sprintf("unsupported config file extension %q", filepath.Ext(path)), nil)
	}
}

// LoadValidationConfig reads a ValidationConfig from a YAML or JSON file.
// Unknown keys are rejected. Invariants are not checked; see ConfigManager.
func LoadValidationConfig(path string) (*ValidationConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newConfigurationError("", fmt.Sprintf("config file not found: %s", path), err)
		}
		return nil, newConfigurationError("", fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg, err := decode(data, format)
	if err != nil {
		return nil, newConfigurationError("", fmt.Sprintf("failed to parse %s config %s", format, path), err)
	}
	return cfg, nil
}

// SaveValidationConfig writes cfg to path, creating parent directories
func SaveValidationConfig(cfg *ValidationConfig, path string) error {
	if cfg == nil {
		return newConfigurationError("", "validation config is nil", nil)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := encode(cfg, format)
	if err != nil {
		return newConfigurationError("", fmt.Sprintf("failed to encode %s config", format), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return newConfigurationError("", fmt.Sprintf("failed to create config directory for %s", path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return newConfigurationError("", fmt.Sprintf("failed to write config file %s", path), err)
	}
	return nil
}

func decode(data []byte, format Format) (*ValidationConfig, error) {
	var cfg ValidationConfig

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
		resolveNumbers(&cfg)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	cfg.normalize()
	return &cfg, nil
}

func encode(cfg *ValidationConfig, format Format) ([]byte, error) {
	cfg = withEncodedNumbers(cfg, format)

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// ConfigManager loads and saves ValidationConfig files with logging
type ConfigManager struct {
	logger *zap.Logger
}

// NewConfigManager creates a ConfigManager. A nil logger disables logging.
func NewConfigManager(logger *zap.Logger) *ConfigManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigManager{logger: logger}
}

// Load reads a config file without checking invariants
func (m *ConfigManager) Load(path string) (*ValidationConfig, error) {
	cfg, err := LoadValidationConfig(path)
	if err != nil {
		m.logger.Error("Failed to load validation config", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	m.logger.Info("Validation config loaded",
		zap.String("path", path),
		zap.String("project_id", cfg.ProjectID),
		zap.Int("enabled_validators", len(cfg.EnabledValidators)))
	return cfg, nil
}

// LoadAndValidate reads a config file and checks its invariants
func (m *ConfigManager) LoadAndValidate(path string) (*ValidationConfig, error) {
	cfg, err := m.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Error("Validation config is invalid", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path
func (m *ConfigManager) Save(cfg *ValidationConfig, path string) error {
	if err := SaveValidationConfig(cfg, path); err != nil {
		m.logger.Error("Failed to save validation config", zap.String("path", path), zap.Error(err))
		return err
	}
	m.logger.Info("Validation config saved", zap.String("path", path))
	return nil
}
