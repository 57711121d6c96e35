package common

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed config.default.yaml
var defaultConfig []byte

const (
	configPathEnv = "CONFIG_PATH"
	configJSONEnv = "CONFIG_JSON"
)

// ConfigManager loads layered configuration: embedded defaults, then an
// optional CONFIG_PATH file, then an optional raw CONFIG_JSON payload.
type ConfigManager[T any] struct {
	kf *koanf.Koanf
}

// NewConfigManager creates a new config manager for the given config type
func NewConfigManager[T any]() (*ConfigManager[T], error) {
	kf := koanf.New(".")

	if err := kf.Load(rawbytes.Provider(defaultConfig), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path := os.Getenv(configPathEnv); path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			parser = kjson.Parser()
		case ".yaml", ".yml":
			parser = kyaml.Parser()
		default:
			return nil, fmt.Errorf("unsupported config file extension: %s", path)
		}

		if err := kf.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if raw := os.Getenv(configJSONEnv); raw != "" {
		if err := kf.Load(rawbytes.Provider([]byte(raw)), kjson.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load CONFIG_JSON: %w", err)
		}
	}

	return &ConfigManager[T]{kf: kf}, nil
}

// GetConfig unmarshals the merged configuration
func (cm *ConfigManager[T]) GetConfig() T {
	var config T
	cm.kf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "key"})
	return config
}
