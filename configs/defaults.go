package configs

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

//go:embed config.example.yaml
var defaultConfigYAML string

// SeedDefaults makes the embedded config.example.yaml the base layer of v.
// A config file merged afterwards and any changed flag bound to v win over it.
func SeedDefaults(v *viper.Viper) error {
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfigYAML)); err != nil {
		return fmt.Errorf("failed to read embedded config.example.yaml: %w", err)
	}
	return nil
}

// Load layers the embedded defaults, the first config.yaml found in
// searchPaths and the flags bound to v, then decodes the result. The returned
// path is empty when no config file was found.
func Load(v *viper.Viper, searchPaths ...string) (Config, string, error) {
	if err := SeedDefaults(v); err != nil {
		return Config{}, "", err
	}

	var used string
	if len(searchPaths) > 0 {
		v.SetConfigName("config")
		for _, path := range searchPaths {
			v.AddConfigPath(path)
		}

		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, "", fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			used = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("unable to decode application config: %w", err)
	}

	return cfg, used, nil
}

// DefaultConfig decodes the embedded defaults alone.
func DefaultConfig() (Config, error) {
	cfg, _, err := Load(viper.New())
	return cfg, err
}

func MustDefaultConfig() Config {
	cfg, err := DefaultConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}
