// Package config loads the pagestore-shell's settings with viper, the
// way the teacher's internal/config.go loads NovaSqlConfig.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the knobs pagestore-shell needs: where the page file
// lives and how many frames the buffer pool keeps resident.
type Config struct {
	Storage struct {
		File string `mapstructure:"file"`
	} `mapstructure:"storage"`
	Buffer struct {
		PoolSize int `mapstructure:"pool_size"`
	} `mapstructure:"buffer"`
	Index struct {
		KeyWidth int `mapstructure:"key_width"`
	} `mapstructure:"index"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Default returns the configuration pagestore-shell starts from before
// flags or a config file override it.
func Default() Config {
	var cfg Config
	cfg.Storage.File = "pagestore.db"
	cfg.Buffer.PoolSize = 64
	cfg.Index.KeyWidth = 8
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path (YAML) over top of Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
