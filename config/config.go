// Package config loads the board configuration from a yaml or json file with
// environment overrides, and groups the per-component sections.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/forestryvehicleadmin/motorpool/auth"
	"github.com/forestryvehicleadmin/motorpool/core/metrics"
	"github.com/forestryvehicleadmin/motorpool/infra/git"
	"github.com/forestryvehicleadmin/motorpool/infra/notify"
	"github.com/forestryvehicleadmin/motorpool/jobs"
)

type Config struct {
	Storage StorageConfig  `json:"storage"`
	Git     git.Config     `json:"git"`
	Auth    auth.Conf      `json:"auth"`
	Server  ServerConfig   `json:"server"`
	Metrics metrics.Config `json:"metrics"`
	Notify  notify.Config  `json:"notify"`
	Sentry  SentryConfig   `json:"sentry"`
	Jobs    jobs.Config    `json:"jobs"`
}

// Load reads the file at path and applies MP_ environment overrides, nested
// keys separated by double underscores (MP_GIT__URL sets git.url). An empty
// path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("MP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "mp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Storage.SetDefaults()
	cfg.Git.SetDefaults()
	cfg.Server.SetDefaults()
	if err := cfg.Git.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
