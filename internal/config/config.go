package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/plotwire/internal/launch"
	"github.com/danmuck/plotwire/internal/protocol/session"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape shared by the TOML and YAML forms.
type FileConfig struct {
	Address     string        `toml:"address" yaml:"address"`
	BindDelay   string        `toml:"bind_delay" yaml:"bind_delay"`
	ReadyDelay  string        `toml:"ready_delay" yaml:"ready_delay"`
	SendTimeout string        `toml:"send_timeout" yaml:"send_timeout"`
	Linger      string        `toml:"linger" yaml:"linger"`
	Capture     string        `toml:"capture" yaml:"capture"`
	Launch      launch.Config `toml:"launch" yaml:"launch"`
	Server      ServerConfig  `toml:"server" yaml:"server"`
}

// ServerConfig configures the HTTP ingest surface.
type ServerConfig struct {
	Addr        string   `toml:"addr" yaml:"addr"`
	Node        string   `toml:"node" yaml:"node"`
	CorsOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	// Token, when set, is required as a bearer token on /v1 routes.
	Token string `toml:"token" yaml:"token"`
}

// Config is the resolved runtime configuration.
type Config struct {
	Session session.Config
	Server  ServerConfig
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Session: session.DefaultConfig(),
		Server:  ServerConfig{Addr: ":9300", Node: "plotwire"},
	}
}

// Load reads a .toml, .yaml or .yml file and resolves it over Default.
func Load(path string) (Config, error) {
	var raw FileConfig
	if err := loadFile(path, &raw); err != nil {
		return Config{}, err
	}
	cfg, err := Resolve(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Resolve applies raw over Default and validates the result.
func Resolve(raw FileConfig) (Config, error) {
	cfg := Default()
	if v := strings.TrimSpace(raw.Address); v != "" {
		cfg.Session.Address = v
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"bind_delay", raw.BindDelay, &cfg.Session.BindDelay},
		{"ready_delay", raw.ReadyDelay, &cfg.Session.ReadyDelay},
		{"send_timeout", raw.SendTimeout, &cfg.Session.SendTimeout},
		{"linger", raw.Linger, &cfg.Session.Linger},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.raw)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	cfg.Session.CapturePath = strings.TrimSpace(raw.Capture)
	cfg.Session.Launch = raw.Launch
	cfg.Session.Launch.Command = strings.TrimSpace(cfg.Session.Launch.Command)

	if v := strings.TrimSpace(raw.Server.Addr); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(raw.Server.Node); v != "" {
		cfg.Server.Node = v
	}
	cfg.Server.CorsOrigins = raw.Server.CorsOrigins
	cfg.Server.Token = strings.TrimSpace(raw.Server.Token)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	addr := strings.TrimSpace(cfg.Session.Address)
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	if !strings.Contains(addr, "://") {
		return fmt.Errorf("address %q must include a transport scheme", addr)
	}
	if cfg.Session.BindDelay < 0 || cfg.Session.ReadyDelay < 0 || cfg.Session.SendTimeout < 0 || cfg.Session.Linger < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server addr is required")
	}
	return nil
}

func loadFile(path string, out *FileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = toml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
