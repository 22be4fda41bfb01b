package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr     = "0.0.0.0:9000"
	DefaultLogFormat      = "text"
	DefaultStorageRoot    = "./.s3"
	DefaultStorageBackend = "filesystem"
)

var allowedBackends = map[string]struct{}{
	"filesystem": {},
	"memory":     {},
}

var allowedSandboxModes = map[string]struct{}{
	"off":    {},
	"auto":   {},
	"manual": {},
	"shared": {},
}

// Config is the complete server configuration. Only storage_backend,
// storage_root, and memory_sandbox_mode are named by the storage design;
// the server block carries the ambient listen address and log format.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
	LogFormat     string `yaml:"log_format"`
}

type StorageConfig struct {
	Backend string `yaml:"storage_backend"`
	Root    string `yaml:"storage_root"`

	// MemorySandboxMode is one of off, auto, manual, or "shared(<owner>)".
	// Only meaningful when Backend is memory; ignored otherwise.
	MemorySandboxMode string `yaml:"memory_sandbox_mode"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddress: DefaultListenAddr,
			LogFormat:     DefaultLogFormat,
		},
		Storage: StorageConfig{
			Backend:           DefaultStorageBackend,
			Root:              DefaultStorageRoot,
			MemorySandboxMode: "off",
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.ListenAddress == "" {
		errs = append(errs, errors.New("config validation: server.listen_address is required"))
	}
	if c.Server.LogFormat != "text" && c.Server.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("config validation: server.log_format must be one of [text json], got %q", c.Server.LogFormat))
	}
	if _, ok := allowedBackends[c.Storage.Backend]; !ok {
		errs = append(errs, fmt.Errorf("config validation: storage.storage_backend must be one of [filesystem memory], got %q", c.Storage.Backend))
	}
	if c.Storage.Backend == "filesystem" && c.Storage.Root == "" {
		errs = append(errs, errors.New("config validation: storage.storage_root is required when storage.storage_backend=filesystem"))
	}
	if c.Storage.Backend == "memory" {
		mode, _ := parseSandboxMode(c.Storage.MemorySandboxMode)
		if _, ok := allowedSandboxModes[mode]; !ok {
			errs = append(errs, fmt.Errorf("config validation: storage.memory_sandbox_mode must be one of [off auto manual shared(owner)], got %q", c.Storage.MemorySandboxMode))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// parseSandboxMode splits "shared(owner)" into ("shared", "owner"); any
// other value is returned unchanged with an empty owner.
func parseSandboxMode(raw string) (mode, owner string) {
	const prefix = "shared("
	if len(raw) > len(prefix)+1 && raw[:len(prefix)] == prefix && raw[len(raw)-1] == ')' {
		return "shared", raw[len(prefix) : len(raw)-1]
	}
	return raw, ""
}

// ParseSandboxMode exposes parseSandboxMode for callers outside this
// package that need to build a sandbox.Mode from configuration.
func ParseSandboxMode(raw string) (mode, owner string) {
	return parseSandboxMode(raw)
}
