package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".bravedebloat.yml"

// Config is the top-level bravedebloat configuration.
type Config struct {
	Version int `yaml:"version"`

	// Platform is windows, macos, linux or all.
	Platform      string `yaml:"platform"`
	Channel       string `yaml:"channel"`
	TargetVersion string `yaml:"target_version"`

	Inputs InputsConfig `yaml:"inputs"`
	Output OutputConfig `yaml:"output"`
	Watch  WatchConfig  `yaml:"watch"`
}

// InputsConfig locates the three input documents.
type InputsConfig struct {
	Policies    string `yaml:"policies"`
	Extensions  string `yaml:"extensions"`
	Preferences string `yaml:"preferences"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file and returns defaults when
// that file doesn't exist. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Defaults(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	if err := checkVersion(data); err != nil {
		return nil, err
	}

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		Version:  1,
		Platform: "all",
		Channel:  "normal",
		Inputs: InputsConfig{
			Policies:    "configs/privacy-focused.json",
			Extensions:  "configs/extensions.json",
			Preferences: "configs/preferences.json",
		},
		Output: OutputConfig{Dir: "output"},
		Watch:  WatchConfig{Debounce: 300 * time.Millisecond},
	}
}
