// Package config loads streamchat settings from a YAML file.
//
// Example:
//
//	transport: quic
//	log_level: debug
//	transcript: ~/chat.lz4
//	dh:
//	  p: "0xD87FA3E291B4C7F3"
//	  g: "2"
//
// Both peers must agree on the DH parameters and the transport; nothing on the
// wire detects a mismatch.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/TheusHen/streamchat/streamchat/crypto"
	"github.com/TheusHen/streamchat/streamchat/transport"
)

type Config struct {
	Transport  string   `yaml:"transport"`
	LogLevel   string   `yaml:"log_level"`
	Transcript string   `yaml:"transcript,omitempty"`
	DH         DHConfig `yaml:"dh"`
}

type DHConfig struct {
	P Uint64 `yaml:"p"`
	G Uint64 `yaml:"g"`
}

// Params converts the configured values to crypto.Params.
func (d DHConfig) Params() crypto.Params {
	return crypto.Params{P: uint64(d.P), G: uint64(d.G)}
}

// Uint64 accepts decimal, 0x-hex, 0o-octal or 0b-binary YAML scalars.
type Uint64 uint64

func (u *Uint64) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: line %d: expected an integer", node.Line)
	}
	v, err := strconv.ParseUint(node.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("config: line %d: %w", node.Line, err)
	}
	*u = Uint64(v)
	return nil
}

func (u Uint64) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("0x%X", uint64(u)), nil
}

func Default() Config {
	return Config{
		Transport: transport.Default,
		LogLevel:  logrus.WarnLevel.String(),
		DH: DHConfig{
			P: Uint64(crypto.DefaultParams.P),
			G: Uint64(crypto.DefaultParams.G),
		},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := transport.ByName(c.Transport); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.DH.Params().Validate()
}

// ApplyLogging configures the global logger.
func (c Config) ApplyLogging() error {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	return nil
}
