// Package config loads the translator's TOML configuration file and
// applies the channel-size defaults the pipeline falls back to when the
// operator leaves them unset.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default channel capacities for the inter-stage queues.
const (
	DefaultRawMessageChannelSize   = 10_000
	DefaultBlockProcessChannelSize = 1_000
	DefaultFinalizeChannelSize     = 1_000
)

// Config is the translator's TOML-driven configuration.
type Config struct {
	ChainID      uint64  `toml:"chain_id"`
	StartBlock   uint32  `toml:"start_block"`
	StopBlock    *uint32 `toml:"stop_block"`
	BlockDelta   uint32  `toml:"block_delta"`
	PrevHash     string  `toml:"prev_hash"`
	ValidateHash string  `toml:"validate_hash"`

	HTTPEndpoint string `toml:"http_endpoint"`
	ShipEndpoint string `toml:"ship_endpoint"`

	RawMessageChannelSize   int `toml:"raw_message_channel_size"`
	BlockMessageChannelSize int `toml:"block_message_channel_size"`
	FinalMessageChannelSize int `toml:"final_message_channel_size"`

	DataPath string `toml:"data_path"`
}

// Load reads and validates a Config from path, applying channel-size
// defaults for any field left at zero.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RawMessageChannelSize == 0 {
		c.RawMessageChannelSize = DefaultRawMessageChannelSize
	}
	if c.BlockMessageChannelSize == 0 {
		c.BlockMessageChannelSize = DefaultBlockProcessChannelSize
	}
	if c.FinalMessageChannelSize == 0 {
		c.FinalMessageChannelSize = DefaultFinalizeChannelSize
	}
}

func (c *Config) validate() error {
	if c.HTTPEndpoint == "" {
		return fmt.Errorf("config: http_endpoint is required")
	}
	if c.ShipEndpoint == "" {
		return fmt.Errorf("config: ship_endpoint is required")
	}
	if c.DataPath == "" {
		return fmt.Errorf("config: data_path is required")
	}
	if !isHex32(c.PrevHash) {
		return fmt.Errorf("config: prev_hash must be a 32-byte hex string, got %q", c.PrevHash)
	}
	if c.ValidateHash != "" && !isHex32(c.ValidateHash) {
		return fmt.Errorf("config: validate_hash must be a 32-byte hex string, got %q", c.ValidateHash)
	}
	return nil
}

func isHex32(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// StopBlockOrMax returns the configured stop block, or the maximum
// possible block number when none was configured.
func (c *Config) StopBlockOrMax() uint32 {
	if c.StopBlock != nil {
		return *c.StopBlock
	}
	return ^uint32(0)
}
