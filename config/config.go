// Package config loads consensusd's on-disk and flag-driven configuration:
// committee membership, this validator's key and index, the storage
// directory, and logging options. It is deliberately thin — the Core itself
// takes a fully-resolved consensus.Config, never this package's Config.
package config

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
)

// AuthorityConfig describes one committee member as read from the committee
// file: its index, stake weight, and base58-encoded public key.
type AuthorityConfig struct {
	Index     uint32 `mapstructure:"index"`
	Stake     uint64 `mapstructure:"stake"`
	PublicKey string `mapstructure:"public_key"`
}

// Config is consensusd's resolved process configuration.
type Config struct {
	Epoch      uint64            `mapstructure:"epoch"`
	SelfIndex  uint32            `mapstructure:"self_index"`
	Committee  []AuthorityConfig `mapstructure:"committee"`
	KeyFile    string            `mapstructure:"key_file"`
	StorageDir string            `mapstructure:"storage_dir"`
	LogLevel   string            `mapstructure:"log_level"`
	ListenAddr string            `mapstructure:"listen_addr"`
	NumLeaders int               `mapstructure:"num_leaders_per_round"`
}

// BindFlags registers consensusd's flags on fs and binds them into v, so
// flags take precedence over the config file, which takes precedence over
// the defaults set here.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.String("key-file", "", "path to this validator's private key file")
	fs.String("storage-dir", "./data", "directory for the durable badger store")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("listen-addr", "0.0.0.0:9610", "address the BlockGossip gRPC service listens on")
	fs.Int("num-leaders-per-round", 1, "number of round-robin leader slots per round")

	v.SetDefault("storage_dir", "./data")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", "0.0.0.0:9610")
	v.SetDefault("num_leaders_per_round", 1)

	v.BindPFlag("key_file", fs.Lookup("key-file"))
	v.BindPFlag("storage_dir", fs.Lookup("storage-dir"))
	v.BindPFlag("log_level", fs.Lookup("log-level"))
	v.BindPFlag("listen_addr", fs.Lookup("listen-addr"))
	v.BindPFlag("num_leaders_per_round", fs.Lookup("num-leaders-per-round"))
}

// Load reads committeeFile (a committee.yaml/json/toml, format inferred by
// viper from its extension) merged with v's flag-bound values, into a
// Config.
func Load(v *viper.Viper, committeeFile string) (*Config, error) {
	if committeeFile != "" {
		v.SetConfigFile(committeeFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", committeeFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// BuildCommittee turns the resolved authority list into a types.Committee,
// decoding each member's base58-encoded public key as it goes.
func BuildCommittee(epoch uint64, authorities []AuthorityConfig) (*types.Committee, error) {
	entries := make([]types.Authority, 0, len(authorities))
	for _, a := range authorities {
		pub, err := decodePublicKey(a.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("config: authority %d: %w", a.Index, err)
		}
		entries = append(entries, types.Authority{
			Index:     types.AuthorityIndex(a.Index),
			Stake:     types.Stake(a.Stake),
			PublicKey: pub,
		})
	}
	return types.NewCommittee(epoch, entries)
}

// decodePublicKey decodes a base58-encoded ed25519 public key, the same
// encoding signature.PublicKey.String() produces.
func decodePublicKey(encoded string) (signature.PublicKey, error) {
	raw := base58.Decode(encoded)
	var pub signature.PublicKey
	if len(raw) != len(pub) {
		return pub, fmt.Errorf("config: decoded public key is %d bytes, want %d", len(raw), len(pub))
	}
	copy(pub[:], raw)
	return pub, nil
}
