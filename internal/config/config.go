// Package config loads configuration from flags, environment variables,
// and an optional config file, in that precedence order.
//
// Environment variables use the CREWGATE_ prefix with underscores
// (CREWGATE_STORE_URL). The config file is crewgate.yaml, looked up in
// the working directory and ~/.crewgate. Each subcommand has its own
// config shape; shared keys like "listen" are scoped to the command
// they configure.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Gateway configures the crewgate serve command.
type Gateway struct {
	Listen       string        `mapstructure:"listen"`
	StoreURL     string        `mapstructure:"store-url"`
	StoreTimeout time.Duration `mapstructure:"store-timeout"`
}

// Devstore configures the crewgate devstore command.
type Devstore struct {
	Listen string `mapstructure:"listen"`
	DB     string `mapstructure:"db"`
	Seed   string `mapstructure:"seed"`
	Token  string `mapstructure:"token"`
}

// LoadGateway resolves the serve command's configuration.
func LoadGateway(flags *pflag.FlagSet) (*Gateway, error) {
	v, err := newViper(flags, map[string]any{
		"listen":        ":8700",
		"store-url":     "http://localhost:8701",
		"store-timeout": 15 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	var cfg Gateway
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// LoadDevstore resolves the devstore command's configuration.
func LoadDevstore(flags *pflag.FlagSet) (*Devstore, error) {
	v, err := newViper(flags, map[string]any{
		"listen": ":8701",
		"db":     defaultDevstoreDB(),
	})
	if err != nil {
		return nil, err
	}

	var cfg Devstore
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func newViper(flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix("CREWGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	v.SetConfigName("crewgate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.crewgate")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}
	return v, nil
}

// defaultDevstoreDB places the dev store database under ~/.crewgate.
func defaultDevstoreDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "devstore.db"
	}
	return filepath.Join(home, ".crewgate", "devstore.db")
}
