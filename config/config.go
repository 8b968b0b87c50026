// Package config loads container settings from a YAML file, LOOM_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	InstantiationDirect   = "direct"
	InstantiationSubclass = "subclass"

	DisposalFailFast = "fail-fast"
	DisposalContinue = "continue"

	PhaseBeforeInstantiation = "before-instantiation"
	PhaseAfterInitialization = "after-initialization"
)

type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Instantiation selects how raw components are built.
	Instantiation string `mapstructure:"instantiation" validate:"required,oneof=direct subclass" yaml:"instantiation"`

	// Disposal decides whether shutdown stops at the first failing teardown.
	Disposal string `mapstructure:"disposal" validate:"required,oneof=fail-fast continue" yaml:"disposal"`

	Proxy   ProxyConfig   `mapstructure:"proxy" yaml:"proxy"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=json console" yaml:"format"`
}

type ProxyConfig struct {
	// TargetType prefers type stubs over interface stubs.
	TargetType bool   `mapstructure:"target_type" yaml:"target_type"`
	Phase      string `mapstructure:"phase" validate:"required,oneof=before-instantiation after-initialization" yaml:"phase"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" validate:"required_if=Enabled true" yaml:"namespace"`
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Instantiation: InstantiationDirect,
		Disposal:      DisposalFailFast,
		Proxy: ProxyConfig{
			Phase: PhaseBeforeInstantiation,
		},
		Metrics: MetricsConfig{
			Namespace: "loom",
		},
	}
}

// Load reads configPath if it is set, applies LOOM_* environment overrides
// on top of defaults and validates the result. A missing file is an error; an
// empty path uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	def := Default()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("instantiation", def.Instantiation)
	v.SetDefault("disposal", def.Disposal)
	v.SetDefault("proxy.target_type", def.Proxy.TargetType)
	v.SetDefault("proxy.phase", def.Proxy.Phase)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.namespace", def.Metrics.Namespace)

	// LOOM_LOGGING_LEVEL=debug overrides logging.level.
	v.SetEnvPrefix("LOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// MustLoad is Load for program entry points.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
