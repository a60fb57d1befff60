package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix        = "JOBSH"
	defaultConfigDir = "~/.config/jobsh"

	promptAuto   = "auto"
	promptAlways = "always"
	promptNever  = "never"
)

type config struct {
	logLevel string
	logFile  string
	prompt   string
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"log.level": "log-level",
	"log.file":  "log-file",
	"prompt":    "prompt",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("prompt", promptAuto)
}

// loadConfig reads configuration from configPath, or from config.yaml in the
// default config directory if configPath is empty. A missing default config
// file is not an error.
func loadConfig(v *viper.Viper, configPath string) (*config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		path, err := homedir.Expand(configPath)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}

		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := homedir.Expand(defaultConfigDir)
		if err != nil {
			return nil, fmt.Errorf("expand config dir: %w", err)
		}

		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)

		if err := v.ReadInConfig(); err != nil &&
			!errors.As(err, new(viper.ConfigFileNotFoundError)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &config{
		logLevel: v.GetString("log.level"),
		logFile:  v.GetString("log.file"),
		prompt:   v.GetString("prompt"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return fmt.Errorf("invalid log level '%s'", c.logLevel)
	}

	switch c.prompt {
	case promptAuto, promptAlways, promptNever:
	default:
		return fmt.Errorf(
			"prompt must be one of %s, %s or %s",
			promptAuto,
			promptAlways,
			promptNever,
		)
	}

	return nil
}

// showPrompt reports whether the prompt should be printed given whether stdin
// is a terminal.
func (c *config) showPrompt(isTerminal bool) bool {
	switch c.prompt {
	case promptAlways:
		return true
	case promptNever:
		return false
	default:
		return isTerminal
	}
}

// newLogger creates the shell's logger. Logs go to the configured log file,
// or to stderr if none is set. The returned func closes the log file.
func newLogger(cfg *config, stderr io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	w := stderr
	closeLog := func() {}

	if cfg.logFile != "" {
		path, err := homedir.Expand(cfg.logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("expand log file path: %w", err)
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}

		w = f
		closeLog = func() { f.Close() }
	}

	logger := slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	).With("session", uuid.NewString())

	return logger, closeLog, nil
}
