// Package config reads lulu settings from flags, LULU_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aryanA101a/lulu/vm"
	"github.com/spf13/viper"
)

// keys
const (
	KeyStart          = "start"
	KeyPollTimeout    = "poll-timeout"
	KeyCompat         = "compat"
	KeyWatch          = "watch"
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
	KeyLogMaxSize     = "log.max-size"
	KeyLogMaxBackups  = "log.max-backups"
	EnvPrefix         = "LULU"
	defaultConfigName = "config"
)

var ErrAddress = errors.New("invalid address")

type Log struct {
	Level      string
	File       string
	MaxSize    int // megabytes
	MaxBackups int
}

type Config struct {
	Start       vm.Word
	PollTimeout time.Duration
	Compat      bool
	Watch       bool
	Log         Log
}

// SetDefaults registers default values and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStart, "0x3000")
	v.SetDefault(KeyPollTimeout, vm.DefaultPollTimeout)
	v.SetDefault(KeyCompat, false)
	v.SetDefault(KeyWatch, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSize, 10)
	v.SetDefault(KeyLogMaxBackups, 3)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// DefaultDir is $HOME/.config/lulu, or "" when there is no home directory.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lulu")
}

// ReadFile reads path into v. With an empty path it looks for config.* in
// DefaultDir and a missing file there is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	dir := DefaultDir()
	if dir == "" {
		return nil
	}
	v.SetConfigName(defaultConfigName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load validates the settings in v.
func Load(v *viper.Viper) (Config, error) {
	start, err := ParseAddress(v.GetString(KeyStart))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyStart, err)
	}

	cfg := Config{
		Start:       start,
		PollTimeout: v.GetDuration(KeyPollTimeout),
		Compat:      v.GetBool(KeyCompat),
		Watch:       v.GetBool(KeyWatch),
		Log: Log{
			Level:      v.GetString(KeyLogLevel),
			File:       v.GetString(KeyLogFile),
			MaxSize:    v.GetInt(KeyLogMaxSize),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
		},
	}
	if cfg.PollTimeout <= 0 {
		return Config{}, fmt.Errorf("%s: must be positive, got %v", KeyPollTimeout, cfg.PollTimeout)
	}
	return cfg, nil
}

// ParseAddress accepts 0x3000, x3000 or decimal.
func ParseAddress(s string) (vm.Word, error) {
	s = strings.TrimSpace(s)
	var (
		n   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseUint(s[2:], 16, 16)
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		n, err = strconv.ParseUint(s[1:], 16, 16)
	default:
		n, err = strconv.ParseUint(s, 10, 16)
	}
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrAddress, s)
	}
	return vm.Word(n), nil
}
