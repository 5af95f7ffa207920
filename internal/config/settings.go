package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Settings holds the user-tunable runtime parameters.
//
// Precedence (highest to lowest):
//  1. Environment variables (NOTABENE_DATA_FILE, NOTABENE_PORT, ...)
//  2. Variables from a .env file in the working directory
//  3. YAML settings file (~/.config/notabene/config.yaml)
//  4. Hardcoded defaults
//
// Command line flags are applied on top by the caller.
type Settings struct {
	DataFile  string `koanf:"data_file"`
	Port      string `koanf:"port"`
	Language  string `koanf:"language"`
	PageLines int    `koanf:"page_lines"`
	Debug     bool   `koanf:"debug"`

	// Reminder is an ISO 8601 duration (e.g. "-P1D") for the alarm attached
	// to calendar feed events. Empty disables alarms.
	Reminder string `koanf:"reminder"`
}

// DefaultSettingsPath returns ~/.config/notabene/config.yaml, honouring XDG_CONFIG_HOME.
func DefaultSettingsPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%s: %w", ErrHomeDir, err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, SettingsDir, SettingsFileName), nil
}

// LoadSettings builds Settings from the YAML file at path (skipped when absent),
// the optional .env file and the process environment.
// An empty path selects DefaultSettingsPath.
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if path == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := readSettingsFile(path)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", ErrSettingsLoad, path, err)
		}
		slog.Debug(MsgSettingsFile,
			LogKeyComponent, CompSettings,
			LogKeyFile, path)
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(DotEnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %s: %w", ErrSettingsLoad, DotEnvFileName, err)
	}

	// NOTABENE_PAGE_LINES -> page_lines
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}

	if err := s.applyDefaults(); err != nil {
		return nil, err
	}
	return &s, nil
}

// readSettingsFile returns nil content when the file does not exist.
func readSettingsFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, MaxSettingsFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}
	if len(content) > MaxSettingsFileSize {
		return nil, fmt.Errorf("%s: %s", ErrSettingsSize, path)
	}
	return content, nil
}

func (s *Settings) applyDefaults() error {
	if s.DataFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("%s: %w", ErrHomeDir, err)
		}
		s.DataFile = filepath.Join(home, DataFileName)
	}
	if s.Port == "" {
		s.Port = DefaultPort
	}
	if s.Language == "" || !slices.Contains(SupportedLanguages, s.Language) {
		s.Language = DefaultLanguage
	}
	if s.PageLines < 0 {
		s.PageLines = DefaultPageLines
	}
	return nil
}
