// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/invowk/m3bridge/internal/cueutil"
	"github.com/invowk/m3bridge/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "m3bridge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. M3BRIDGE_UI_VERBOSE.
	EnvPrefix = "M3BRIDGE"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the m3bridge directory under the XDG config home.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("%w: no config home directory", issue.ErrConfigLoad)
	}
	return filepath.Join(xdg.ConfigHome, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("realms.conf", defaults.Realms.Conf)
	v.SetDefault("runtime.min_version", defaults.Runtime.MinVersion)
	v.SetDefault("transport.dial_timeout", defaults.Transport.DialTimeout)
	v.SetDefault("transport.buffer_size", defaults.Transport.BufferSize)
	v.SetDefault("engine.executable", defaults.Engine.Executable)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	properties := map[string]string{}
	resolvedPath := ""
	load := func(path string) error {
		props, err := loadCUEIntoViper(v, path)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'm3bridge config show' to see the effective configuration").
				Wrap(fmt.Errorf("%w: %w", issue.ErrConfigLoad, err)).
				BuildError()
		}
		properties = props
		resolvedPath = path
		return nil
	}

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'm3bridge config init' to create a default configuration").
				Wrap(fmt.Errorf("%w: config file not found: %s", issue.ErrConfigLoad, opts.ConfigFilePath)).
				BuildError()
		}
		if err := load(opts.ConfigFilePath); err != nil {
			return nil, err
		}
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, err
		}
		candidates := []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		}
		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if err := load(path); err != nil {
				return nil, err
			}
			break
		}
		// No config file means defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", issue.ErrConfigLoad, err)
	}
	cfg.Properties = properties
	cfg.Path = resolvedPath

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Transport timeouts and buffer sizes must be positive").
			Wrap(fmt.Errorf("%w: %w", issue.ErrConfigLoad, errs[0])).
			BuildError()
	}
	return &cfg, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// v. Viper folds key case and splits keys on dots, so the properties map is
// returned separately instead of being merged.
func loadCUEIntoViper(v *viper.Viper, path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	decoded, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return nil, err
	}
	configMap := *decoded

	properties := map[string]string{}
	if raw, ok := configMap["properties"].(map[string]any); ok {
		for k, val := range raw {
			properties[k] = fmt.Sprint(val)
		}
	}
	delete(configMap, "properties")

	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return properties, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration into dir (the
// config directory when empty) unless a config file already exists. It
// returns the file path and whether it was written.
func CreateDefaultConfig(dir string) (string, bool, error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// m3bridge configuration file\n\n")

	if len(cfg.Properties) > 0 {
		sb.WriteString("properties: {\n")
		for _, k := range slices.Sorted(maps.Keys(cfg.Properties)) {
			fmt.Fprintf(&sb, "\t%q: %q\n", k, cfg.Properties[k])
		}
		sb.WriteString("}\n\n")
	}

	if cfg.Realms.Conf != "" {
		fmt.Fprintf(&sb, "realms: conf: %q\n\n", cfg.Realms.Conf)
	}
	if cfg.Runtime.MinVersion != "" {
		fmt.Fprintf(&sb, "runtime: min_version: %q\n\n", cfg.Runtime.MinVersion)
	}

	sb.WriteString("transport: {\n")
	fmt.Fprintf(&sb, "\tdial_timeout: %q\n", cfg.Transport.DialTimeout.String())
	fmt.Fprintf(&sb, "\tbuffer_size:  %d\n", cfg.Transport.BufferSize)
	sb.WriteString("}\n")

	if cfg.Engine.Executable != "" {
		fmt.Fprintf(&sb, "\nengine: executable: %q\n", cfg.Engine.Executable)
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
