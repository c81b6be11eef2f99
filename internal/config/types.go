// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invowk/m3bridge/internal/transport"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidTransportConfig is the sentinel error wrapped by InvalidTransportConfigError.
	ErrInvalidTransportConfig = errors.New("invalid transport config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrEmptyPropertyName is returned when a configured property has a blank name.
	ErrEmptyPropertyName = errors.New("empty property name")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidTransportConfigError is returned when a TransportConfig has
	// invalid fields. It wraps ErrInvalidTransportConfig for errors.Is()
	// compatibility.
	InvalidTransportConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Properties are extra runtime properties. Keys keep their case.
		Properties map[string]string `json:"properties" mapstructure:"-"`
		Realms     RealmsConfig      `json:"realms" mapstructure:"realms"`
		Runtime    RuntimeConfig     `json:"runtime" mapstructure:"runtime"`
		Transport  TransportConfig   `json:"transport" mapstructure:"transport"`
		Engine     EngineConfig      `json:"engine" mapstructure:"engine"`
		UI         UIConfig          `json:"ui" mapstructure:"ui"`

		// Path is the file the configuration was read from; empty when
		// only defaults apply.
		Path string `json:"-" mapstructure:"-"`
	}

	// RealmsConfig selects the realm configuration.
	RealmsConfig struct {
		// Conf is a realm configuration file. Empty means the embedded one.
		Conf string `json:"conf" mapstructure:"conf"`
	}

	// RuntimeConfig constrains the hosting runtime.
	RuntimeConfig struct {
		MinVersion string `json:"min_version" mapstructure:"min_version"`
	}

	// TransportConfig tunes the orchestrator connection.
	TransportConfig struct {
		DialTimeout time.Duration `json:"dial_timeout" mapstructure:"dial_timeout"`
		BufferSize  int           `json:"buffer_size" mapstructure:"buffer_size"`
	}

	// EngineConfig configures the build engine process.
	EngineConfig struct {
		// Executable overrides ${maven.home}/bin/mvn.
		Executable string `json:"executable" mapstructure:"executable"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// IsValid returns whether the TransportConfig has valid fields.
func (c TransportConfig) IsValid() (bool, []error) {
	var errs []error
	if c.DialTimeout <= 0 {
		errs = append(errs, fmt.Errorf("dial_timeout %s must be positive", c.DialTimeout))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer_size %d must be positive", c.BufferSize))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidTransportConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidTransportConfigError.
func (e *InvalidTransportConfigError) Error() string {
	return fmt.Sprintf("invalid transport config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidTransportConfig for errors.Is() compatibility.
func (e *InvalidTransportConfigError) Unwrap() error { return ErrInvalidTransportConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Transport.IsValid() and UI.ColorScheme.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Transport.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for k := range c.Properties {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("properties: %w", ErrEmptyPropertyName))
			break
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Properties: map[string]string{},
		Transport: TransportConfig{
			DialTimeout: transport.DefaultDialTimeout,
			BufferSize:  transport.DefaultBufferSize,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
