// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/spmkit/spm/pkg/namespace"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultPrivateMarker excludes a procedure from the host when its name contains it.
	DefaultPrivateMarker Marker = "#"
	// DefaultHiddenMarker hides a procedure definition when its name contains it.
	DefaultHiddenMarker Marker = "_"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidMarker is the sentinel error wrapped by InvalidMarkerError.
	ErrInvalidMarker = errors.New("invalid procedure marker")
	// ErrInvalidExcludePattern is the sentinel error wrapped by InvalidExcludePatternError.
	ErrInvalidExcludePattern = errors.New("invalid exclude pattern")
	// ErrInvalidDirPath is returned when a DirPath value is whitespace-only.
	ErrInvalidDirPath = errors.New("invalid directory path")
	// ErrInvalidMergeConfig is the sentinel error wrapped by InvalidMergeConfigError.
	ErrInvalidMergeConfig = errors.New("invalid merge config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Marker is a substring of a procedure name that changes how the merge treats it.
	Marker string

	// InvalidMarkerError is returned when a Marker is empty or contains the
	// namespace separator.
	InvalidMarkerError struct {
		Value Marker
	}

	// ExcludePattern is a doublestar glob matched against archive member names.
	ExcludePattern string

	// InvalidExcludePatternError is returned when an ExcludePattern does not compile.
	InvalidExcludePatternError struct {
		Value ExcludePattern
	}

	// DirPath represents a filesystem path to a directory.
	// The zero value ("") is valid and means "use the default location".
	DirPath string

	// InvalidDirPathError is returned when a DirPath value is non-empty but
	// whitespace-only.
	InvalidDirPathError struct {
		Value DirPath
	}

	// InvalidMergeConfigError is returned when a MergeConfig has invalid fields.
	// It wraps ErrInvalidMergeConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidMergeConfigError struct {
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
		// TempDir is where archives are unpacked while they are worked on.
		TempDir DirPath `json:"temp_dir" mapstructure:"temp_dir"`
		// Archive configures how archives are written back.
		Archive ArchiveConfig `json:"archive" mapstructure:"archive"`
		// Merge configures the merge engine.
		Merge MergeConfig `json:"merge" mapstructure:"merge"`
		// Defaults supplies sprite names when the command line omits them.
		Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ArchiveConfig configures archive packing.
	ArchiveConfig struct {
		// Exclude lists payload patterns that are dropped when an archive is packed.
		Exclude []ExcludePattern `json:"exclude" mapstructure:"exclude"`
	}

	// MergeConfig configures the merge engine.
	MergeConfig struct {
		PrivateMarker  Marker `json:"private_marker" mapstructure:"private_marker"`
		HiddenMarker   Marker `json:"hidden_marker" mapstructure:"hidden_marker"`
		ResetPositions bool   `json:"reset_positions" mapstructure:"reset_positions"`
	}

	// DefaultsConfig supplies fallback sprite names.
	DefaultsConfig struct {
		// HostSprite receives merged modules when no sprite is given.
		HostSprite string `json:"host_sprite" mapstructure:"host_sprite"`
		// ModuleSprite is read from module archives when no manifest names one.
		ModuleSprite string `json:"module_sprite" mapstructure:"module_sprite"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{Exclude: []ExcludePattern{}},
		Merge: MergeConfig{
			PrivateMarker:  DefaultPrivateMarker,
			HiddenMarker:   DefaultHiddenMarker,
			ResetPositions: true,
		},
		UI: UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// ExcludeGlobs returns the exclude patterns as plain strings.
func (c ArchiveConfig) ExcludeGlobs() []string {
	globs := make([]string, len(c.Exclude))
	for i, p := range c.Exclude {
		globs[i] = string(p)
	}
	return globs
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.TempDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, p := range c.Archive.Exclude {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Merge.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether both markers are valid and distinct.
func (c MergeConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.PrivateMarker.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.HiddenMarker.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) == 0 && c.PrivateMarker == c.HiddenMarker {
		errs = append(errs, fmt.Errorf("private and hidden markers are both %q", c.PrivateMarker))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidMergeConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidMergeConfigError.
func (e *InvalidMergeConfigError) Error() string {
	return fmt.Sprintf("invalid merge config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidMergeConfig for errors.Is() compatibility.
func (e *InvalidMergeConfigError) Unwrap() error { return ErrInvalidMergeConfig }

// String returns the string representation of the Marker.
func (m Marker) String() string { return string(m) }

// IsValid returns whether the Marker can be used to classify procedures.
func (m Marker) IsValid() (bool, []error) {
	if strings.TrimSpace(string(m)) == "" || strings.Contains(string(m), namespace.Separator) {
		return false, []error{&InvalidMarkerError{Value: m}}
	}
	return true, nil
}

// Error implements the error interface for InvalidMarkerError.
func (e *InvalidMarkerError) Error() string {
	return fmt.Sprintf("invalid procedure marker %q: must be non-blank and must not contain %q", e.Value, namespace.Separator)
}

// Unwrap returns ErrInvalidMarker for errors.Is() compatibility.
func (e *InvalidMarkerError) Unwrap() error { return ErrInvalidMarker }

// String returns the string representation of the ExcludePattern.
func (p ExcludePattern) String() string { return string(p) }

// IsValid returns whether the pattern is a well-formed doublestar glob.
func (p ExcludePattern) IsValid() (bool, []error) {
	if p == "" || !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidExcludePatternError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExcludePatternError.
func (e *InvalidExcludePatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q", e.Value)
}

// Unwrap returns ErrInvalidExcludePattern for errors.Is() compatibility.
func (e *InvalidExcludePatternError) Unwrap() error { return ErrInvalidExcludePattern }

// String returns the string representation of the DirPath.
func (p DirPath) String() string { return string(p) }

// IsValid returns whether the DirPath is valid.
// The zero value ("") is valid. Non-zero values must not be whitespace-only.
func (p DirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDirPathError.
func (e *InvalidDirPathError) Error() string {
	return fmt.Sprintf("invalid directory path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDirPath for errors.Is() compatibility.
func (e *InvalidDirPathError) Unwrap() error { return ErrInvalidDirPath }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}
