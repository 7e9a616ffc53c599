package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError is a problem with one configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors make the configuration unusable.
	Errors []ValidationError
	// Warnings are settings that work but are probably not what was meant.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// maxDimension is the largest surface edge accepted without a warning.
const maxDimension = 16384

// Validator checks a Config.
type Validator struct {
	// strictMode reports warnings as errors.
	strictMode bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode makes every warning an error.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate checks every field of cfg.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	v.validateSurface(cfg, result)
	v.validatePresentation(cfg, result)
	v.validateRuntime(cfg, result)

	if v.strictMode {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}
	return result
}

func (v *Validator) validateSurface(cfg *Config, result *ValidationResult) {
	if cfg.Width <= 0 {
		result.AddError("width", fmt.Sprintf("must be positive, got %d", cfg.Width))
	} else if cfg.Width > maxDimension {
		result.AddWarning("width", fmt.Sprintf("unusually large value %d", cfg.Width))
	}
	if cfg.Height <= 0 {
		result.AddError("height", fmt.Sprintf("must be positive, got %d", cfg.Height))
	} else if cfg.Height > maxDimension {
		result.AddWarning("height", fmt.Sprintf("unusually large value %d", cfg.Height))
	}
	if cfg.GlobalOpacity <= 0 || cfg.GlobalOpacity > 1 {
		result.AddError("global_opacity", fmt.Sprintf("must be in (0, 1], got %g", cfg.GlobalOpacity))
	}
	if cfg.Layer < -1 || cfg.Layer > 1 {
		result.AddError("layer", fmt.Sprintf("must be -1, 0 or 1, got %d", cfg.Layer))
	}
}

func (v *Validator) validatePresentation(cfg *Config, result *ValidationResult) {
	if cfg.Backend > BackendSoftware || cfg.Backend < BackendGPU {
		result.AddError("backend", fmt.Sprintf("unknown backend: %d", cfg.Backend))
	}
	if cfg.Present > PresentHeadless || cfg.Present < PresentWindow {
		result.AddError("present", fmt.Sprintf("unknown present mode: %d", cfg.Present))
	}
	if cfg.Backend == BackendGPU && cfg.Present != PresentWindow {
		result.AddError("present", fmt.Sprintf("gpu backend needs a window, got %s", cfg.Present))
	}
	if cfg.SnapshotDir != "" && cfg.Present != PresentHeadless {
		result.AddWarning("snapshot_dir", fmt.Sprintf("only used by the headless presenter, present is %s", cfg.Present))
	}
	if cfg.Present == PresentHeadless && cfg.Resizable {
		result.AddWarning("resizable", "headless surfaces have a fixed size")
	}
}

func (v *Validator) validateRuntime(cfg *Config, result *ValidationResult) {
	if cfg.MaxScriptDepth <= 0 {
		result.AddError("max_script_depth", fmt.Sprintf("must be positive, got %d", cfg.MaxScriptDepth))
	}
	if cfg.PollInterval <= 0 {
		result.AddError("poll_interval", fmt.Sprintf("must be positive, got %s", cfg.PollInterval))
	} else if cfg.PollInterval > time.Second {
		result.AddWarning("poll_interval", fmt.Sprintf("resizes are noticed late with %s", cfg.PollInterval))
	}
}

// Validate reports the configuration's errors; warnings are ignored.
func (c *Config) Validate() error {
	return NewValidator().Validate(c).Error()
}
