package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "tmux.poll_min_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// socketNameRegex matches names tmux accepts for -L
var socketNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidBackends returns the list of valid tool backends
func ValidBackends() []string {
	return []string{"tmux", "sim"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateTool()...)
	errors = append(errors, c.validateTmux()...)
	errors = append(errors, c.validateClose()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateApp() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.App.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Value:   c.App.Name,
			Message: "must not be empty",
		})
	}

	return errors
}

func (c *Config) validateTool() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), c.Tool.Backend) {
		errors = append(errors, ValidationError{
			Field:   "tool.backend",
			Value:   c.Tool.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	return errors
}

// validateTmux validates the TmuxConfig
func (c *Config) validateTmux() []ValidationError {
	var errors []ValidationError

	if c.Tmux.Socket != "" && !socketNameRegex.MatchString(c.Tmux.Socket) {
		errors = append(errors, ValidationError{
			Field:   "tmux.socket",
			Value:   c.Tmux.Socket,
			Message: "must start with a letter or digit and contain only letters, digits, '.', '_' or '-'",
		})
	}

	// Only required when the tmux backend is in use
	if c.Tool.Backend == "tmux" && strings.TrimSpace(c.Tmux.Editor) == "" {
		errors = append(errors, ValidationError{
			Field:   "tmux.editor",
			Value:   c.Tmux.Editor,
			Message: "must not be empty",
		})
	}

	if c.Tmux.Width < 20 {
		errors = append(errors, ValidationError{
			Field:   "tmux.width",
			Value:   c.Tmux.Width,
			Message: "must be at least 20",
		})
	}
	if c.Tmux.Height < 5 {
		errors = append(errors, ValidationError{
			Field:   "tmux.height",
			Value:   c.Tmux.Height,
			Message: "must be at least 5",
		})
	}

	if strings.TrimSpace(c.Tmux.MenuKey) == "" {
		errors = append(errors, ValidationError{
			Field:   "tmux.menu_key",
			Value:   c.Tmux.MenuKey,
			Message: "must not be empty",
		})
	}

	if c.Tmux.PollMinMs < 10 {
		errors = append(errors, ValidationError{
			Field:   "tmux.poll_min_ms",
			Value:   c.Tmux.PollMinMs,
			Message: "must be at least 10",
		})
	}
	if c.Tmux.PollMaxMs < c.Tmux.PollMinMs {
		errors = append(errors, ValidationError{
			Field:   "tmux.poll_max_ms",
			Value:   c.Tmux.PollMaxMs,
			Message: fmt.Sprintf("must not be less than tmux.poll_min_ms (%d)", c.Tmux.PollMinMs),
		})
	}

	return errors
}

// validateClose validates the CloseConfig
func (c *Config) validateClose() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Close.CommandLabel) == "" {
		errors = append(errors, ValidationError{
			Field:   "close.command_label",
			Value:   c.Close.CommandLabel,
			Message: "must not be empty",
		})
	}

	if c.Close.PreCloseSettleMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "close.pre_close_settle_ms",
			Value:   c.Close.PreCloseSettleMs,
			Message: "must not be negative",
		})
	}

	for i, key := range c.Close.PreCloseKeys {
		if key == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("close.pre_close_keys[%d]", i),
				Value:   key,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
