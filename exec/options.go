package exec

import (
	"context"
	"io"
	"time"
)

// Option configures a Command with global settings.
// Global settings apply to every Run and are overridden by local settings.
type Option func(*Command)

// WithEnv returns an Option that sets global environment variables.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		for k, v := range env {
			c.config.globalEnv[k] = v
		}
	}
}

// WithDir returns an Option that sets the global working directory.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.config.globalDir = dir
	}
}

// WithContext returns an Option that sets the global context.
func WithContext(ctx context.Context) Option {
	return func(c *Command) {
		c.ctx = ctx
	}
}

// WithTimeout returns an Option that sets a global timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Command) {
		c.config.globalTimeout = timeout
	}
}

// WithInheritEnv returns an Option that globally enables environment inheritance.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.config.globalInheritEnv = true
	}
}

// WithNonInteractive returns an Option that globally disables prompts.
func WithNonInteractive() Option {
	return func(c *Command) {
		c.config.globalNonInteractive = true
	}
}

// WithStdout returns an Option that sets the stdout writer.
func WithStdout(w io.Writer) Option {
	return func(c *Command) {
		c.stdout = w
	}
}

// WithStderr returns an Option that sets the stderr writer.
func WithStderr(w io.Writer) Option {
	return func(c *Command) {
		c.stderr = w
	}
}

// WithPassthrough returns an Option that globally enables output passthrough.
func WithPassthrough() Option {
	return func(c *Command) {
		c.config.globalPassthrough = true
	}
}

// config holds the configuration for command execution.
type config struct {
	globalEnv            map[string]string
	globalDir            string
	globalTimeout        time.Duration
	globalInheritEnv     bool
	globalNonInteractive bool
	globalPassthrough    bool

	localEnv            map[string]string
	localDir            string
	localTimeout        *time.Duration
	localInheritEnv     *bool
	localNonInteractive *bool
	localPassthrough    *bool
}

func newConfig() *config {
	return &config{
		globalEnv: make(map[string]string),
		localEnv:  make(map[string]string),
	}
}

// clone copies the global settings. Local settings are per-run and not copied.
func (c *config) clone() *config {
	clone := newConfig()
	for k, v := range c.globalEnv {
		clone.globalEnv[k] = v
	}
	clone.globalDir = c.globalDir
	clone.globalTimeout = c.globalTimeout
	clone.globalInheritEnv = c.globalInheritEnv
	clone.globalNonInteractive = c.globalNonInteractive
	clone.globalPassthrough = c.globalPassthrough
	return clone
}

// effectiveEnv merges global and local environment variables.
// Local settings override global settings.
func (c *config) effectiveEnv() map[string]string {
	env := make(map[string]string)
	for k, v := range c.globalEnv {
		env[k] = v
	}
	for k, v := range c.localEnv {
		env[k] = v
	}

	if pick(c.localNonInteractive, c.globalNonInteractive) {
		env["GIT_TERMINAL_PROMPT"] = "0"
		env["GIT_ASKPASS"] = ""
		env["SSH_ASKPASS"] = ""
		env["LC_ALL"] = "C"
		env["NO_COLOR"] = "1"
	}

	return env
}

func (c *config) effectiveDir() string {
	if c.localDir != "" {
		return c.localDir
	}
	return c.globalDir
}

func (c *config) effectiveTimeout() time.Duration {
	if c.localTimeout != nil {
		return *c.localTimeout
	}
	return c.globalTimeout
}

func (c *config) effectiveInheritEnv() bool {
	return pick(c.localInheritEnv, c.globalInheritEnv)
}

func (c *config) effectivePassthrough() bool {
	return pick(c.localPassthrough, c.globalPassthrough)
}

// resetLocal clears local settings so they don't carry over to the next Run.
func (c *config) resetLocal() {
	c.localEnv = make(map[string]string)
	c.localDir = ""
	c.localTimeout = nil
	c.localInheritEnv = nil
	c.localNonInteractive = nil
	c.localPassthrough = nil
}

func pick(local *bool, global bool) bool {
	if local != nil {
		return *local
	}
	return global
}
