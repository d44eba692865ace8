package config

import (
	"sort"
	"strconv"

	"github.com/worktree-io/worktree/errors"
)

// field addresses one setting by its dotted key.
type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(p func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error {
			*p(c) = v
			return nil
		},
	}
}

func boolField(p func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Newf(errors.CodeInvalidInput, "invalid boolean value %q", v)
			}
			*p(c) = b
			return nil
		},
	}
}

var fields = map[string]field{
	"editor.command":      stringField(func(c *Config) *string { return &c.Editor.Command }),
	"terminal.command":    stringField(func(c *Config) *string { return &c.Terminal.Command }),
	"open.editor":         boolField(func(c *Config) *bool { return &c.Open.Editor }),
	"open.explorer":       boolField(func(c *Config) *bool { return &c.Open.Explorer }),
	"open.terminal":       boolField(func(c *Config) *bool { return &c.Open.Terminal }),
	"hooks.pre:open":      stringField(func(c *Config) *string { return &c.Hooks.PreOpen }),
	"hooks.post:open":     stringField(func(c *Config) *string { return &c.Hooks.PostOpen }),
	"cache.root":          stringField(func(c *Config) *string { return &c.Cache.Root }),
	"cache.lock_timeout":  stringField(func(c *Config) *string { return &c.Cache.LockTimeout }),
	"hook_runner.shell":   stringField(func(c *Config) *string { return &c.HookRunner.Shell }),
	"hook_runner.timeout": stringField(func(c *Config) *string { return &c.HookRunner.Timeout }),
	"remote.host":         stringField(func(c *Config) *string { return &c.Remote.Host }),
	"remote.protocol":     stringField(func(c *Config) *string { return &c.Remote.Protocol }),
	"remote.use_api":      boolField(func(c *Config) *bool { return &c.Remote.UseAPI }),
}

// Keys lists every key accepted by Get and Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key such as "editor.command".
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(c), nil
}

// Set changes the value of a dotted key. The new configuration must still
// resolve.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}

	next := *c
	if err := f.set(&next, value); err != nil {
		return errors.WithContext(err, "key", key)
	}
	if _, err := next.Resolve(); err != nil {
		return errors.WithContext(err, "key", key)
	}

	*c = next
	return nil
}

func unknownKey(key string) error {
	return errors.WithContext(errors.Newf(errors.CodeInvalidInput, "unknown config key %q", key), "key", key)
}
