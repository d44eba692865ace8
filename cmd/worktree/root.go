package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/worktree-io/worktree/config"
	"github.com/worktree-io/worktree/logging"
)

// app holds the state shared by subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "worktree",
		Short:         "Open isolated git worktrees for GitHub issues",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/worktree/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log provisioning steps to stderr")

	root.AddCommand(a.newOpenCmd(), a.newConfigCmd())
	return root
}

// path returns the config file in use.
func (a *app) path() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

func (a *app) loadConfig() (*config.Config, string, error) {
	path, err := a.path()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func (a *app) logger() *logging.Logger {
	level := logging.LogLevelWarn
	if a.verbose {
		level = logging.LogLevelDebug
	}
	return logging.NewLogger(logging.LogConfig{Level: level, Output: a.stderr})
}
