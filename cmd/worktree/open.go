package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/worktree-io/worktree/config"
	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/launch"
	"github.com/worktree-io/worktree/provision"
)

type openFlags struct {
	launch    launch.Flags
	printPath bool
}

func (a *app) newOpenCmd() *cobra.Command {
	var flags openFlags

	cmd := &cobra.Command{
		Use:   "open <REF>",
		Short: "Create or reuse the worktree for an issue and open it",
		Long: `Create or reuse the worktree for an issue and open it.

REF is an issue URL (https://github.com/owner/repo/issues/42), shorthand
(owner/repo#42) or a worktree:// deep link.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.launch.Editor, "editor", false, "open the worktree in the configured editor")
	cmd.Flags().BoolVar(&flags.launch.Explorer, "explorer", false, "open the worktree in the file explorer")
	cmd.Flags().BoolVar(&flags.launch.Terminal, "terminal", false, "open a terminal in the worktree")
	cmd.Flags().BoolVar(&flags.printPath, "print-path", false, "print the worktree path and exit without opening anything")

	return cmd
}

func (a *app) open(cmd *cobra.Command, ref string, flags openFlags) error {
	ctx := cmd.Context()

	cfg, _, err := a.loadConfig()
	if err != nil {
		return err
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}

	logger := a.logger()
	engine, err := provision.FromConfig(resolved, provision.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := engine.Open(ctx, ref, resolved)
	if err != nil {
		return err
	}
	a.warn(res.Warnings...)

	ws := res.Workspace
	if flags.printPath {
		fmt.Fprintln(a.stdout, ws.Path)
		return nil
	}

	if ws.Created {
		fmt.Fprintf(a.stderr, "Created workspace at %s\n", ws.Path)
	} else {
		fmt.Fprintf(a.stderr, "Workspace already exists at %s\n", ws.Path)
	}

	lf := flags.launch
	lf.EditorOverride = res.Options.Editor
	a.launch(cmd, ws.Path, resolved, lf)

	a.warn(engine.PostOpen(ctx, res, resolved)...)
	return nil
}

// launch starts the planned programs. Failures are reported but do not
// fail the command; the workspace is already usable.
func (a *app) launch(cmd *cobra.Command, path string, resolved config.Resolved, flags launch.Flags) {
	actions, err := launch.Plan(path, resolved, flags)
	if err != nil {
		fmt.Fprintf(a.stderr, "warning: %s\n", errors.Describe(err))
		return
	}
	if resolved.OpenEditor && resolved.EditorCommand == "" && flags.EditorOverride == "" {
		fmt.Fprintln(a.stderr, `hint: no editor configured; run: worktree config set editor.command "code ."`)
	}

	spawner := launch.NewSpawner(launch.WithLogger(a.logger()))
	for _, action := range actions {
		if err := spawner.Spawn(cmd.Context(), action); err != nil {
			fmt.Fprintf(a.stderr, "warning: %s\n", errors.Describe(err))
		}
	}
}

func (a *app) warn(warnings ...provision.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(a.stderr, "warning: %s\n", w)
	}
}
