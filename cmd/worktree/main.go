// Command worktree opens an isolated git worktree for a GitHub issue.
//
//	worktree open acme/api#42
//	worktree open https://github.com/acme/api/issues/42 --terminal
//	worktree open 'worktree://open?owner=acme&repo=api&issue=42&editor=zed'
//	worktree config set editor.command "code ."
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/worktree-io/worktree/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", errors.Describe(err))
		return 1
	}
	return 0
}
