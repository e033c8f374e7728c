package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes returned by Run.
const (
	ExitOK         = 0
	ExitError      = 1
	ExitUsageError = 2
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// usageError marks failures caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional argument validator so its failures count as
// usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewmarks",
		Short: "Index code-review comments and serve them to editor plugins",
		Long: `reviewmarks keeps code-review comments keyed by review, author, and id,
aggregates the files they refer to into a merged project tree, and keeps
editor annotations in step with the comments a document should display.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return root
}

// Run executes the root command with os.Args and returns the exit code.
func Run() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out)
	root.SetErr(errOut)
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(context.Background())
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(errOut, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		if cmd == nil {
			cmd = root
		}
		fmt.Fprintln(errOut, cmd.UsageString())
		return ExitUsageError
	}
	return ExitError
}
