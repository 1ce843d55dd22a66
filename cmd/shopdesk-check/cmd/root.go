// Package cmd holds the shopdesk-check commands.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errCheckFailed reports a value that did not pass. The details are already
// printed.
var errCheckFailed = errors.New("check failed")

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shopdesk-check",
		Short: "Offline checks for shopdesk records",
		Long: `shopdesk-check runs the same normalization and validation rules as the
shopdesk server, without a server or database.

Commands:
  validate  - check a record file through a form session
  cpf       - mask and validate a CPF
  password  - report password strength
  token     - mint a bearer token for testing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newValidateCmd())
	root.AddCommand(newCPFCmd())
	root.AddCommand(newPasswordCmd())
	root.AddCommand(newTokenCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && !errors.Is(err, errCheckFailed) {
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
	}
	return err
}

func mark(ok bool) string {
	if ok {
		return "[x]"
	}
	return "[ ]"
}
