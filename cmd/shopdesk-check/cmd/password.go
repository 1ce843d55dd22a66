package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/shopdesk/internal/core/validation"
)

func newPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password VALUE",
		Short: "Report password strength",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s := validation.CheckPassword(args[0])

			fmt.Fprintf(out, "%s at least %d characters\n", mark(s.MeetsMinLength), validation.MinPasswordLength)
			fmt.Fprintf(out, "%s an uppercase letter\n", mark(s.HasUpper))
			fmt.Fprintf(out, "%s a lowercase letter\n", mark(s.HasLower))
			fmt.Fprintf(out, "%s a number\n", mark(s.HasDigit))
			fmt.Fprintf(out, "%s a special character\n", mark(s.HasSpecial))
			fmt.Fprintln(out, validation.PasswordStrengthMessage(args[0]))
			if !s.IsValid {
				return errCheckFailed
			}
			return nil
		},
	}
}
