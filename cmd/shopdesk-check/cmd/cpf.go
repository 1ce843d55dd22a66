package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/shopdesk/internal/core/normalize"
	"github.com/artpar/shopdesk/internal/core/validation"
)

func newCPFCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cpf VALUE",
		Short: "Mask and validate a CPF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			valid := validation.IsValidCPF(args[0])

			fmt.Fprintf(out, "digits: %s\n", normalize.NormalizeCPF(args[0]))
			fmt.Fprintf(out, "masked: %s\n", normalize.MaskCPF(args[0]))
			fmt.Fprintf(out, "valid:  %t (%s)\n", valid, validation.ActiveCPFPolicy())
			if !valid {
				return errCheckFailed
			}
			return nil
		},
	}
}
