package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
	"github.com/artpar/shopdesk/internal/core/rules"
)

type validateOptions struct {
	kind     string
	mode     string
	role     string
	existing string
	warnOnly bool
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	c := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a record file",
		Long: `Validate replays a YAML or JSON record through a form session, field by
field, and submits it. Field errors are printed and the command fails;
an accepted record is printed in its stored form.

In edit mode --existing names the stored record the edit starts from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], opts)
		},
	}

	c.Flags().StringVar(&opts.kind, "kind", "", "Record kind: product, user or customer")
	c.Flags().StringVar(&opts.mode, "mode", string(domain.ModeAdd), "Form mode: add or edit")
	c.Flags().StringVar(&opts.role, "role", string(domain.RoleAdmin), "Role of the acting user")
	c.Flags().StringVar(&opts.existing, "existing", "", "Stored record file (edit mode)")
	c.Flags().BoolVar(&opts.warnOnly, "promotion-warn", false, "Report promotions at or above the price as warnings")
	c.MarkFlagRequired("kind")
	return c
}

func runValidate(cmd *cobra.Command, path string, opts validateOptions) error {
	kind, err := domain.ParseKind(opts.kind)
	if err != nil {
		return fmt.Errorf("--kind: %w", err)
	}
	mode, err := domain.ParseMode(opts.mode)
	if err != nil {
		return fmt.Errorf("--mode: %w", err)
	}
	role, err := domain.ParseRole(opts.role)
	if err != nil {
		return fmt.Errorf("--role: %w", err)
	}

	values, err := readRecord(path)
	if err != nil {
		return err
	}
	var existing domain.Record
	if opts.existing != "" {
		if existing, err = readRecord(opts.existing); err != nil {
			return err
		}
	}

	actor := auth.Actor{UserID: "cli", Name: "shopdesk-check", Role: role, Authenticated: true}
	policy := rules.DefaultPolicy()
	if opts.warnOnly {
		policy.PromotionBelowBaseIsBlocking = false
	}

	s, err := form.Open(kind, mode, existing, actor, form.WithPolicy(policy))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if field == domain.FieldID {
			continue
		}
		if err := s.Change(field, values[field]); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if !s.Editable(field) {
			fmt.Fprintf(out, "ignored: %s (not editable by %s)\n", field, role)
		}
	}

	accepted, errs := s.Submit()
	for _, field := range s.Warnings().Fields() {
		fmt.Fprintf(out, "warning: %s: %s\n", field, s.Warnings()[field])
	}
	if len(errs) > 0 {
		for _, field := range errs.Fields() {
			fmt.Fprintf(out, "error: %s: %s\n", field, errs[field])
		}
		return errCheckFailed
	}

	data, err := yaml.Marshal(accepted)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

// readRecord decodes a flat YAML or JSON object of field values.
func readRecord(path string) (domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var r domain.Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}
	if r == nil {
		r = domain.Record{}
	}
	return r, nil
}
