package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"profile-extract-go/pkg/cli/results"
	"profile-extract-go/pkg/validation"
)

func (a *App) newValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate URL...",
		Short: "Check URLs without processing them",
		Long:  "Checks that each URL is well formed and uses http or https, and reports its source platform and any warnings. Exits non-zero when a URL is invalid.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checked := make([]validation.Result, len(args))
			invalid := 0
			for i, raw := range args {
				checked[i] = validation.Validate(raw)
				if !checked[i].Valid {
					invalid++
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(checked); err != nil {
					return fmt.Errorf("failed to encode results: %w", err)
				}
			} else {
				fmt.Fprint(out, results.FormatValidation(args, checked))
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d URL(s) invalid", invalid, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}
