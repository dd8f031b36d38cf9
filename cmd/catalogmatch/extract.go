package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pearcestephens/catalogmatch/internal/usecase"
)

type extraction struct {
	Brand    string `json:"brand,omitempty"`
	Nicotine string `json:"nicotine,omitempty"`
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "extract TEXT...",
		Short: "Extract brand and nicotine strength from free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			brands := usecase.NewBrandExtractor(cfg.Matching.Brands)

			var out extraction
			out.Brand, _ = brands.Extract(text)
			out.Nicotine, _ = usecase.ExtractNicotine(text)

			if jsonOutput {
				return writeJSON(cmd, out)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				[][]string{{"brand", orDash(out.Brand)}, {"nicotine", orDash(out.Nicotine)}},
				nil,
			))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
