package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pearcestephens/catalogmatch/internal/domain"
	"github.com/pearcestephens/catalogmatch/internal/infrastructure/scrape"
)

type matchOptions struct {
	name     string
	brand    string
	sku      string
	image    string
	flavor   string
	nicotine string
	html     string
	json     bool
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one observed product against the catalog",
		Long: "Match one observed product against the catalog.\n\n" +
			"The product comes from flags, from a saved product page (--html), or both;\n" +
			"flags override fields parsed from the page.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			observed, err := opts.observed()
			if err != nil {
				return err
			}

			matcher, closeCatalog, err := buildMatcher(cmd.Context(), cfg, logger)
			defer closeCatalog()
			if err != nil {
				return err
			}

			result := matcher.MatchProduct(observed)
			if opts.json {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderMatchResult(result))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "", "Observed product name")
	flags.StringVar(&opts.brand, "brand", "", "Observed brand")
	flags.StringVar(&opts.sku, "sku", "", "Observed SKU or model code")
	flags.StringVar(&opts.image, "image", "", "Observed image URL")
	flags.StringVar(&opts.flavor, "flavor", "", "Observed flavor attribute")
	flags.StringVar(&opts.nicotine, "nicotine", "", "Observed nicotine strength attribute")
	flags.StringVar(&opts.html, "html", "", "Read the observed product from a saved product page")
	flags.BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

func (o matchOptions) observed() (domain.ObservedProduct, error) {
	var observed domain.ObservedProduct
	if o.html != "" {
		f, err := os.Open(o.html)
		if err != nil {
			return observed, fmt.Errorf("open product page: %w", err)
		}
		defer f.Close()

		parsed, err := scrape.ParseProductPage(f)
		if err != nil && (o.name == "" || !errors.Is(err, domain.ErrInvalidRequest)) {
			return observed, err
		}
		observed = parsed
	}

	override(&observed.Name, o.name)
	override(&observed.Brand, o.brand)
	override(&observed.SKUOrModel, o.sku)
	override(&observed.ImageURL, o.image)
	override(&observed.Attributes.Flavor, o.flavor)
	override(&observed.Attributes.Nicotine, o.nicotine)

	if strings.TrimSpace(observed.Name) == "" {
		return observed, fmt.Errorf("%w: --name or --html is required", domain.ErrInvalidRequest)
	}
	return observed, nil
}

func override(field *string, value string) {
	if value != "" {
		*field = value
	}
}

func renderMatchResult(result domain.MatchResult) string {
	var b strings.Builder

	if !result.Matched {
		fmt.Fprintf(&b, "No match (%s)\n", result.Reason)
		return b.String()
	}

	fmt.Fprintf(&b, "Match: %s  confidence %s  level %s\n",
		result.Best.CatalogEntryID, formatConfidence(result.Confidence), result.MatchLevel)

	rows := [][]string{candidateRow("best", *result.Best)}
	for _, alt := range result.Alternatives {
		rows = append(rows, candidateRow("alt", alt))
	}
	b.WriteString(renderTable(
		[]string{"Rank", "ID", "SKU", "Name", "Confidence"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	b.WriteString("\n")

	if len(result.Best.Signals) > 0 {
		signalRows := make([][]string, 0, len(result.Best.Signals))
		for _, s := range result.Best.Signals {
			score := "n/a"
			if s.Applicable {
				score = formatConfidence(s.Score)
			}
			signalRows = append(signalRows, []string{string(s.Name), score, strconv.FormatFloat(s.Weight, 'f', 2, 64)})
		}
		b.WriteString(renderTable(
			[]string{"Signal", "Score", "Weight"},
			signalRows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		))
		b.WriteString("\n")
	}

	return b.String()
}

func candidateRow(rank string, c domain.MatchCandidate) []string {
	return []string{rank, c.CatalogEntryID, c.SKU, c.Name, formatConfidence(c.Confidence)}
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
