// flow-check validates the respond-to-claim journey and prints the path a
// defendant takes through it for each combination of case data.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/journeys/respondtoclaim"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	country     string
	nameKnown   string
	rejectName  bool
	caseRef     string
	conditionTO time.Duration
}

func newRootCommand() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "flow-check",
		Short: "Validate the journey flow and print its paths",
		Long: `Validate the respond-to-claim journey against its step registry, then walk
it forward for every legislative country and defendant-name combination.

Example:
  flow-check
  flow-check --country Wales --name-known no`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.country, "country", "", "only walk this legislative country (England or Wales)")
	cmd.Flags().StringVar(&opts.nameKnown, "name-known", "", "only walk this defendant-name case (yes or no)")
	cmd.Flags().BoolVar(&opts.rejectName, "reject-name", false, "answer no when asked to confirm the defendant's name")
	cmd.Flags().StringVar(&opts.caseRef, "case", "1234567890123456", "case reference used to build step URLs")
	cmd.Flags().DurationVar(&opts.conditionTO, "condition-timeout", journey.DefaultConditionTimeout, "per-condition timeout")
	return cmd
}

type scenario struct {
	country   string
	nameKnown bool
}

func scenarios(opts options) ([]scenario, error) {
	countries := []string{journey.CountryEngland, journey.CountryWales}
	if opts.country != "" {
		switch {
		case strings.EqualFold(opts.country, journey.CountryEngland):
			countries = []string{journey.CountryEngland}
		case strings.EqualFold(opts.country, journey.CountryWales):
			countries = []string{journey.CountryWales}
		default:
			return nil, fmt.Errorf("unknown country %q", opts.country)
		}
	}

	known := []bool{true, false}
	switch strings.ToLower(opts.nameKnown) {
	case "":
	case "yes":
		known = []bool{true}
	case "no":
		known = []bool{false}
	default:
		return nil, fmt.Errorf("--name-known must be yes or no, got %q", opts.nameKnown)
	}

	var out []scenario
	for _, c := range countries {
		for _, k := range known {
			out = append(out, scenario{country: c, nameKnown: k})
		}
	}
	return out, nil
}

func check(ctx context.Context, w io.Writer, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := scenarios(opts)
	if err != nil {
		return err
	}

	registry := journey.NewRegistry()
	def, err := respondtoclaim.Register(registry, time.Now)
	if err != nil {
		return fmt.Errorf("journey is invalid: %w", err)
	}
	fmt.Fprintf(w, "journey %s: %d steps, flow valid\n", def.Name, registry.Len())

	first, _ := registry.FirstStep()
	resolver := journey.NewResolver(registry, journey.WithConditionTimeout(opts.conditionTO))
	record := recorder(opts.rejectName)

	for _, s := range runs {
		rc := journey.RoutingContext{
			CaseReference: opts.caseRef,
			Case: journey.CaseSnapshot{
				LegislativeCountry: s.country,
				DefendantNameKnown: s.nameKnown,
			},
		}

		path, err := resolver.Walk(ctx, rc, def.Flow, first.Name, record)
		if err != nil {
			return fmt.Errorf("%s: %w", label(s), err)
		}

		fmt.Fprintf(w, "\n%s (%d steps)\n", label(s), len(path))
		for i, name := range path {
			step, _ := registry.GetStep(name)
			fmt.Fprintf(w, "  %2d. %-30s %s\n", i+1, name, step.Path(rc.Params()))
		}
	}
	return nil
}

// recorder answers each visited step the way a defendant would
func recorder(rejectName bool) journey.Recorder {
	return func(step journey.StepName, _ journey.RoutingContext) journey.FormData {
		switch step {
		case respondtoclaim.StepDefendantNameConfirmation:
			if rejectName {
				return journey.FormData{"confirmed": "no"}
			}
			return journey.FormData{"confirmed": "yes"}
		case respondtoclaim.StepConfirmation:
			return nil
		default:
			return journey.FormData{"continue": "true"}
		}
	}
}

func label(s scenario) string {
	name := "name known"
	if !s.nameKnown {
		name = "name not known"
	}
	return fmt.Sprintf("%s, %s", s.country, name)
}
