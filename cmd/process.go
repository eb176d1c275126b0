// =============================================================================
// Suenlace Generator - Process Command
// =============================================================================
//
// The process command runs every batch of a job manifest, several at a time.
// It is the unattended counterpart of 'generate' for month-end runs over many
// companies.
//
// COMMAND USAGE:
//   suenlace process jobs.yaml [--parallel 4] [--dry-run]
//
// MANIFEST:
//   jobs:
//     - kind: bank
//       company: "42"
//       year: 2025
//       template: Caixa
//       in: extractos/caixa_marzo.xlsx
//     - kind: issued
//       company: "43"
//       year: 2025
//       in: ventas_43.csv
//       out: salida/ventas_43.dat
//
// Relative paths are taken from the manifest's directory. Jobs writing the
// same posting file are refused. A failing job does not stop the others.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/config"
	"github.com/ginjaninja78/suenlace/internal/converter"
	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
)

var processFlags struct {
	parallel int
	dryRun   bool
}

var processCmd = &cobra.Command{
	Use:   "process <jobs.yaml>",
	Short: "Run every batch of a job manifest concurrently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().IntVar(&processFlags.parallel, "parallel", 4, "Batches run at the same time")
	processCmd.Flags().BoolVar(&processFlags.dryRun, "dry-run", false, "Build every batch without writing files")
}

func runProcess(cmd *cobra.Command, manifest string) error {
	start := time.Now()

	jobs, err := config.LoadJobFile(manifest)
	if err != nil {
		return err
	}
	reqs := make([]converter.Request, len(jobs))
	for i, j := range jobs {
		kind, ok := models.ParseTemplateKind(j.Kind)
		if !ok {
			return fmt.Errorf("job %d: unknown kind %q", i+1, j.Kind)
		}
		reqs[i] = converter.Request{
			Kind:         kind,
			CompanyCode:  j.Company,
			Year:         j.Year,
			TemplateName: j.Template,
			InputPath:    j.Input,
			Sheet:        j.Sheet,
			Delimiter:    j.Delimiter,
			OutputPath:   j.Output,
			DryRun:       j.DryRun || processFlags.dryRun,
		}
	}

	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	conv := converter.New(st, converter.OptionsFromConfig(cfg))
	results := conv.RunAll(ctx, reqs, processFlags.parallel)

	out := cmd.OutOrStdout()
	var failed int
	var firstErr error
	for _, r := range results {
		req := r.Request
		label := fmt.Sprintf("%d. %s %s/%d", r.Index+1, req.Kind, req.CompanyCode, req.Year)
		if r.Result != nil {
			printAdvisories(r.Result.Advisories)
		}
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(out, "  FAIL %s: %v\n", label, r.Err)
			continue
		}
		target := r.Result.OutputFile
		if req.DryRun {
			target = "(dry run)"
		}
		fmt.Fprintf(out, "  OK   %s -> %s (%d records, %d advisories)\n",
			label, target, r.Result.Stats.Records, len(r.Result.Advisories))
	}

	elapsed := time.Since(start)
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Jobs:            %d\n", len(results))
	fmt.Fprintf(out, "Successful:      %d\n", len(results)-failed)
	fmt.Fprintf(out, "Failed:          %d\n", failed)
	fmt.Fprintf(out, "Time elapsed:    %s\n", elapsed.Round(time.Millisecond))

	log := logger.WithComponent("cmd")
	log.Info().
		Str("manifest", manifest).
		Int("jobs", len(results)).
		Int("failed", failed).
		Dur("elapsed", elapsed).
		Msg("job manifest processed")

	if firstErr != nil {
		return fmt.Errorf("%d of %d jobs failed, first: %w", failed, len(results), firstErr)
	}
	return nil
}
