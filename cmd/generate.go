// =============================================================================
// Suenlace Generator - Generate Command
// =============================================================================
//
// COMMAND USAGE:
//   suenlace generate --kind {bank|issued|received} --company C --year Y
//                     [--template T] (--in file.xlsx|file.csv | --from-documents)
//                     [--sheet S] [--out E00001.dat] [--dry-run]
//
// Advisories go to stderr: the first ten verbatim, then a count of the rest.
// A batch with advisories still exits 0.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/converter"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var genFlags struct {
	kind          string
	company       string
	year          int
	template      string
	in            string
	sheet         string
	delimiter     string
	out           string
	fromDocuments bool
	pendingOnly   bool
	dryRun        bool
}

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a posting file from a spreadsheet or stored invoices",
	Long: `The generate command reads the input through the template's column mapping,
builds the accounting records and writes them to the posting file in one
atomic step.

Bank statements become two-line entries against the template's bank account.
Issued and received invoice books become one header and one detail per VAT
line. With --from-documents the invoices entered through 'invoice import' are
emitted instead, and marked as generated once the file is written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&genFlags.kind, "kind", "", "Template kind: bank, issued or received")
	f.StringVar(&genFlags.company, "company", "", "Company code")
	f.IntVar(&genFlags.year, "year", time.Now().Year(), "Fiscal year")
	f.StringVar(&genFlags.template, "template", "", "Template name (optional when the company has only one of the kind)")
	f.StringVar(&genFlags.in, "in", "", "Input .xlsx or .csv file")
	f.StringVar(&genFlags.sheet, "sheet", "", "Worksheet name (default: template sheet, then the first sheet)")
	f.StringVar(&genFlags.delimiter, "delimiter", "", "CSV delimiter: ';', ',', '|' or 'tab' (default: detected)")
	f.StringVar(&genFlags.out, "out", "", "Output file or directory (default: output_dir/Exxxxx.dat)")
	f.BoolVar(&genFlags.fromDocuments, "from-documents", false, "Emit stored invoice documents instead of reading --in")
	f.BoolVar(&genFlags.pendingOnly, "pending-only", false, "With --from-documents, skip documents already generated")
	f.BoolVar(&genFlags.dryRun, "dry-run", false, "Build the batch and report advisories without writing files")

	generateCmd.MarkFlagRequired("kind")
	generateCmd.MarkFlagRequired("company")
	generateCmd.MarkFlagsMutuallyExclusive("in", "from-documents")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command) error {
	kind, ok := models.ParseTemplateKind(genFlags.kind)
	if !ok {
		return fmt.Errorf("unknown kind %q (want bank, issued or received)", genFlags.kind)
	}

	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	conv := converter.New(st, converter.OptionsFromConfig(cfg))
	res, err := conv.Run(ctx, converter.Request{
		Kind:          kind,
		CompanyCode:   genFlags.company,
		Year:          genFlags.year,
		TemplateName:  genFlags.template,
		InputPath:     genFlags.in,
		Sheet:         genFlags.sheet,
		Delimiter:     genFlags.delimiter,
		OutputPath:    genFlags.out,
		FromDocuments: genFlags.fromDocuments,
		PendingOnly:   genFlags.pendingOnly,
		DryRun:        genFlags.dryRun,
	})
	if res != nil {
		printAdvisories(res.Advisories)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== %s %s ===\n", res.Template.Kind, res.Company)
	fmt.Fprintf(out, "Template:        %s\n", res.Template.Name)
	fmt.Fprintf(out, "Rows read:       %d\n", res.Stats.RowsRead)
	if res.Stats.RowsDropped > 0 {
		fmt.Fprintf(out, "Blank rows:      %d\n", res.Stats.RowsDropped)
	}
	if kind == models.KindBank {
		fmt.Fprintf(out, "Entries:         %d\n", res.Stats.Entries)
	} else {
		fmt.Fprintf(out, "Invoices:        %d\n", res.Stats.Invoices)
	}
	fmt.Fprintf(out, "Records:         %d\n", res.Stats.Records)
	fmt.Fprintf(out, "Advisories:      %d\n", len(res.Advisories))
	if res.Stats.DocumentsMarked > 0 {
		fmt.Fprintf(out, "Marked:          %d document(s)\n", res.Stats.DocumentsMarked)
	}
	switch {
	case genFlags.dryRun:
		fmt.Fprintln(out, "Output:          (dry run, nothing written)")
	default:
		fmt.Fprintf(out, "Output:          %s\n", res.OutputFile)
	}
	if res.ArchiveFile != "" {
		fmt.Fprintf(out, "Archived:        %s\n", res.ArchiveFile)
	}
	if res.AdvisoryLog != "" {
		fmt.Fprintf(out, "Advisory log:    %s\n", res.AdvisoryLog)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", res.Stats.ProcessingTime.Round(time.Millisecond))
	return nil
}

// printAdvisories writes the advisory summary to stderr.
func printAdvisories(adv types.Advisories) {
	if len(adv) == 0 {
		return
	}
	fmt.Fprint(os.Stderr, adv.Summary(types.SummaryLimit))
}
