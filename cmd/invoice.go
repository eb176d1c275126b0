package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/discount"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/store"
	"github.com/ginjaninja78/suenlace/internal/validation"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Manage hand-entered invoice documents",
}

var invoiceImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Validate and save invoice documents from JSON",
	Long: `Import reads one invoice document, or an array of them, validates each one
against its company year and saves it. A document without a number gets the
next number of the company's serie (or of the rectifying serie when
"rectifying" is set). Saving a document that was already generated returns it
to the saved state and keeps its generation date.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := readDocuments(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		for i := range docs {
			doc := &docs[i]
			res, err := store.SaveInvoiceDocument(ctx, st, doc)
			if res != nil && len(res.Errors) > 0 {
				fmt.Fprint(os.Stderr, validation.FormatErrors(res.Errors))
			}
			if err != nil {
				return fmt.Errorf("document %d: %w", i+1, err)
			}
			fmt.Fprintf(out, "Saved %s invoice %s%s (%s)\n", doc.Kind, doc.Serie, doc.Number, doc.ID)
		}
		return nil
	},
}

// readDocuments accepts a single JSON object or an array.
func readDocuments(path string) ([]models.InvoiceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []models.InvoiceDocument
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return docs, nil
	}
	var doc models.InvoiceDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return []models.InvoiceDocument{doc}, nil
}

var invoiceListFlags struct {
	company string
	year    int
	kind    string
	pending bool
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the invoice documents of a company year",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := store.DocumentQuery{
			CompanyCode: invoiceListFlags.company,
			Year:        invoiceListFlags.year,
			PendingOnly: invoiceListFlags.pending,
		}
		if invoiceListFlags.kind != "" {
			k, ok := models.ParseTemplateKind(invoiceListFlags.kind)
			if !ok || !k.IsInvoice() {
				return fmt.Errorf("unknown invoice kind %q", invoiceListFlags.kind)
			}
			q.Kind = k
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.ListInvoiceDocuments(ctx, q)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-10s %-12s %-10s %-12s %14s  %s\n", "KIND", "NUMBER", "DATE", "TAX ID", "TOTAL", "STATUS")
		for i := range docs {
			doc := &docs[i]
			_, _, totals := discount.Prepare(doc)
			status := string(doc.Status)
			if doc.GeneratedAt != nil {
				status += " (generated " + doc.GeneratedAt.Format("2006-01-02") + ")"
			}
			fmt.Fprintf(out, "%-10s %-12s %-10s %-12s %14s  %s\n",
				doc.Kind, doc.Serie+doc.Number, doc.AccountingDate, doc.TaxID, totals.Total.StringFixed(2), status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceImportCmd, invoiceListCmd)

	f := invoiceListCmd.Flags()
	f.StringVar(&invoiceListFlags.company, "company", "", "Company code")
	f.IntVar(&invoiceListFlags.year, "year", 0, "Fiscal year")
	f.StringVar(&invoiceListFlags.kind, "kind", "", "Only issued or received")
	f.BoolVar(&invoiceListFlags.pending, "pending", false, "Only documents not yet generated")
	invoiceListCmd.MarkFlagRequired("company")
	invoiceListCmd.MarkFlagRequired("year")
}
