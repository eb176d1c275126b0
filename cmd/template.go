package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/config"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/validation"
	"github.com/ginjaninja78/suenlace/internal/xlsxparser"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Import and inspect bank and invoice templates",
}

var templateImportCmd = &cobra.Command{
	Use:   "import <file.yaml|dir>...",
	Short: "Import templates from YAML files or directories",
	Long: `Import reads templates from YAML files (a single template, or a list under
'templates:') and stores them. A directory imports every *.yaml and *.yml file
in it. A template with the same company, year, kind and name is replaced.

Templates with unmapped required columns or missing accounts are still stored;
the problem is reported now and again, as a fatal error, when generating.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var tpls []models.Template
		for _, arg := range args {
			loaded, err := loadTemplates(arg)
			if err != nil {
				return err
			}
			tpls = append(tpls, loaded...)
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		for i := range tpls {
			t := &tpls[i]
			if err := st.UpsertTemplate(ctx, t); err != nil {
				return fmt.Errorf("import template %q: %w", t.Name, err)
			}
			fmt.Fprintf(out, "Imported %s template %q for %s/%d\n", t.Kind, t.Name, t.CompanyCode, t.Year)
			if err := validation.CheckTemplate(t.Kind, t); err != nil {
				fmt.Fprintf(os.Stderr, "  warning: %v\n", err)
			}
			if err := validation.CheckMapping(t.Kind, t.Mapping); err != nil {
				fmt.Fprintf(os.Stderr, "  warning: %v\n", err)
			}
		}
		return nil
	},
}

func loadTemplates(path string) ([]models.Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return config.LoadTemplateDir(path)
	}
	return config.LoadTemplateFile(path)
}

var templateListFlags struct {
	company string
	year    int
	kind    string
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the templates of a company year",
	RunE: func(cmd *cobra.Command, args []string) error {
		var kinds []models.TemplateKind
		if templateListFlags.kind != "" {
			k, ok := models.ParseTemplateKind(templateListFlags.kind)
			if !ok {
				return fmt.Errorf("unknown kind %q", templateListFlags.kind)
			}
			kinds = []models.TemplateKind{k}
		} else {
			kinds = []models.TemplateKind{models.KindBank, models.KindIssued, models.KindReceived}
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		for _, k := range kinds {
			tpls, err := st.ListTemplates(ctx, k, templateListFlags.company, templateListFlags.year)
			if err != nil {
				return err
			}
			for _, t := range tpls {
				fmt.Fprintf(out, "%-8s %-20s default=%-10s columns=%d first_row=%d\n",
					t.Kind, t.Name, t.SubaccountDefault, len(t.Mapping.Columns), t.Mapping.FirstRow)
			}
		}
		return nil
	},
}

var templateSheetsCmd = &cobra.Command{
	Use:   "sheets <file.xlsx>",
	Short: "List the worksheets of a workbook, to fill a template's sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := xlsxparser.SheetNames(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateImportCmd, templateListCmd, templateSheetsCmd)

	f := templateListCmd.Flags()
	f.StringVar(&templateListFlags.company, "company", "", "Company code")
	f.IntVar(&templateListFlags.year, "year", 0, "Fiscal year")
	f.StringVar(&templateListFlags.kind, "kind", "", "Only this kind: bank, issued or received")
	templateListCmd.MarkFlagRequired("company")
	templateListCmd.MarkFlagRequired("year")
}
