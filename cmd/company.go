package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/auth"
	"github.com/ginjaninja78/suenlace/internal/logger"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "List and remove company years",
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the company years in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		companies, err := st.ListCompanies(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(companies) == 0 {
			fmt.Fprintln(out, "No companies in the store.")
			return nil
		}
		fmt.Fprintf(out, "%-6s %-5s %-4s %-6s %-12s %s\n", "CODE", "YEAR", "NDIG", "SERIE", "TAX ID", "NAME")
		for _, c := range companies {
			fmt.Fprintf(out, "%-6s %-5d %-4d %-6s %-12s %s\n", c.Code, c.Year, c.Ndig, c.Serie, c.TaxID, c.Name)
		}
		return nil
	},
}

var deleteFlags struct {
	code       string
	year       int
	passphrase string
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a company year with its templates, links and invoices",
	Long: `Delete removes a company year and everything scoped to it. The admin
passphrase is checked against admin_passphrase_hash; without a configured hash
the deletion is always refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.CheckPassphrase(cfg.AdminPassphraseHash, deleteFlags.passphrase); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteCompany(ctx, deleteFlags.code, deleteFlags.year); err != nil {
			return err
		}
		log := logger.WithComponent("cmd")
		log.Info().
			Str("company", deleteFlags.code).
			Int("year", deleteFlags.year).
			Msg("company deleted")
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted company %s/%d.\n", deleteFlags.code, deleteFlags.year)
		return nil
	},
}

var companyHashCmd = &cobra.Command{
	Use:   "hash-passphrase <passphrase>",
	Short: "Print the bcrypt hash to configure as admin_passphrase_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassphrase(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(companyCmd)
	companyCmd.AddCommand(companyListCmd, companyDeleteCmd, companyHashCmd)

	f := companyDeleteCmd.Flags()
	f.StringVar(&deleteFlags.code, "company", "", "Company code")
	f.IntVar(&deleteFlags.year, "year", 0, "Fiscal year")
	f.StringVar(&deleteFlags.passphrase, "passphrase", "", "Admin passphrase")
	companyDeleteCmd.MarkFlagRequired("company")
	companyDeleteCmd.MarkFlagRequired("year")
}
