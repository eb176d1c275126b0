package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var thirdPartyCmd = &cobra.Command{
	Use:   "thirdparty",
	Short: "Inspect third parties and their subaccount links",
}

var thirdPartyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every third party in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tps, err := st.ListThirdParties(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-12s %-36s %s\n", "TAX ID", "ID", "NAME")
		for _, tp := range tps {
			fmt.Fprintf(out, "%-12s %-36s %s\n", tp.TaxID, tp.ID, tp.Name)
		}
		return nil
	},
}

var thirdPartyShowFlags struct {
	company string
	year    int
}

var thirdPartyShowCmd = &cobra.Command{
	Use:   "show <tax id|id>",
	Short: "Show the subaccounts linked to a third party for a company year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		link, err := st.GetThirdPartyCompany(ctx, thirdPartyShowFlags.company, args[0], thirdPartyShowFlags.year)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if tp := link.ThirdParty; tp != nil {
			fmt.Fprintf(out, "%s  %s\n", tp.TaxID, tp.Name)
			if tp.Address != "" {
				fmt.Fprintf(out, "  %s, %s %s (%s)\n", tp.Address, tp.PostalCode, tp.City, tp.Province)
			}
		}
		fmt.Fprintf(out, "  client:   %s\n", link.SubaccountClient)
		fmt.Fprintf(out, "  supplier: %s\n", link.SubaccountSupplier)
		fmt.Fprintf(out, "  income:   %s\n", link.SubaccountIncome)
		fmt.Fprintf(out, "  expense:  %s\n", link.SubaccountExpense)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(thirdPartyCmd)
	thirdPartyCmd.AddCommand(thirdPartyListCmd, thirdPartyShowCmd)

	f := thirdPartyShowCmd.Flags()
	f.StringVar(&thirdPartyShowFlags.company, "company", "", "Company code")
	f.IntVar(&thirdPartyShowFlags.year, "year", 0, "Fiscal year")
	thirdPartyShowCmd.MarkFlagRequired("company")
	thirdPartyShowCmd.MarkFlagRequired("year")
}
