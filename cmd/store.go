package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Maintain the local store",
}

var seedForce bool

var storeSeedCmd = &cobra.Command{
	Use:   "seed [seed.json]",
	Short: "Load a seed file into the store",
	Long: `Seed loads companies, templates, third parties, links and invoices from a
JSON seed file (default: seed_file from the configuration). The seed is only
applied to an empty store unless --force is given, in which case every record
in it is upserted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.SeedFile
		if len(args) == 1 {
			path = args[0]
		}

		ctx := cmd.Context()
		// Opened directly: openStore would apply the configured seed first.
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("failed to open store %s: %w", cfg.StorePath, err)
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		if !seedForce {
			applied, err := store.SeedIfEmpty(ctx, st, path)
			if err != nil {
				return err
			}
			if applied {
				fmt.Fprintf(out, "Seeded store from %s.\n", path)
			} else {
				fmt.Fprintln(out, "Store already holds data or the seed file is missing; nothing loaded.")
			}
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open seed %s: %w", path, err)
		}
		defer f.Close()
		stats, err := store.LoadSeed(ctx, st, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Loaded %d companies, %d templates, %d third parties, %d links and %d invoices.\n",
			stats.Companies, stats.Templates, stats.ThirdParties, stats.Links, stats.Invoices)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeSeedCmd)
	storeSeedCmd.Flags().BoolVar(&seedForce, "force", false, "Upsert the seed even when the store holds data")
}
