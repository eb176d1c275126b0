// =============================================================================
// Suenlace Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// shares the configuration, logger and store opened here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (suenlace)
//   ├── generateCmd   (suenlace generate)
//   ├── processCmd    (suenlace process jobs.yaml)
//   ├── companyCmd    (suenlace company list|delete|hash-passphrase)
//   ├── templateCmd   (suenlace template import|list|sheets)
//   ├── invoiceCmd    (suenlace invoice import|list)
//   ├── thirdPartyCmd (suenlace thirdparty list|show)
//   ├── storeCmd      (suenlace store seed)
//   └── versionCmd    (suenlace version)
//
// EXIT CODES:
//   0  success, advisories included
//   1  any other failure
//   2  template incomplete or mapping missing
//   3  no rows produced
//   4  I/O error writing the posting file
//   5  admin passphrase rejected
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/suenlace/internal/config"
	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/store"
	"github.com/ginjaninja78/suenlace/internal/types"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose lowers the log level to debug.
var verbose bool

// cfg is the configuration loaded before any subcommand runs.
var cfg *config.Config

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "suenlace",
	Short: "Suenlace posting file generator",
	Long: `suenlace turns bank statements, invoice books and hand-entered invoices into
the fixed-width posting file (Exxxxx.dat) imported by the bookkeeping package.

Every record is 512 bytes of latin-1 ending in CR LF. Row problems are reported
as advisories on stderr and never stop a batch; template and mapping problems do.

Example Usage:
  suenlace generate --kind bank --company 42 --year 2025 --template Caixa --in extracto.xlsx
  suenlace generate --kind issued --company 42 --year 2025 --from-documents --pending-only
  suenlace template import plantillas/`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		lc := cfg.Log.LoggerConfig()
		if verbose {
			lc.Level = "debug"
		}
		return logger.Setup(lc)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI and exits with the code matching the error kind.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, types.ErrTemplateIncomplete), errors.Is(err, types.ErrMappingMissing):
		return 2
	case errors.Is(err, types.ErrNoRows):
		return 3
	case errors.Is(err, types.ErrIO):
		return 4
	case errors.Is(err, types.ErrAdminDenied):
		return 5
	default:
		return 1
	}
}

// openStore opens the sqlite store and applies the seed file when the store
// is still empty.
func openStore(ctx context.Context) (*store.Gorm, error) {
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.StorePath, err)
	}
	if _, err := store.SeedIfEmpty(ctx, st, cfg.SeedFile); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (optional)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
