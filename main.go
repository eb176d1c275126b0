// =============================================================================
// Suenlace Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   suenlace generate     - Build a posting file from a spreadsheet or stored invoices
//   suenlace template     - Import and list bank and invoice templates
//   suenlace invoice      - Import and list hand-entered invoices
//   suenlace company      - List or delete company years
//   suenlace thirdparty   - Inspect third parties and their subaccounts
//   suenlace store seed   - Load a seed file into the store
//
// LAYOUT:
//   cmd/       : Cobra command definitions
//   internal/  : generation pipeline, codecs, store and validation
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/suenlace/cmd"
)

func main() {
	cmd.Execute()
}
