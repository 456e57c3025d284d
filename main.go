// =============================================================================
// ANDPAD Invoice Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the ANDPAD Invoice Converter CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   andpad-converter convert <files...> - Convert vendor files into one import file
//   andpad-converter process            - Convert every file in the input directory
//   andpad-converter detect <files...>  - Show the detected vendor of each file
//   andpad-converter purchase <file>    - Build the 仕入案件 import sheet
//   andpad-converter validate           - Validate configuration and vendor mappings
//   andpad-converter version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Conversion pipeline (not for external import)
//   - pkg/       : Shared file utilities
//   - configs/   : Vendor mappings embedded in the binary
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/andpad-invoice-converter/cmd"
)

func main() {
	cmd.Execute()
}
