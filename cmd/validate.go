// =============================================================================
// ANDPAD Invoice Converter - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   andpad-converter validate
//
// Checks the main configuration and every vendor mapping without converting
// anything:
//   - column map targets and transforms are known
//   - procedural vendors have a registered reader or a column map
//   - vendor discount rules are well formed
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/extractor"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and vendor mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate() error {
	env, err := setup()
	if err != nil {
		return err
	}
	fmt.Printf("✓ Main configuration (%s)\n", cfgFile)

	registry := extractor.DefaultRegistry()
	problems := 0
	for _, m := range env.mappings {
		var err error
		switch {
		case m.Procedural && !registry.Has(m.Vendor) && len(m.ColumnMap) == 0:
			err = fmt.Errorf("procedural vendor without a registered reader or column_map")
		case len(m.Patterns()) == 0 && len(m.ColumnMap) == 0:
			err = fmt.Errorf("no file_patterns and no column_map, the vendor can never be detected")
		default:
			err = extractor.ValidateMapping(m)
		}
		if err != nil {
			problems++
			fmt.Printf("  ✗ %s: %v\n", m.Vendor, err)
			continue
		}
		kind := "mapping"
		if m.Procedural {
			kind = "procedural"
		}
		fmt.Printf("  ✓ %s (%s)\n", m.Vendor, kind)
	}

	if _, err := rules.NewEngine(env.config.VendorRules, env.logger); err != nil {
		problems++
		fmt.Printf("  ✗ vendor_rules: %v\n", err)
	}

	if problems > 0 {
		return fmt.Errorf("%d configuration problem(s) found", problems)
	}
	fmt.Printf("All %d vendor mapping(s) are valid.\n", len(env.mappings))
	return nil
}
