package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/detector"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file> [<file>...]",
	Short: "Show which vendor mapping each file is detected as",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		d := detector.New(env.mappings, env.logger)

		for _, path := range args {
			name := filepath.Base(path)
			sheet, err := readSheet(path, env.config.InputEncoding)
			if err != nil {
				fmt.Printf("  ✗ %s: %v\n", name, err)
				continue
			}
			res := d.Detect(sheet.Filename, sheet.Headers)
			switch {
			case !res.Detected:
				fmt.Printf("  ✗ %s: not detected (headers: %s)\n", name, strings.Join(res.HeadersSample, ", "))
			case res.Method == detector.MethodHeaders:
				fmt.Printf("  ✓ %s: %s (headers, score %.2f)\n", name, res.Mapping.Vendor, res.Score)
			default:
				fmt.Printf("  ✓ %s: %s (%s)\n", name, res.Mapping.Vendor, res.Method)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
