package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/output"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/purchase"
	"github.com/ginjaninja78/andpad-invoice-converter/pkg/utils"
)

var (
	purchaseFormat string
	purchaseOutput string
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase <file>",
	Short: "Convert a land purchase list into the 仕入案件 import sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		format, err := output.ParseFormat(purchaseFormat)
		if err != nil {
			return err
		}

		sheet, err := readSheet(args[0], env.config.InputEncoding)
		if err != nil {
			return err
		}
		res, err := purchase.New(env.logger).Parse(sheet)
		if err != nil {
			return describe(err)
		}
		data, err := output.New(nil, env.logger).Render(purchase.Table(res.Projects), format)
		if err != nil {
			return err
		}

		var path string
		if purchaseOutput != "" {
			path, err = writeFile(purchaseOutput, format, data)
		} else {
			name := utils.GenerateOutputFileName("仕入案件_{timestamp}.{ext}", "", format.Extension(), time.Now())
			path, err = utils.NewFileManager("", env.config.OutputDir, "").WriteOutput(name, data)
		}
		if err != nil {
			return err
		}

		for _, s := range res.Skipped {
			fmt.Printf("  ! skipped: %s\n", s)
		}
		fmt.Printf("✓ %d project(s) -> %s\n", len(res.Projects), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purchaseCmd)
	purchaseCmd.Flags().StringVarP(&purchaseFormat, "format", "f", "xlsx", "Output format: xlsx or csv")
	purchaseCmd.Flags().StringVarP(&purchaseOutput, "output", "o", "", "Output file path")
}
