package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rosterload/config"
	"rosterload/importer"
	"rosterload/student"
)

var (
	previewRows       int
	previewMode       string
	previewPrimaryKey string
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show headers, first rows and the proposed column mapping",
	Long: `Parse a roster spreadsheet locally and print its headers, the first rows, the
auto-mapped column to field assignment and whether that mapping could be submitted.

Nothing is sent to the admin API.`,
	Example: `
  # Preview a roster
  rosterload preview students.xlsx

  # Show 20 rows and check the mapping for an upsert on email
  rosterload preview students.xlsx --rows 20 --mode upsert --primary-key email
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := importer.Load(args[0])
		if err != nil {
			return err
		}

		defaults := config.ImportConfig{
			Mode:       viper.GetString(config.KeyImportMode),
			PrimaryKey: viper.GetString(config.KeyImportPrimaryKey),
		}
		operation, err := resolveOperation(defaults, previewMode, previewPrimaryKey)
		if err != nil {
			return err
		}

		mapping := importer.AutoMap(table.Headers, student.Catalog())
		fmt.Printf("File: %s (%d data rows, %d columns)\n", args[0], len(table.Rows), len(table.Headers))
		fmt.Println("Headers:", strings.Join(table.Headers, " | "))
		for i, row := range table.Head(previewRows) {
			fmt.Printf("  %d: %s\n", i+1, formatRow(row, len(table.Headers)))
		}
		if len(table.Rows) > previewRows && previewRows >= 0 {
			fmt.Printf("  ... %d more rows\n", len(table.Rows)-previewRows)
		}

		fmt.Println("Proposed mapping:")
		printMapping(os.Stdout, table.Headers, mapping)
		printVerdict(os.Stdout, operation, importer.Validate(mapping, operation))
		return nil
	},
}

func formatRow(row []any, width int) string {
	cells := make([]string, width)
	for i := range cells {
		if i < len(row) {
			cells[i] = formatCell(row[i])
		}
	}
	return strings.Join(cells, " | ")
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().IntVar(&previewRows, "rows", 5, "Number of data rows to print")
	previewCmd.Flags().StringVar(&previewMode, "mode", "", "Mode to validate against: insert|upsert (default from import.mode)")
	previewCmd.Flags().StringVar(&previewPrimaryKey, "primary-key", "", "Upsert key to validate against (default from import.primary_key)")
}
