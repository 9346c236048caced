package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rosterload/internal/classify"
	"rosterload/output"
	"rosterload/storage"
)

var (
	resultsDBPath    string
	resultsLimit     int
	resultsFormat    string
	resultsExportDir string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List, show, export and delete recorded upload runs.",
	Long: `Every completed upload is stored in the local run history (storage.db).
Use these commands to review earlier runs or export their per-row results again.`,
	Example: `
  # List the 10 most recent runs
  rosterload results list --limit 10

  # Print the rows of one run
  rosterload results show 0b6c7c4e-7d1e-4b43-9a57-2f4c3bb2d1e5

  # Export a run as Excel into ./exports
  rosterload results export 0b6c7c4e-7d1e-4b43-9a57-2f4c3bb2d1e5 --format excel --dir ./exports
`,
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.SQLiteStore) error {
			runs, err := store.ListRuns(resultsLimit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}
			for _, run := range runs {
				fmt.Println(formatRunLine(run))
			}
			return nil
		})
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the per-row results of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.SQLiteStore) error {
			run, result, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			fmt.Println(formatRunLine(run))
			for _, row := range result.Results {
				line := fmt.Sprintf("  %4d  %-13s", row.Index, classify.Label(classify.Status(row.Status)))
				if row.Email != "" {
					line += "  " + row.Email
				}
				if row.Message != "" {
					line += "  " + row.Message
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export the results of one run as CSV, JSON or Excel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.SQLiteStore) error {
			run, result, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			path, err := output.Export(resultsExportDir, resultsFormat, run.CreatedAt, result)
			if err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Format: %s, File: %s\n", len(result.Results), resultsFormat, path)
			return nil
		})
	},
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete one run from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.SQLiteStore) error {
			deleted, err := store.DeleteRun(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", storage.ErrRunNotFound, args[0])
			}
			fmt.Printf("Run deleted: %s\n", args[0])
			return nil
		})
	},
}

func withStore(fn func(store *storage.SQLiteStore) error) error {
	store, err := storage.OpenSQLite(resolveDBPath(resultsDBPath))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func formatRunLine(run storage.Run) string {
	mode := run.Mode
	if run.PrimaryKey != "" {
		mode += "(" + run.PrimaryKey + ")"
	}
	return strings.Join([]string{
		run.ID,
		run.CreatedAt.Local().Format(time.DateTime),
		run.SourceFile,
		mode,
		fmt.Sprintf("received=%d created=%s updated=%s rows=%d",
			run.TotalReceived, countText(run.CreatedCount), countText(run.UpdatedCount), run.RowCount),
	}, "  ")
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsExportCmd, resultsDeleteCmd)

	resultsCmd.PersistentFlags().StringVar(&resultsDBPath, "db", "", "Path to the run history database (default from storage.db)")
	resultsListCmd.Flags().IntVar(&resultsLimit, "limit", 20, "Maximum number of runs to list (0 lists all)")
	resultsExportCmd.Flags().StringVarP(&resultsFormat, "format", "f", "csv", "Export format: csv|json|excel")
	resultsExportCmd.Flags().StringVar(&resultsExportDir, "dir", ".", "Directory for the exported file")
}
