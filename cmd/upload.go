package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rosterload/adminapi"
	"rosterload/config"
	"rosterload/importer"
	"rosterload/output"
	"rosterload/storage"
	"rosterload/student"
	"rosterload/wizard"
)

var (
	uploadMappings   []string
	uploadUnmap      []string
	uploadMode       string
	uploadPrimaryKey string
	uploadDryRun     bool
	uploadExport     []string
	uploadExportDir  string
	uploadDBPath     string
	uploadNoHistory  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Map a roster spreadsheet and bulk upload it to the admin API",
	Long: `Read the first sheet of an Excel roster, auto-map its headers to student fields,
apply --map/--unmap overrides, validate the mapping for the selected mode and submit
every row in a single bulk request.

Insert mode needs columns mapped to name and email. Upsert mode needs a primary key
(email, usn or enrollment_number) that is mapped, plus at least one other mapped field.

Per-row results are printed, exported (--export) and stored in the run history.`,
	Example: `
  # Insert new students with the auto-mapped columns
  rosterload upload students.xlsx

  # Fix one column and ignore another
  rosterload upload students.xlsx --map "Mobile=phone_number" --unmap "Remarks"

  # Update existing students matched by USN, export CSV and JSON
  rosterload upload students.xlsx --mode upsert --primary-key usn --export csv --export json

  # Show the mapping and payload without sending anything
  rosterload upload students.xlsx --dry-run
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if uploadDryRun {
			defaults := config.ImportConfig{
				Mode:       viper.GetString(config.KeyImportMode),
				PrimaryKey: viper.GetString(config.KeyImportPrimaryKey),
			}
			operation, err := resolveOperation(defaults, uploadMode, uploadPrimaryKey)
			if err != nil {
				return err
			}
			return dryRunUpload(ctx, os.Stdout, args[0], operation, uploadMappings, uploadUnmap)
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		operation, err := resolveOperation(cfg.Import, uploadMode, uploadPrimaryKey)
		if err != nil {
			return err
		}
		client, err := newAdminClient(cfg, "rosterload-upload/1.0")
		if err != nil {
			return err
		}

		opts := wizard.Options{
			Client:    client,
			Notifier:  wizard.SlogNotifier{Logger: slog.Default()},
			Operation: operation,
		}
		if !uploadNoHistory {
			store, err := storage.OpenSQLite(resolveDBPath(uploadDBPath))
			if err != nil {
				return err
			}
			defer store.Close()
			opts.Recorder = store
		}

		wiz, err := wizard.New(opts)
		if err != nil {
			return err
		}

		state, err := prepareUpload(ctx, wiz, args[0], uploadMappings, uploadUnmap)
		if err != nil {
			return err
		}
		printUploadState(os.Stdout, state)

		submitCtx, cancel := context.WithTimeout(ctx, submitTimeout(cfg.API.Timeout))
		defer cancel()
		complete, err := wiz.Submit(submitCtx)
		if err != nil {
			return err
		}

		printUploadResult(os.Stdout, complete.Result)
		fmt.Printf("Run ID: %s\n", complete.RunID)

		formats := uploadExport
		if len(formats) == 0 {
			formats = cfg.Export.Formats
		}
		dir := uploadExportDir
		if dir == "" {
			dir = cfg.Export.Dir
		}
		now := time.Now()
		for _, format := range formats {
			path, err := output.Export(dir, format, now, complete.Result)
			if err != nil {
				return err
			}
			fmt.Printf("Results exported: %s\n", path)
		}
		return nil
	},
}

// prepareUpload loads path into the wizard, confirms the preview and
// applies the mapping overrides. It returns the resulting mapping step.
func prepareUpload(ctx context.Context, wiz *wizard.Wizard, path string, mappings, unmap []string) (wizard.MappingState, error) {
	if err := wiz.Load(ctx, path); err != nil {
		return wizard.MappingState{}, err
	}
	if err := wiz.Confirm(); err != nil {
		return wizard.MappingState{}, err
	}

	for _, raw := range mappings {
		pair, err := parseMappingOverride(raw)
		if err != nil {
			return wizard.MappingState{}, err
		}
		if err := wiz.SetMapping(pair.Header, pair.Field); err != nil {
			return wizard.MappingState{}, fmt.Errorf("--map %q: %w", raw, err)
		}
	}
	for _, header := range unmap {
		if err := wiz.SetMapping(header, ""); err != nil {
			return wizard.MappingState{}, fmt.Errorf("--unmap %q: %w", header, err)
		}
	}

	state, ok := wiz.State().(wizard.MappingState)
	if !ok {
		return wizard.MappingState{}, fmt.Errorf("%w: expected mapping step", wizard.ErrInvalidTransition)
	}
	return state, nil
}

// errOffline is returned by the client a dry run hands to the wizard.
var errOffline = errors.New("dry run: nothing is sent to the admin api")

type offlineClient struct{}

func (offlineClient) AddBulkStudents(context.Context, []student.Record) (*adminapi.UploadResult, error) {
	return nil, errOffline
}

func (offlineClient) UpsertBulkStudents(context.Context, string, []student.Record) (*adminapi.UploadResult, error) {
	return nil, errOffline
}

// dryRunUpload walks the wizard up to the mapping step and prints the rows
// that would be submitted.
func dryRunUpload(ctx context.Context, w io.Writer, path string, operation importer.Operation, mappings, unmap []string) error {
	wiz, err := wizard.New(wizard.Options{Client: offlineClient{}, Operation: operation})
	if err != nil {
		return err
	}
	state, err := prepareUpload(ctx, wiz, path, mappings, unmap)
	if err != nil {
		return err
	}
	printUploadState(w, state)

	records := importer.Project(state.Table, state.Mapping)
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode projected rows: %w", err)
	}
	fmt.Fprintf(w, "Dry run: %d rows would be sent.\n%s\n", len(records), payload)
	return nil
}

func printUploadState(w io.Writer, state wizard.MappingState) {
	fmt.Fprintf(w, "File: %s (%d rows)\n", state.Source, len(state.Table.Rows))
	fmt.Fprintln(w, "Mapping:")
	printMapping(w, state.Table.Headers, state.Mapping)
	printVerdict(w, state.Operation, state.Verdict)
}

func submitTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return 60 * time.Second
	}
	// Leave the HTTP client's own timeout room to report first.
	return configured + 5*time.Second
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringArrayVar(&uploadMappings, "map", nil, "Override one column mapping as \"Header=field\" (repeatable, empty field unmaps)")
	uploadCmd.Flags().StringArrayVar(&uploadUnmap, "unmap", nil, "Leave a column unmapped (repeatable)")
	uploadCmd.Flags().StringVar(&uploadMode, "mode", "", "Write mode: insert|upsert (default from import.mode)")
	uploadCmd.Flags().StringVar(&uploadPrimaryKey, "primary-key", "", "Upsert key: email|usn|enrollment_number (default from import.primary_key)")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "Print mapping, verdict and projected rows without sending")
	uploadCmd.Flags().StringArrayVar(&uploadExport, "export", nil, "Export results as csv|json|excel (repeatable, default from export.formats)")
	uploadCmd.Flags().StringVar(&uploadExportDir, "export-dir", "", "Directory for exported results (default from export.dir)")
	uploadCmd.Flags().StringVar(&uploadDBPath, "db", "", "Path to the run history database (default from storage.db)")
	uploadCmd.Flags().BoolVar(&uploadNoHistory, "no-history", false, "Do not record this run in the history database")
}
