package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"rosterload/adminapi"
	"rosterload/config"
	"rosterload/importer"
	"rosterload/internal/classify"
)

func newAdminClient(cfg *config.Config, userAgent string) (*adminapi.HTTPClient, error) {
	return adminapi.NewClient(adminapi.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		UserAgent: userAgent,
		Timeout:   cfg.API.Timeout,
	})
}

// resolveOperation applies --mode/--primary-key on top of the configured
// import defaults.
func resolveOperation(cfg config.ImportConfig, modeFlag, primaryKeyFlag string) (importer.Operation, error) {
	rawMode := cfg.Mode
	if strings.TrimSpace(modeFlag) != "" {
		rawMode = modeFlag
	}
	mode, err := importer.ParseMode(rawMode)
	if err != nil {
		return importer.Operation{}, err
	}

	primaryKey := cfg.PrimaryKey
	if strings.TrimSpace(primaryKeyFlag) != "" {
		primaryKey = strings.ToLower(strings.TrimSpace(primaryKeyFlag))
	}
	return importer.Operation{Mode: mode, PrimaryKey: primaryKey}, nil
}

func resolveDBPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if configured := strings.TrimSpace(viper.GetString(config.KeyStorageDB)); configured != "" {
		return configured
	}
	return "./rosterload.db"
}

// parseMappingOverride reads "Header=field". The last '=' separates the two
// so headers may contain '='. An empty field unmaps the header.
func parseMappingOverride(raw string) (importer.Pair, error) {
	idx := strings.LastIndex(raw, "=")
	if idx < 0 {
		return importer.Pair{}, fmt.Errorf("invalid --map value %q (expected \"Header=field\")", raw)
	}
	pair := importer.Pair{
		Header: strings.TrimSpace(raw[:idx]),
		Field:  strings.ToLower(strings.TrimSpace(raw[idx+1:])),
	}
	if pair.Header == "" {
		return importer.Pair{}, fmt.Errorf("invalid --map value %q: header is empty", raw)
	}
	return pair, nil
}

func printMapping(w io.Writer, headers []string, mapping *importer.Mapping) {
	width := 0
	for _, header := range headers {
		if len(header) > width {
			width = len(header)
		}
	}
	for _, header := range headers {
		field, ok := mapping.Get(header)
		if !ok {
			field = "(unmapped)"
		}
		fmt.Fprintf(w, "  %-*s -> %s\n", width, header, field)
	}
}

func printVerdict(w io.Writer, op importer.Operation, verdict importer.Verdict) {
	label := string(op.Mode)
	if op.Mode == importer.ModeUpsert && op.PrimaryKey != "" {
		label += " on " + op.PrimaryKey
	}
	if verdict.CanSubmit {
		fmt.Fprintf(w, "Ready to submit (%s).\n", label)
		return
	}
	fmt.Fprintf(w, "Cannot submit (%s):\n", label)
	for _, reason := range verdict.Reasons {
		fmt.Fprintf(w, "  - %s\n", reason)
	}
}

func printUploadResult(w io.Writer, result *adminapi.UploadResult) {
	summary := classify.Summarize(result.Results)
	fmt.Fprintf(w, "Upload completed. Received: %d, Created: %d, Email failed: %d, Updated: %d, Skipped: %d, Errors: %d\n",
		result.TotalReceived,
		summary.Created,
		summary.EmailFailed,
		summary.Updated,
		summary.Skipped,
		summary.Errors,
	)
	if result.CreatedCount != nil || result.UpdatedCount != nil {
		fmt.Fprintf(w, "Server counts. Created: %s, Updated: %s\n", countText(result.CreatedCount), countText(result.UpdatedCount))
	}

	failed := classify.Failed(result.Results)
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "Failed rows (%d):\n", len(failed))
	for _, row := range failed {
		message := row.Message
		if message == "" {
			message = row.Status
		}
		fmt.Fprintf(w, "  row %d", row.Index)
		if row.Email != "" {
			fmt.Fprintf(w, " <%s>", row.Email)
		}
		fmt.Fprintf(w, ": %s\n", message)
	}
}

func countText(value *int) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprint(*value)
}
