/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rosterload/config"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rosterload",
	Short: "Map spreadsheet columns to student fields and bulk upload them to the admin API.",
	Long: `
**********************************************
*              ROSTER LOAD                   *
**********************************************

This CLI reads a student roster spreadsheet, proposes a column to field mapping,
validates it for insert or upsert, and submits every row in one bulk request to the
admin API. Per-row results are printed, exported to CSV/JSON/Excel and kept in a
local SQLite history.

Supported input formats:
- Excel: .xlsx, .xls
`,
	Example: `
  # Create configuration file
  rosterload config create

  # Inspect a roster and the proposed mapping (no network)
  rosterload preview students.xlsx

  # Insert new students, overriding one column
  rosterload upload students.xlsx --map "Mobile=phone_number"

  # Update existing students matched by USN
  rosterload upload students.xlsx --mode upsert --primary-key usn

  # List previous runs and re-export one as Excel
  rosterload results list
  rosterload results export <run-id> --format excel

  # Serve the wizard as a local JSON API
  rosterload serve --port 8080
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(logLevel); err != nil {
			return err
		}
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.rosterload.yaml, then ./.rosterload.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
}

func requiresConfig(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	switch cmd.Name() {
	case "upload":
		// A dry run stays offline and needs no API settings.
		dryRun, err := cmd.Flags().GetBool("dry-run")
		return err != nil || !dryRun
	case "serve":
		return true
	default:
		return false
	}
}

func setupLogging(level string) error {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return fmt.Errorf("invalid log level %q (supported: debug|info|warn|error)", level)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed})
	slog.SetDefault(slog.New(handler))
	return nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rosterload")
	}

	// ROSTERLOAD_API_BASE_URL overrides api.base_url and so on.
	viper.SetEnvPrefix("rosterload")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: rosterload config create")
	}
}
