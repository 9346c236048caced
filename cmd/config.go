package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage rosterload configuration file values.",
	Long: `Create, edit, display, and delete the rosterload configuration file.

The configuration stores:
- api.base_url / api.token / api.timeout
- import.mode / import.primary_key
- export.dir / export.formats
- storage.db

Every key can be overridden by an environment variable, e.g. ROSTERLOAD_API_TOKEN.`,
	Example: `
  # Create default config in $HOME/.rosterload.yaml
  rosterload config create

  # Show active config and source file
  rosterload config show

  # Open active config in editor (creates example if missing)
  rosterload config edit

  # Delete active config file
  rosterload config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
