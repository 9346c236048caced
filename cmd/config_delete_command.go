package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the rosterload configuration file",
	Long: `Remove the YAML file that supplied API, import and export settings for this run.
Pass --configFile to target a specific file.

Run history in the SQLite database is kept. Recreate a config with "rosterload config create".`,
	Example: `
  # Remove the config found in the working or home directory
  rosterload config delete

  # Remove a project-specific config
  rosterload --configFile ./term2.yaml config delete
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := deleteConfigFile(viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed configuration file %s\n", path)
		return nil
	},
}

func deleteConfigFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no configuration file in use; run \"rosterload config create\" first")
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("configuration file %s does not exist", path)
		}
		return "", fmt.Errorf("remove configuration file %s: %w", path, err)
	}
	return path, nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}
