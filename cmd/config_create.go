package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Write the example configuration (the same template "config edit" starts from).

An existing configuration file is never overwritten.`,
	Example: `
  # Create default config at $HOME/.rosterload.yaml
  rosterload config create

  # Create a project local config
  rosterload --configFile ./.rosterload.yaml config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, created, err := createConfig()
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("New config file created at: %s\n", path)
			fmt.Println("Set api.base_url (and api.token if required) before running upload.")
			return nil
		}
		fmt.Printf("Config file already exists at: %s\n", path)
		return nil
	},
}

func createConfig() (string, bool, error) {
	path, err := configTargetPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return "", false, err
	}
	created, err := writeConfigTemplate(path)
	if err != nil {
		return "", false, err
	}
	return path, created, nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
}
