package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rosterload/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

The configuration is validated before printing; the API token is masked.`,
	Example: `
  # Show active configuration
  rosterload config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if path := viper.ConfigFileUsed(); path != "" {
			fmt.Println("Config file loaded from:", path)
		} else {
			fmt.Println("No config file loaded; values come from defaults and environment.")
		}
		fmt.Println("Configuration:")
		fmt.Printf("api.base_url: %s\n", cfg.API.BaseURL)
		fmt.Printf("api.token: %s\n", maskToken(cfg.API.Token))
		fmt.Printf("api.timeout: %s\n", cfg.API.Timeout)
		fmt.Printf("import.mode: %s\n", cfg.Import.Mode)
		fmt.Printf("import.primary_key: %s\n", cfg.Import.PrimaryKey)
		fmt.Printf("export.dir: %s\n", cfg.Export.Dir)
		fmt.Printf("export.formats: %s\n", strings.Join(cfg.Export.Formats, ", "))
		fmt.Printf("storage.db: %s\n", cfg.Storage.DB)
	},
}

func maskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) <= 4:
		return "****"
	default:
		return "****" + token[len(token)-4:]
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
