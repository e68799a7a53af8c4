// Package configcmder provides the config command for managing persistent
// storysprout configuration stored in the .storysprout/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/storysprout/pkg/cliui"
	"github.com/papercomputeco/storysprout/pkg/config"
)

const configLongDesc string = `Manage persistent storysprout configuration.

Configuration is stored as config.toml in the .storysprout/ directory and
provides default values for command flags. Environment variables override
file values and CLI flags always take precedence over both.

Keys use dotted notation matching the TOML section structure:
  ai.provider,
  ai.<backend>.api_key, ai.<backend>.base_url, ai.<backend>.model, ai.<backend>.max_tokens
    (backend is one of anthropic, openai, gemini, ollama),
  api.listen,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  events.enabled, events.brokers, events.topic,
  client.api_target

Use subcommands to get, set, or list configuration values:
  storysprout config set <key> <value>    Set a configuration value
  storysprout config get <key>            Get a configuration value
  storysprout config list                 List all configuration values

Examples:
  storysprout config set ai.provider openai
  storysprout config set ai.openai.model gpt-4o-mini
  storysprout config get storage.driver
  storysprout config list`

const configShortDesc string = "Manage persistent storysprout configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// displayValue masks credentials before they reach the terminal.
func displayValue(key, value string) string {
	if config.IsSecretKey(key) {
		return cliui.MaskSecret(value)
	}
	return value
}

func writeTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
