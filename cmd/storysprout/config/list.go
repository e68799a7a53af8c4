package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/storysprout/pkg/cliui"
	"github.com/papercomputeco/storysprout/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key and its current value from the
config.toml file stored in the .storysprout/ directory, with defaults
filled in. Credentials are masked.

Examples:
  storysprout config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(w io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	writeTarget(w, cfger)

	keys := config.ValidConfigKeys()
	rows := make([]cliui.KeyValue, 0, len(keys))
	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}
		rows = append(rows, cliui.KeyValue{Key: key, Value: displayValue(key, value)})
	}

	return cliui.WriteKeyValues(w, rows)
}
