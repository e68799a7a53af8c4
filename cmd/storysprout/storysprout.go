// Package storysproutcmder provides the root storysprout command.
package storysproutcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/storysprout/cmd/storysprout/config"
	readcmder "github.com/papercomputeco/storysprout/cmd/storysprout/read"
	servecmder "github.com/papercomputeco/storysprout/cmd/storysprout/serve"
	versioncmder "github.com/papercomputeco/storysprout/cmd/version"
)

const storysproutLongDesc string = `StorySprout writes five-beat interactive picture-book stories for
young children, one streamed beat at a time.

Run the API server and read finished stories using:
  storysprout serve              Run the API server
  storysprout read <story-id>    Render a story in the terminal
  storysprout config list        Show the resolved configuration`

const storysproutShortDesc string = "StorySprout - interactive bedtime stories"

func NewStorySproutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storysprout",
		Short:         storysproutShortDesc,
		Long:          storysproutLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .storysprout/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(readcmder.NewReadCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
