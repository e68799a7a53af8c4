package main

import (
	"os"

	storysproutcmder "github.com/papercomputeco/storysprout/cmd/storysprout"
)

func main() {
	cmd := storysproutcmder.NewStorySproutCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
