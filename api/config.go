// Package api provides the StorySprout HTTP API: the story catalog, story
// records and the streaming beat endpoint.
package api

import "github.com/papercomputeco/storysprout/pkg/story"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Catalog lists the selectable styles and themes. Defaults to
	// story.DefaultCatalog().
	Catalog *story.Catalog
}
