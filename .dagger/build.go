package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/storysprout/internal/dagger"
)

// Build and return directory of go binaries
func (s *StorySprout) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	outputs := dag.Directory()

	// go-sqlite3 needs cgo, so each platform builds in its own emulated
	// container instead of cross-compiling.
	for _, platform := range platforms {
		path := string(platform) + "/"

		build := s.goContainer(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/storysprout"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (s *StorySprout) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/storysprout/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/storysprout/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/storysprout/pkg/utils.Buildtime=%s'", buildtime),
	}

	return s.Build(ctx, strings.Join(ldflags, " "))
}
