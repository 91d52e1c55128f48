// Package logging provides the process-wide hclog logger used across
// yape's packages.
package logging

import (
	"os"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
)

var root = sync.OnceValue(func() hclog.Logger {
	level := hclog.LevelFromString(os.Getenv("YAPE_LOG"))
	if level == hclog.NoLevel {
		level = hclog.Off
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            "yape",
		Level:           level,
		Output:          os.Stderr,
		IncludeLocation: level <= hclog.Debug,
	})
})

// HCLogger returns the shared root logger.
func HCLogger() hclog.Logger {
	return root()
}

// Named returns a named child of the shared root logger, e.g.
// Named("graph"), Named("toposort"), Named("state").
func Named(name string) hclog.Logger {
	return root().Named(name)
}
