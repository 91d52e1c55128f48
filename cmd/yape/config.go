package main

import "os"

// envPluginDir returns YAPE_PLUGIN_DIR if set.
func envPluginDir() string {
	return os.Getenv("YAPE_PLUGIN_DIR")
}

// cacheDir returns the root a default Context's CachedStateDB is rooted
// at: YAPE_CACHE_DIR if set, otherwise ".yape/cache".
func cacheDir() string {
	if d := os.Getenv("YAPE_CACHE_DIR"); d != "" {
		return d
	}
	return ".yape/cache"
}

// pathsDir returns the root a default Context's PathProvider is rooted
// at: YAPE_PATHS_DIR if set, otherwise ".yape/paths".
func pathsDir() string {
	if d := os.Getenv("YAPE_PATHS_DIR"); d != "" {
		return d
	}
	return ".yape/paths"
}
