package main

import (
	"fmt"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/logging"
	"github.com/guludo/yape/internal/resource"
	"github.com/guludo/yape/internal/runner"
	"github.com/guludo/yape/internal/state"
)

var appLog = logging.Named("cli")

// application holds the state shared across every subcommand: the graph
// built by the loaded user module (spec §6 "the module may expose a
// zero-arg nodegen() function, which is called after load to build
// graphs").
type application struct {
	// modulePath is the raw --yp argument, kept for error messages.
	modulePath string
}

// loadModule loads the user module named or pathed by modulePath and
// calls its nodegen() entry point, if it has one.
//
// The core spec treats module loading as out of scope, specifying only
// that a module is found "by import name first, then by file path" and
// exposes an optional zero-arg nodegen() function. Go has no runtime
// import-by-name; the closest equivalent is the standard library's
// plugin package, loading a prebuilt shared object. So here "import
// name" means a plugin file under $YAPE_PLUGIN_DIR (or ./.yape/plugins)
// named <import-name>.so, and "file path" means modulePath itself when
// it names a file directly (optionally resolved relative to the working
// directory). Either way the loaded plugin must export a zero-arg
// `Nodegen` symbol (func()), called after a successful load.
func (a *application) loadModule(modulePath string) error {
	a.modulePath = modulePath

	path := modulePath
	if !strings.Contains(modulePath, "/") && filepath.Ext(modulePath) == "" {
		path = filepath.Join(pluginDir(), modulePath+".so")
	}

	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("opening plugin %q: %w", path, err)
	}

	sym, err := p.Lookup("Nodegen")
	if err != nil {
		appLog.Debug("module has no Nodegen entry point", "module", modulePath)
		return nil
	}

	nodegen, ok := sym.(func())
	if !ok {
		return fmt.Errorf("module %q: Nodegen has the wrong signature (want func())", modulePath)
	}

	nodegen()
	return nil
}

func pluginDir() string {
	if d := envPluginDir(); d != "" {
		return d
	}
	return filepath.Join(".yape", "plugins")
}

func (a *application) graph() *graph.Graph {
	return graph.Global()
}

// buildContext assembles the Runner.Context a CLI invocation runs
// against, honoring the YAPE_CACHE_DIR / YAPE_PATHS_DIR overrides
// independently (runner.DefaultContext roots both under one path, which
// the CLI's ambient configuration intentionally does not assume).
func buildContext() *runner.Context {
	db := state.NewDB(cacheDir())
	return &runner.Context{
		Namespace: state.New(db.Factory()),
		Providers: resource.NewStack(resource.NewPathProvider(pathsDir())),
	}
}
