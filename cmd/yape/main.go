// Command yape loads a user module and dispatches to one of its
// subcommands (spec §6): run, list, deps, and the supplemented gc.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/guludo/yape/internal/logging"
)

var ui cli.Ui = &cli.BasicUi{
	Writer:      os.Stdout,
	ErrorWriter: os.Stderr,
	Reader:      os.Stdin,
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	args := os.Args[1:]

	modulePath, rest, err := extractYpFlag(args)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	app := &application{}
	if modulePath != "" {
		if err := app.loadModule(modulePath); err != nil {
			ui.Error(fmt.Sprintf("loading module %q: %s", modulePath, err))
			return 1
		}
	}

	c := cli.NewCLI("yape", version)
	c.Args = rest
	c.Commands = map[string]cli.CommandFactory{
		"run":  func() (cli.Command, error) { return &runCommand{app: app}, nil },
		"list": func() (cli.Command, error) { return &listCommand{app: app}, nil },
		"deps": func() (cli.Command, error) { return &depsCommand{app: app}, nil },
		"gc":   func() (cli.Command, error) { return &gcCommand{app: app}, nil },
	}

	exitStatus, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitStatus
}

const version = "0.1.0"

func init() {
	logging.HCLogger().Trace("yape starting")
}

// extractYpFlag pulls the first "--yp MODULE_OR_FILE" (or
// "--yp=MODULE_OR_FILE") out of args, wherever it appears, since it must
// be parsed before the subcommand name is known to mitchellh/cli.
func extractYpFlag(args []string) (modulePath string, rest []string, err error) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--yp":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--yp requires an argument")
			}
			modulePath = args[i+1]
			rest = append(append([]string{}, args[:i]...), args[i+2:]...)
			return modulePath, rest, nil
		case len(a) > len("--yp=") && a[:len("--yp=")] == "--yp=":
			modulePath = a[len("--yp="):]
			rest = append(append([]string{}, args[:i]...), args[i+1:]...)
			return modulePath, rest, nil
		}
	}
	return "", args, nil
}
