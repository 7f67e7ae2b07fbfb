// Package cli parses the command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/modelgraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// targetList collects repeatable --target flags.
type targetList []string

func (t *targetList) String() string { return strings.Join(*t, ",") }

func (t *targetList) Set(value string) error {
	*t = append(*t, value)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("modelctl", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
modelctl - A rule-driven configuration model engine.

Usage:
  modelctl [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a single .hcl manifest or a directory containing .hcl manifests.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model manifest file or directory.")
	mFlag := flagSet.String("m", "", "Path to the model manifest file or directory (shorthand).")
	var targets targetList
	flagSet.Var(&targets, "target", "Model path to realize and report. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *modelFlag != "" {
		path = *modelFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "a model manifest path is required"}
	}
	if len(targets) == 0 {
		return nil, false, &ExitError{Code: 2, Message: "at least one --target is required"}
	}

	return &app.Config{
		ModelPath: path,
		Targets:   targets,
		LogLevel:  *logLevelFlag,
		LogFormat: *logFormatFlag,
	}, false, nil
}
