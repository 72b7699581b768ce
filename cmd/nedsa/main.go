/*
Nedsa compiles and evaluates nedsascript programs against a non-erasing
stack automaton.

Usage:

	nedsa run <file>
	nedsa decide <file>
	nedsa repl [flags]

The run subcommand compiles the given nedsascript file and directly
interprets the resulting automaton, printing the cleaned terminal state. This
evaluation may not terminate for programs whose stack grows forever without
halting.

The decide subcommand compiles the given file and runs the terminating
transition-table decider instead, which always halts and reports
+DOESNOTHALT+ for programs that would otherwise run forever.

The repl subcommand starts an interactive session for pasting in programs and
immediately seeing both outcomes.

The flags are:

	-v, --version
		Give the current version of nedsa and then exit.

	-c, --config FILE
		Read configuration from the given TOML file.

	--no-estimate
		Suppress the worst-case decide-table count estimate normally logged
		after a successful compile.
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dekarrin/nedsa"
	"github.com/dekarrin/nedsa/internal/automaton"
	"github.com/dekarrin/nedsa/internal/config"
	"github.com/dekarrin/nedsa/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates bad CLI arguments.
	ExitUsageError

	// ExitParseError indicates the nedsascript source could not be parsed
	// or compiled.
	ExitParseError

	// ExitRuntimeError indicates a failure unrelated to the program itself,
	// such as an unreadable file.
	ExitRuntimeError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of nedsa and then exit")
	flagConfig  = pflag.StringP("config", "c", "", "Read configuration from the given TOML file")
	flagNoEstim = pflag.Bool("no-estimate", false, "Suppress the worst-case decide-table count estimate")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	cfg := config.Default()
	if *flagConfig != "" {
		var err error
		cfg, err = config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: could not read config: %s\n", err.Error())
			returnCode = ExitRuntimeError
			return
		}
	}
	if *flagNoEstim {
		cfg.LogEstimate = false
	}

	args := pflag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: nedsa run|decide <file>\n       nedsa repl\nDo -h for help.\n")
		returnCode = ExitUsageError
		return
	}

	var logger *log.Logger
	if cfg.LogEstimate {
		logger = log.New(os.Stderr, "", 0)
	}

	switch args[0] {
	case "run":
		runMode(args, logger, false)
	case "decide":
		runMode(args, logger, true)
	case "repl":
		if err := runRepl(logger); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitRuntimeError
		}
	default:
		fmt.Fprintf(os.Stderr, "unrecognized subcommand %q\nDo -h for help.\n", args[0])
		returnCode = ExitUsageError
	}
}

func runMode(args []string, logger *log.Logger, decide bool) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: nedsa %s <file>\n", args[0])
		returnCode = ExitUsageError
		return
	}

	file := args[1]
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read %s: %s\n", file, err.Error())
		returnCode = ExitRuntimeError
		return
	}

	nes, err := nedsa.CompileSource(string(data), file, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitParseError
		return
	}

	var outcome string
	if decide {
		outcome = nes.Decide(logger)
	} else {
		outcome = nes.Run()
	}

	fmt.Println(automaton.Clean(outcome))
}

func runRepl(logger *log.Logger) error {
	sess, err := nedsa.NewSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.RunUntilQuit()
}
