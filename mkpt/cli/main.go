// Copyright 2026 The rvboot Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli is the main entrypoint for mkpt.
package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/subcommands"
	"rvboot.dev/rvboot/mkpt/cmd"
	"rvboot.dev/rvboot/mkpt/cmd/util"
	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/log"
)

var (
	configPath = flag.String("config", "", "path to a layout file: YAML if it ends in .yaml or .yml, TOML otherwise. Defaults to the kernel's built-in layout.")
	debug      = flag.Bool("debug", false, "enable debug logging.")
	logPath    = flag.String("log", "", "file path where internal logs are written; %COMMAND% is replaced with the subcommand. Defaults to stderr.")
	logFormat  = flag.String("log-format", "text", "log format: text (default) or json.")
	errorLog   = flag.String("error-log", "", "file where errors are appended as JSON lines, in addition to stderr.")
)

// Main is the main entrypoint.
func Main() {
	forEachCmd(subcommands.Register)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	if *errorLog != "" {
		f, err := os.OpenFile(*errorLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			util.Fatalf("error opening error log %q: %v", *errorLog, err)
		}
		util.ErrorLogger = f
	}

	if *debug {
		log.SetLevel(log.Debug)
	}

	subcommand := flag.CommandLine.Arg(0)
	if *logPath != "" {
		f, err := log.OpenFile(*logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, log.CommandFileOpts{Command: subcommand})
		if err != nil {
			util.Fatalf("error opening log file: %v", err)
		}
		// Warnings still reach the terminal when logs go to a file.
		log.SetTarget(&log.MultiEmitter{
			newEmitter(*logFormat, f),
			warningsOnly{newEmitter("text", os.Stderr)},
		})
	} else {
		log.SetTarget(newEmitter(*logFormat, os.Stderr))
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		util.Fatalf("loading config: %v", err)
	}

	const delimString = `**************** mkpt ****************`
	log.Debugf(delimString)
	log.Debugf("%s, %s/%s, PID %d", runtime.Version(), runtime.GOOS, runtime.GOARCH, os.Getpid())
	log.Debugf("Args: %v", os.Args)
	conf.Log()
	log.Debugf(delimString)

	// Call the subcommand and pass in the configuration.
	subcmdCode := subcommands.Execute(context.Background(), conf)
	if subcmdCode == subcommands.ExitSuccess {
		os.Exit(0)
	}
	log.Debugf("Command %q exited with status: %v", subcommand, subcmdCode)
	os.Exit(int(subcmdCode))
}

// forEachCmd invokes the passed callback for each command supported by mkpt.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")
	cb(subcommands.CommandsCommand(), "")

	cb(new(cmd.Gen), "")
	cb(new(cmd.Dump), "")
	cb(new(cmd.Verify), "")
	cb(new(cmd.Layout), "")
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{Writer: &log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{Writer: &log.Writer{Next: logFile}}
	}
	util.Fatalf("invalid log format %q, must be 'text' or 'json'", format)
	panic("unreachable")
}

// warningsOnly drops everything below Warning.
type warningsOnly struct {
	log.Emitter
}

// Emit implements log.Emitter.Emit.
func (w warningsOnly) Emit(depth int, level log.Level, timestamp time.Time, format string, v ...any) {
	if level == log.Warning {
		w.Emitter.Emit(depth+1, level, timestamp, format, v...)
	}
}
