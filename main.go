// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/LorenzoCevolani/datajob/internal/cacheutil"
	"github.com/LorenzoCevolani/datajob/internal/command"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/log"
	"github.com/LorenzoCevolani/datajob/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

// handleVersion checks for --version/-v before the command and returns
// whether it was handled. Flags after "--" belong to cdk.
func handleVersion(w io.Writer, args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "--version" || a == "-v" {
			fmt.Fprintln(w, version.String())
			return true
		}
	}
	return false
}

// handleNakedCommand appends --help if no command is provided.
func handleNakedCommand(args []string) []string {
	if len(args) <= 1 {
		return append(args, "--help")
	}
	return args
}

// processCommandArgs expands an @set argument into the flags stored under
// <command>.<set> in the user config.
func processCommandArgs(args []string) []string {
	if len(args) > 1 && args[1] == "completion" {
		return args
	}
	args = processSetOnly(args)
	log.Debugf("args after set processing: args=%v", args)
	return args
}

// initAndRunApp initializes the app and runs it, returning the exit code.
func initAndRunApp(args []string) int {
	// Pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("cache ensure err: err=%v", err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app init err: err=%v", err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app run err: err=%v", err)
		return 2
	}

	return 0
}

func realMain() int {
	log.InitLogger()

	args := os.Args
	log.Debugf("args captured: args=%v", args)

	if handleVersion(os.Stdout, args) {
		return 0
	}

	args = handleNakedCommand(args)

	// If --help appears anywhere, skip command processing and let the CLI handle it.
	helpFound := false
	for _, a := range args {
		if a == "--help" || a == "-h" {
			helpFound = true
			break
		}
	}

	if !helpFound {
		args = processCommandArgs(args)
	}

	return initAndRunApp(args)
}

// processSetOnly handles the @set logic for all commands, expanding set
// arguments at the @set position. A set is a list of flag strings, e.g.
//
//	deploy:
//	  prd:
//	    - --stage prd
//	    - --package poetry
func processSetOnly(args []string) []string {
	if len(args) < 3 {
		return args
	}

	// Look for an explicit @set argument starting from index 2.
	idx := 2
	set := ""
	removeIdx := -1
	for i, a := range args[idx:] {
		if a == "--" {
			break
		}
		if strings.HasPrefix(a, "@") {
			set = a[1:]
			removeIdx = idx + i
			break
		}
	}
	if removeIdx == -1 {
		return args
	}

	setArgs, err := config.GetStringSlice(args[1] + "." + set)
	if err != nil {
		log.Warnf("set %s not found for %s", set, args[1])
	}
	out, err := injectSet(args, setArgs, removeIdx)
	if err != nil {
		log.Warnf("set %s for %s: %v", set, args[1], err)
		return args
	}
	return out
}

// injectSet replaces args[at] with entries split into words the way a shell
// would, so quoted values stay whole.
func injectSet(args []string, entries []string, at int) ([]string, error) {
	out := make([]string, 0, len(args)+len(entries))
	out = append(out, args[:at]...)
	for _, e := range entries {
		words, err := shellwords.Parse(e)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", e, err)
		}
		out = append(out, words...)
	}
	return append(out, args[at+1:]...), nil
}
