// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {

	// Save the CWD at startup and then defer restoring it so we're tidy.
	sd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	defer func() {
		if err := os.Chdir(sd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to restore directory: %v\n", err)
		}
	}()

	// The arg[1] immediately following the binary (arg[0]) is the datajob
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing user config is fine, every flag has a default.
	cfg, err := config.Load()
	if err != nil {
		log.Debugf("no user config: %v", err)
	}
	config.Config.Namespace = ns
	cfg.Namespace = ns

	exe, err := os.Executable()
	if err != nil {
		log.Debugf("executable lookup failed: %v", err)
		exe = args[0]
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
		Executable:  exe,
	}

	app := &cli.Command{
		Name:  "datajob",
		Usage: "build and deploy serverless data pipelines on AWS",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "datajob version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		deployCommandBuilder(meta),
		synthesizeCommandBuilder(meta),
		destroyCommandBuilder(meta),
		executeCommandBuilder(meta),
		executionsCommandBuilder(meta),
		describeCommandBuilder(meta),
		definitionCommandBuilder(meta),
		appCommandBuilder(meta),
		completionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
