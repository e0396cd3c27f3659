// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/execution"
	"github.com/LorenzoCevolani/datajob/internal/meta"
	"github.com/LorenzoCevolani/datajob/internal/output"
	"github.com/LorenzoCevolani/datajob/internal/ui"
)

// spin renders execute --wait progress. Tests swap in ui.Lines.
var spin = ui.Spin

// executeCommandAction starts an execution and prints where to follow it.
func executeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "execute"

	c, err := newClients(ctx, cmd)
	if err != nil {
		return err
	}

	name := cmd.String("state-machine")
	arn, err := execution.ResolveStateMachineARN(ctx, c.SFN, c.Region, name)
	if err != nil {
		return err
	}

	st, err := execution.Start(ctx, c.SFN, arn, cmd.String("name"), cmd.String("input"))
	if err != nil {
		// A stale cached ARN points at a state machine that was replaced.
		if ferr := execution.Forget(c.Region, name); ferr != nil {
			log.WithError(ferr).Debugf("failed to forget %s", name)
		}
		return err
	}

	out := stdout(cmd)
	fmt.Fprintf(out, "executing: %s\n", st.ARN)
	fmt.Fprintf(out, "status of the execution can be found on %s\n", execution.ConsoleURL(c.Region, st.ARN))

	if !cmd.Bool("wait") {
		return nil
	}

	var final execution.Status
	err = spin(ctx, name, stderr(cmd), func(ctx context.Context, update func(string)) error {
		var werr error
		final, werr = execution.Wait(ctx, c.SFN, st.ARN, cmd.Duration("interval"), func(s execution.Status) {
			update(fmt.Sprintf("%s (%s)", s.Status, s.Duration()))
		})
		return werr
	})

	if final.Status != "" {
		fmt.Fprintf(out, "%s %s after %s\n", final.Name, final.Status, final.Duration())
	}
	return err
}

// executionsDefaultColumns are shown by executions unless --columns says
// otherwise.
var executionsDefaultColumns = []string{"name", "status", "start::T", "duration", "!arn", "!stop", "!seconds"}

// executionsCommandAction lists recent executions of a state machine.
func executionsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "executions"

	c, err := newClients(ctx, cmd)
	if err != nil {
		return err
	}

	arn, err := execution.ResolveStateMachineARN(ctx, c.SFN, c.Region, cmd.String("state-machine"))
	if err != nil {
		return err
	}

	list, err := execution.List(ctx, c.SFN, arn, int(cmd.Int("max")))
	if err != nil {
		return err
	}

	raw, err := json.Marshal(executionRows(list))
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	return output.SliceDiceSpit(raw, output.Columns(executionsDefaultColumns...), cmd, "", stdout(cmd))
}

// executionRows flattens statuses into the documents the output package
// renders.
func executionRows(list []execution.Status) []map[string]any {
	rows := make([]map[string]any, 0, len(list))
	for _, st := range list {
		row := map[string]any{
			"name":     st.Name,
			"status":   st.Status,
			"arn":      st.ARN,
			"start":    st.Start.UTC().Format(time.RFC3339),
			"duration": st.Duration().String(),
			"seconds":  int64(st.Duration().Seconds()),
		}
		if !st.Stop.IsZero() {
			row["stop"] = st.Stop.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return rows
}

func executeCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Usage:     "start an execution of a deployed workflow",
		UsageText: "datajob execute --state-machine NAME [--input JSON] [--wait]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewStateMachineFlag(),
			&cli.StringFlag{
				Name:  "input",
				Usage: "execution input, a JSON document",
				Value: "{}",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "execution name, generated when empty",
			},
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "wait for the execution to finish",
				Value:   false,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "polling interval with --wait",
				Value: 10 * time.Second,
			},
		}, NewAWSFlags("execute")...),
		Action: executeCommandAction,
	}
}

func executionsCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "executions",
		Usage:     "list recent executions of a deployed workflow",
		UsageText: "datajob executions --state-machine NAME [--max 10] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append([]cli.Flag{
			NewStateMachineFlag(),
			&cli.IntFlag{
				Name:  "max",
				Usage: "maximum number of executions returned",
				Value: 10,
			},
		}, NewAWSFlags("executions")...), NewGlobalFlags("executions")...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, cmd)
		},
		Action: executionsCommandAction,
	}
}
