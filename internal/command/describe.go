// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/aws"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/meta"
	"github.com/LorenzoCevolani/datajob/internal/output"
	"github.com/LorenzoCevolani/datajob/stepfunctions"
)

// describeCommandAction shows the outputs of a deployed stack: the bucket
// names and one state machine name per workflow.
func describeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "describe"

	name, err := stackName(cmd)
	if err != nil {
		return err
	}

	c, err := newClients(ctx, cmd)
	if err != nil {
		return err
	}

	outputs, status, err := aws.StackOutputs(ctx, c.CFN, name)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("\n%s (%s):", name, status)
	if cmd.String("filter") != "" {
		header = fmt.Sprintf("\n%s (%s, filtered):", name, status)
	}
	if cmd.String("output") == "text" {
		fmt.Fprintln(stdout(cmd), header)
	}

	raw, err := json.Marshal(outputRows(outputs))
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	return output.SliceDiceSpit(raw, output.Columns("key", "value", "kind"), cmd, "", stdout(cmd))
}

// outputRows sorts stack outputs by key and tags each with what it names.
func outputRows(outputs map[string]string) []map[string]string {
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]map[string]string, 0, len(keys))
	for _, k := range keys {
		kind := "other"
		switch {
		case strings.HasSuffix(k, "BucketName"):
			kind = "bucket"
		case strings.HasPrefix(k, stepfunctions.StateMachineOutputPrefix):
			kind = "state machine"
		}
		rows = append(rows, map[string]string{"key": k, "value": outputs[k], "kind": kind})
	}
	return rows
}

func describeCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "show the outputs of a deployed stack",
		UsageText: "datajob describe (--stack NAME | --config datajob.yaml [--stage dev]) [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append([]cli.Flag{
			NewConfigFlag("describe", false),
			NewStageFlag("describe"),
			&cli.StringFlag{
				Name:  "stack",
				Usage: "deployed stack name. Overrides --config",
			},
		}, NewAWSFlags("describe")...), NewGlobalFlags("describe")...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, cmd)
		},
		Action: describeCommandAction,
	}
}
