// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/differ"
	"github.com/LorenzoCevolani/datajob/internal/execution"
	"github.com/LorenzoCevolani/datajob/internal/meta"
	"github.com/LorenzoCevolani/datajob/internal/pipeline"
	"github.com/LorenzoCevolani/datajob/internal/ui"
	"github.com/LorenzoCevolani/datajob/stepfunctions"
)

// selectWorkflow picks a workflow interactively. Tests replace it.
var selectWorkflow = func(names []string) (string, error) {
	return differ.Select("Select a workflow:", names)
}

// definitionCommandAction prints the state machine definitions of the
// --config pipeline, or with --deployed diffs one against what is deployed.
func definitionCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "definition"

	d, err := loadPipeline(cmd)
	if err != nil {
		return err
	}

	defs, err := pipeline.Definitions(d, cmd.String("stage"))
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("%s declares no workflows", d.Source)
	}

	if w := cmd.String("workflow"); w != "" {
		def, err := findDefinition(defs, w)
		if err != nil {
			return err
		}
		defs = []pipeline.NamedDefinition{def}
	}

	if cmd.Bool("deployed") {
		def := defs[0]
		if len(defs) > 1 {
			if !ui.IsTerminal(stderr(cmd)) {
				return fmt.Errorf("%d workflows declared, pick one with --workflow", len(defs))
			}
			name, err := selectWorkflow(definitionNames(defs))
			if err != nil {
				return err
			}
			if def, err = findDefinition(defs, name); err != nil {
				return err
			}
		}
		return diffDeployed(ctx, cmd, def)
	}

	return printDefinitions(cmd, defs)
}

// printDefinitions writes one document, or an object keyed by workflow name
// when there are several.
func printDefinitions(cmd *cli.Command, defs []pipeline.NamedDefinition) error {
	if len(defs) == 1 {
		doc, err := defs[0].Definition.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout(cmd), doc)
		return err
	}

	all := make(map[string]*stepfunctions.StateMachine, len(defs))
	for _, def := range defs {
		all[def.Name] = def.Definition
	}
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout(cmd), string(b))
	return err
}

// diffDeployed compares def with the deployed state machine of the same name.
func diffDeployed(ctx context.Context, cmd *cli.Command, def pipeline.NamedDefinition) error {
	c, err := newClients(ctx, cmd)
	if err != nil {
		return err
	}

	arn, err := execution.ResolveStateMachineARN(ctx, c.SFN, c.Region, def.UniqueName)
	if err != nil {
		return err
	}
	deployed, err := execution.Definition(ctx, c.SFN, arn)
	if err != nil {
		return err
	}

	local, err := def.Definition.JSON()
	if err != nil {
		return err
	}
	local = substituteTopic(local, deployed)

	_, err = differ.Diff(stdout(cmd), []byte(deployed), []byte(local), differ.Options{
		Ignore: cmd.StringSlice("ignore"),
		Color:  cmd.Bool("color"),
	})
	return err
}

// substituteTopic replaces the topic placeholder of local with the ARN
// CloudFormation substituted into the deployed definition.
func substituteTopic(local, deployed string) string {
	topic := gjson.Get(deployed, "States.notify-success.Parameters.TopicArn")
	if !topic.Exists() {
		return local
	}
	return strings.ReplaceAll(local, stepfunctions.TopicArnSubstitution, topic.String())
}

func findDefinition(defs []pipeline.NamedDefinition, name string) (pipeline.NamedDefinition, error) {
	for _, def := range defs {
		if def.Name == name || def.UniqueName == name {
			return def, nil
		}
	}
	return pipeline.NamedDefinition{}, fmt.Errorf("workflow %q not found, have %s", name, strings.Join(definitionNames(defs), ", "))
}

func definitionNames(defs []pipeline.NamedDefinition) []string {
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

func definitionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "definition",
		Usage:     "print or diff the state machine definitions of a pipeline",
		UsageText: "datajob definition --config datajob.yaml [--stage dev] [--workflow NAME] [--deployed]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewConfigFlag("definition", true),
			NewStageFlag("definition"),
			&cli.StringFlag{
				Name:  "workflow",
				Usage: "only this workflow",
			},
			&cli.BoolFlag{
				Name:  "deployed",
				Usage: "diff against the deployed state machine",
				Value: false,
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "top level keys left out of the diff",
				Value: []string{"Comment"},
			},
			&cli.BoolFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored diff output",
				Value:   false,
			},
		}, NewAWSFlags("definition")...),
		Action: definitionCommandAction,
	}
}
