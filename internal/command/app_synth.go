// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/meta"
	"github.com/LorenzoCevolani/datajob/internal/pipeline"
)

// appCommandAction synthesizes the --config pipeline into CDK_OUTDIR. cdk
// runs it as the --app of deploy, synthesize and destroy, passing the stage
// as context.
func appCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	d, err := loadPipeline(cmd)
	if err != nil {
		return err
	}

	defer jsii.Close()

	app := awscdk.NewApp(nil)
	if _, err := pipeline.Build(app, d, cmd.String("stage")); err != nil {
		return err
	}
	app.Synth(nil)

	log.Debugf("synthesized %s", d.Source)
	return nil
}

func appCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "app",
		Usage:     "synthesize a pipeline yaml, run by cdk",
		UsageText: "datajob app --config datajob.yaml",
		Hidden:    true,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "pipeline yaml",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "stage",
				Usage: "deployment stage, read from the cdk context when empty",
				Validator: func(value string) error {
					return FlagValidators(value, StageValidator)
				},
			},
		},
		Action: appCommandAction,
	}
}
