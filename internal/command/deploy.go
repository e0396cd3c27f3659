// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/aws"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/meta"
	"github.com/LorenzoCevolani/datajob/internal/packaging"
)

// deployCommandAction builds the project wheel when --package is set and then
// runs `cdk deploy`.
func deployCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "deploy"

	if pkg := cmd.String("package"); pkg != "" {
		root, err := packageRoot(cmd)
		if err != nil {
			return err
		}
		if err := packaging.Build(ctx, packagingRunner, pkg, root); err != nil {
			return err
		}
	}

	return runCDK(ctx, cmd, "deploy")
}

func synthesizeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "synthesize"

	return runCDK(ctx, cmd, "synthesize")
}

// destroyCommandAction runs `cdk destroy`. With --empty the stack's buckets
// are emptied first so CloudFormation can delete them.
func destroyCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "destroy"

	if cmd.Bool("empty") {
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
		log.Debugf("stack %s is %s", name, status)

		data, deployment := outputs["DataBucketName"], outputs["DeploymentBucketName"]
		fmt.Fprintf(stderr(cmd), "emptying buckets of %s: %s %s\n", name, data, deployment)
		if err := aws.EmptyBuckets(ctx, c.S3, data, deployment); err != nil {
			return err
		}
	}

	return runCDK(ctx, cmd, "destroy")
}

func cdkFlags(ns string) []cli.Flag {
	return []cli.Flag{
		NewConfigFlag(ns, true),
		NewStageFlag(ns),
		NewCDKFlag(ns),
	}
}

func deployCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "deploy",
		Usage:     "package the project and deploy the stack",
		UsageText: "datajob deploy --config datajob.yaml [--stage dev] [--package setuppy|poetry] [-- cdk args]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(cdkFlags("deploy"),
			NewPackageFlag("deploy"),
		),
		Action: deployCommandAction,
	}
}

func synthesizeCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "synthesize",
		Aliases:   []string{"synth"},
		Usage:     "synthesize the CloudFormation template",
		UsageText: "datajob synthesize --config datajob.yaml [--stage dev] [-- cdk args]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  cdkFlags("synthesize"),
		Action: synthesizeCommandAction,
	}
}

func destroyCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "destroy",
		Usage:     "destroy the stack",
		UsageText: "datajob destroy --config datajob.yaml [--stage dev] [--empty] [-- cdk args]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(append(cdkFlags("destroy"),
			&cli.BoolFlag{
				Name:  "empty",
				Usage: "delete every object in the stack's buckets first",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "stack",
				Usage: "deployed stack name, when --config is not a pipeline yaml",
			},
		), NewAWSFlags("destroy")...),
		Action: destroyCommandAction,
	}
}
