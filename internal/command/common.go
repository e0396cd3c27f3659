// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/aws"
	"github.com/LorenzoCevolani/datajob/internal/cdk"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/meta"
	"github.com/LorenzoCevolani/datajob/internal/packaging"
	"github.com/LorenzoCevolani/datajob/internal/pipeline"
	"github.com/LorenzoCevolani/datajob/internal/util"
	"github.com/LorenzoCevolani/datajob/stack"
)

// maxAttempts bounds SDK retries for the runtime commands.
const maxAttempts = 5

// ErrNotAPipeline is returned when a command needs the pipeline yaml but
// --config names a CDK app.
var ErrNotAPipeline = errors.New("--config must be a pipeline yaml file")

// Clients bundles the AWS APIs the runtime commands use.
type Clients struct {
	Region string
	S3     aws.S3API
	SFN    aws.SFNAPI
	CFN    aws.CloudFormationAPI
}

// Seams replaced in tests.
var (
	newClients      = defaultClients
	newCDKRunner    = func(binary string) cdk.Runner { return cdk.NewExecRunner(binary) }
	packagingRunner = packaging.DefaultRunner
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// stdout is where command results go.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// stderr is where progress and links go.
func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func defaultClients(ctx context.Context, cmd *cli.Command) (*Clients, error) {
	opts := []aws.Option{
		aws.WithRetryer(func() awsv2.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), maxAttempts)
		}),
	}
	if p := cmd.String("profile"); p != "" {
		opts = append(opts, aws.WithProfile(p))
	}
	if r := cmd.String("region"); r != "" {
		opts = append(opts, aws.WithRegion(r))
	}

	cfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &Clients{
		Region: cfg.Region,
		S3:     aws.NewS3(cfg),
		SFN:    aws.NewSFN(cfg),
		CFN:    aws.NewCloudFormation(cfg),
	}, nil
}

// configPath resolves --config.
func configPath(cmd *cli.Command) (util.ConfigPath, error) {
	return util.ParseConfigPath(cmd.String("config"))
}

// loadPipeline loads --config as a pipeline declaration.
func loadPipeline(cmd *cli.Command) (*pipeline.Declaration, error) {
	cp, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	if cp.IsDir || !isYAML(cp.Path) {
		return nil, fmt.Errorf("%w: %s", ErrNotAPipeline, cp.Path)
	}
	return pipeline.Load(cp.Path)
}

// packageRoot is where the project wheel is built: the pipeline's
// project_root for yaml configs, the config's directory for CDK apps.
func packageRoot(cmd *cli.Command) (string, error) {
	cp, err := configPath(cmd)
	if err != nil {
		return "", err
	}
	if cp.IsDir || !isYAML(cp.Path) {
		return cp.ProjectRoot, nil
	}

	d, err := pipeline.Load(cp.Path)
	if err != nil {
		return "", err
	}
	return d.ProjectRoot, nil
}

// stackName is --stack, or the unique stack name of the --config pipeline.
func stackName(cmd *cli.Command) (string, error) {
	if s := cmd.String("stack"); s != "" {
		return s, nil
	}
	if cmd.String("config") == "" {
		return "", errors.New("either --stack or --config is required")
	}

	d, err := loadPipeline(cmd)
	if err != nil {
		if errors.Is(err, ErrNotAPipeline) {
			return "", fmt.Errorf("%w, or pass --stack", err)
		}
		return "", err
	}
	return stack.UniqueStackName(d.ID, cmd.String("stage")), nil
}

// cdkExtra collects the arguments passed through to cdk: cdk.args from the
// config file followed by the command's positional arguments.
func cdkExtra(cmd *cli.Command) ([]string, error) {
	var raw []string
	if args, err := config.GetStringSlice("cdk.args"); err == nil {
		raw = append(raw, args...)
	} else if arg, err := config.GetString("cdk.args"); err == nil {
		raw = append(raw, arg)
	}

	extra, err := cdk.ParseExtra(raw...)
	if err != nil {
		return nil, err
	}
	return append(extra, cmd.Args().Slice()...), nil
}

// runCDK runs `cdk <command>` for the --config app from its project root.
func runCDK(ctx context.Context, cmd *cli.Command, command string) error {
	m := GetMeta(cmd)

	cp, err := configPath(cmd)
	if err != nil {
		return err
	}

	app, err := cdk.AppCommand(cp.Path, m.Executable)
	if err != nil {
		return err
	}

	extra, err := cdkExtra(cmd)
	if err != nil {
		return err
	}

	args := cdk.Args(command, app, cmd.String("stage"), extra)
	return newCDKRunner(cmd.String("cdk")).Run(ctx, cp.ProjectRoot, args)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
