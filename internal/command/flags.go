// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/cdk"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/packaging"
)

// NewGlobalFlags returns the output flags shared by the query style commands
// (executions, describe). params[0], when given, is the config namespace.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	output := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output format",
		Value:   "text",
		Validator: func(value string) error {
			return FlagValidators(value, OutputValidator)
		},
	}
	color := &cli.BoolFlag{
		Name:    "color",
		Aliases: []string{"c"},
		Usage:   "enable colored text output",
		Value:   false,
	}
	if len(params) > 0 {
		nameSpacedSources(&output.Sources, params[0], output.Name)
		nameSpacedSources(&color.Sources, params[0], color.Name)
	}

	flags = []cli.Flag{
		color,
		output,
		&cli.StringFlag{
			Name:  "columns",
			Usage: "comma-separated list of columns to add, update or hide (!col)",
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATAJOB_FILTER")),
		},
		&cli.IntFlag{
			Name:   "padding",
			Usage:  "cell padding for text output",
			Value:  2,
			Hidden: true,
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort the results by",
		},
		&cli.BoolFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Value:   false,
		},
	}

	return
}

// NewConfigFlag is the pipeline or CDK app the command works on.
func NewConfigFlag(ns string, required bool) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:     "config",
		Usage:    "pipeline yaml, Go CDK app (file or package directory) or python stack",
		Required: required,
		Sources:  cli.NewValueSourceChain(cli.EnvVar("DATAJOB_CONFIG")),
		Validator: func(value string) error {
			return FlagValidators(value, ConfigValidator)
		},
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, config.Path(), flag)
}

// NewStageFlag is the deployment stage, suffixed to every resource name.
func NewStageFlag(ns string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "stage",
		Usage:   "deployment stage, e.g. dev or prd",
		Sources: cli.NewValueSourceChain(cli.EnvVar("DATAJOB_STAGE")),
		Validator: func(value string) error {
			return FlagValidators(value, StageValidator)
		},
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, config.Path(), flag)
}

// NewPackageFlag selects how the project wheel is built before deploy.
func NewPackageFlag(ns string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:  "package",
		Usage: "build the project wheel first, one of " + joinQuoted(packaging.Packagers),
		Validator: func(value string) error {
			return FlagValidators(value, PackageValidator)
		},
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, config.Path(), flag)
}

// NewCDKFlag is the cdk executable. Its config key is cdk.binary since cdk
// also holds cdk.args.
func NewCDKFlag(ns string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "cdk",
		Usage:   "cdk executable",
		Value:   cdk.DefaultBinary,
		Hidden:  pathHas(cdk.DefaultBinary),
		Sources: cli.NewValueSourceChain(cli.EnvVar("DATAJOB_CDK")),
	}
	nameSpacedSources(&flag.Sources, ns, "cdk.binary")
	return flag
}

// NewAWSFlags returns the profile and region flags of commands calling AWS
// directly.
func NewAWSFlags(ns string) []cli.Flag {
	profile := &cli.StringFlag{
		Name:    "profile",
		Usage:   "AWS shared config profile",
		Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_PROFILE")),
	}
	region := &cli.StringFlag{
		Name:  "region",
		Usage: "AWS region. Overrides the profile",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("AWS_REGION"),
			cli.EnvVar("AWS_DEFAULT_REGION"),
		),
	}
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, config.Path(), profile),
		NameSpacedValueChainFlagFromConfigFile(ns, config.Path(), region),
	}
}

// NewStateMachineFlag names the deployed state machine to work on.
func NewStateMachineFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "state-machine",
		Aliases:  []string{"m"},
		Usage:    "state machine name or ARN",
		Required: true,
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	if path == "" {
		return flag
	}

	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// nameSpacedSources is NameSpacedValueChainFlagFromConfigFile for flags that
// are not strings.
func nameSpacedSources(chain *cli.ValueSourceChain, ns, name string) {
	path := config.Path()
	if path == "" {
		return
	}
	chain.Chain = append(chain.Chain,
		yaml.YAML(ns+"."+name, altsrc.StringSourcer(path)),
		yaml.YAML(name, altsrc.StringSourcer(path)),
	)
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
