// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/packaging"
	"github.com/LorenzoCevolani/datajob/internal/util"
)

var stageRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// GlobalFlagsValidator checks flag combinations that single flag validators
// cannot see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.String("output") == "raw" && c.String("filter") != "" {
		return fmt.Errorf("--filter has no effect with --output raw")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	if s, ok := value.(string); !ok || !slices.Contains(validOutputFlagValues, s) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

// StageValidator accepts what can be embedded in S3 bucket and stack names.
func StageValidator(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !stageRegex.MatchString(s) {
		return fmt.Errorf("stage %q must be lowercase letters, digits and hyphens", s)
	}
	return nil
}

func PackageValidator(value any) error {
	s, _ := value.(string)
	if s == "" || slices.Contains(packaging.Packagers, s) {
		return nil
	}
	return fmt.Errorf("must be one of %v", packaging.Packagers)
}

// ConfigValidator requires an existing, non-empty config.
func ConfigValidator(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := util.ParseConfigPath(s)
	return err
}

func joinQuoted(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
