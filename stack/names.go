// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// deploymentBucketSuffix is appended to the unique stack name to name the
// deployment bucket.
const deploymentBucketSuffix = "-deployment-bucket"

var bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// UniqueStackName returns "<id>-<stage>", or id when stage is empty.
func UniqueStackName(id, stage string) string {
	if stage == "" {
		return id
	}
	return id + "-" + stage
}

// UniqueResourceName returns the name a job or workflow gets inside a stack.
func UniqueResourceName(uniqueStackName, name string) string {
	return uniqueStackName + "-" + name
}

// BucketNames returns the data and deployment bucket names for a unique stack
// name. Both must be valid S3 bucket names.
func BucketNames(uniqueStackName string) (data, deployment string, err error) {
	data = uniqueStackName
	deployment = uniqueStackName + deploymentBucketSuffix

	for _, name := range []string{data, deployment} {
		if err := ValidateBucketName(name); err != nil {
			return "", "", err
		}
	}
	return data, deployment, nil
}

// ValidateBucketName checks name against the S3 bucket naming rules.
func ValidateBucketName(name string) error {
	switch {
	case !bucketNameRegex.MatchString(name):
		return fmt.Errorf("%w: %q must be 3-63 lowercase letters, digits, dots or hyphens", ErrInvalidBucketName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains consecutive dots", ErrInvalidBucketName, name)
	case net.ParseIP(name) != nil:
		return fmt.Errorf("%w: %q is formatted as an IP address", ErrInvalidBucketName, name)
	}
	return nil
}
