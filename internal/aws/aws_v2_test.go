// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"path/filepath"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	cfnv2 "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	sfnv2 "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateAWSEnv keeps the developer's shared config out of the tests.
func isolateAWSEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
}

func TestOptions(t *testing.T) {
	var opts options
	WithProfile("data-team")(&opts)
	WithRegion("eu-west-1")(&opts)
	WithRetryer(func() awsv2.Retryer { return retry.NewStandard() })(&opts)

	assert.Equal(t, "data-team", opts.profile)
	assert.Equal(t, "eu-west-1", opts.region)
	require.NotNil(t, opts.retryer)
	assert.NotNil(t, opts.retryer())
}

func TestLoadAWSConfig_NoOptions(t *testing.T) {
	isolateAWSEnv(t)

	cfg, err := LoadAWSConfig(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, cfg.Region)
}

func TestLoadAWSConfig_WithRegion(t *testing.T) {
	isolateAWSEnv(t)

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("us-east-2"))
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", cfg.Region)
}

func TestLoadAWSConfig_OptionsOrder(t *testing.T) {
	isolateAWSEnv(t)

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("us-east-1"), WithRegion("eu-west-1"))
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestLoadAWSConfig_MissingProfile(t *testing.T) {
	isolateAWSEnv(t)

	_, err := LoadAWSConfig(context.Background(), WithProfile("does-not-exist"))
	assert.Error(t, err)
}

func TestNewClients(t *testing.T) {
	isolateAWSEnv(t)

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("us-east-1"))
	require.NoError(t, err)

	assert.IsType(t, &s3v2.Client{}, NewS3(cfg))
	assert.IsType(t, &sfnv2.Client{}, NewSFN(cfg))
	assert.IsType(t, &cfnv2.Client{}, NewCloudFormation(cfg))
}
