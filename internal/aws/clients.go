// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"

	cfnv2 "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	sfnv2 "github.com/aws/aws-sdk-go-v2/service/sfn"
)

// S3API is the subset of the S3 client used to empty buckets.
type S3API interface {
	ListObjectVersions(ctx context.Context, params *s3v2.ListObjectVersionsInput, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3v2.DeleteObjectsInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error)
}

// SFNAPI is the subset of the Step Functions client used by execute,
// executions and definition.
type SFNAPI interface {
	ListStateMachines(ctx context.Context, params *sfnv2.ListStateMachinesInput, optFns ...func(*sfnv2.Options)) (*sfnv2.ListStateMachinesOutput, error)
	DescribeStateMachine(ctx context.Context, params *sfnv2.DescribeStateMachineInput, optFns ...func(*sfnv2.Options)) (*sfnv2.DescribeStateMachineOutput, error)
	StartExecution(ctx context.Context, params *sfnv2.StartExecutionInput, optFns ...func(*sfnv2.Options)) (*sfnv2.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, params *sfnv2.DescribeExecutionInput, optFns ...func(*sfnv2.Options)) (*sfnv2.DescribeExecutionOutput, error)
	ListExecutions(ctx context.Context, params *sfnv2.ListExecutionsInput, optFns ...func(*sfnv2.Options)) (*sfnv2.ListExecutionsOutput, error)
}

// CloudFormationAPI is the subset of the CloudFormation client used to read
// stack outputs.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cfnv2.DescribeStacksInput, optFns ...func(*cfnv2.Options)) (*cfnv2.DescribeStacksOutput, error)
}

var (
	_ S3API             = (*s3v2.Client)(nil)
	_ SFNAPI            = (*sfnv2.Client)(nil)
	_ CloudFormationAPI = (*cfnv2.Client)(nil)
)
