// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfnv2 "github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// StackOutputs returns the outputs of a deployed CloudFormation stack keyed by
// output key, together with the stack status.
func StackOutputs(ctx context.Context, api CloudFormationAPI, stackName string) (map[string]string, string, error) {
	out, err := api.DescribeStacks(ctx, &cfnv2.DescribeStacksInput{StackName: awsv2.String(stackName)})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe stack %s: %w", stackName, err)
	}
	if len(out.Stacks) == 0 {
		return nil, "", fmt.Errorf("stack %s not found", stackName)
	}

	stack := out.Stacks[0]
	outputs := make(map[string]string, len(stack.Outputs))
	for _, o := range stack.Outputs {
		outputs[awsv2.ToString(o.OutputKey)] = awsv2.ToString(o.OutputValue)
	}
	return outputs, string(stack.StackStatus), nil
}
