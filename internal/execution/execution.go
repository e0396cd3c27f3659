// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

// Package execution starts and follows Step Functions executions of a
// deployed workflow.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	sfnv2 "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/tidwall/gjson"

	"github.com/LorenzoCevolani/datajob/internal/aws"
	"github.com/LorenzoCevolani/datajob/internal/cacheutil"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/log"
)

const (
	// ARNCacheTTL bounds how long a resolved state machine ARN is trusted.
	ARNCacheTTL = 24 * time.Hour

	maxListPage = 1000
)

var (
	ErrStateMachineNotFound = errors.New("state machine not found")
	ErrInvalidInput         = errors.New("execution input is not valid JSON")
	ErrExecutionFailed      = errors.New("execution did not succeed")
)

var cacheDirs = []string{"statemachines"}

// Status is a snapshot of an execution.
type Status struct {
	ARN    string
	Name   string
	Status string
	Start  time.Time
	Stop   time.Time
	Error  string
	Cause  string
	Output string
}

// Running reports whether the execution has not reached a terminal state.
func (s Status) Running() bool {
	return s.Status == string(types.ExecutionStatusRunning) || s.Status == string(types.ExecutionStatusPendingRedrive)
}

// Succeeded reports whether the execution ended successfully.
func (s Status) Succeeded() bool {
	return s.Status == string(types.ExecutionStatusSucceeded)
}

// Duration is Stop-Start, or the time since Start while running.
func (s Status) Duration() time.Duration {
	if s.Start.IsZero() {
		return 0
	}
	if s.Stop.IsZero() {
		return time.Since(s.Start).Truncate(time.Second)
	}
	return s.Stop.Sub(s.Start)
}

func cacheKey(region, name string) string {
	return region + "/" + name
}

// ResolveStateMachineARN returns the ARN of the state machine called name.
// ARNs are returned as is.
func ResolveStateMachineARN(ctx context.Context, api aws.SFNAPI, region, name string) (string, error) {
	if strings.HasPrefix(name, "arn:") {
		return name, nil
	}

	key := cacheKey(region, name)
	if e, ok := cacheutil.ReadFresh(cacheDirs, key, ARNCacheTTL); ok && len(e.Data) > 0 {
		return string(e.Data), nil
	}

	p := sfnv2.NewListStateMachinesPaginator(api, &sfnv2.ListStateMachinesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list state machines: %w", err)
		}
		for _, sm := range page.StateMachines {
			if awsv2.ToString(sm.Name) != name {
				continue
			}
			arn := awsv2.ToString(sm.StateMachineArn)
			if err := cacheutil.Write(cacheDirs, key, []byte(arn)); err != nil {
				log.WithError(err).Warnf("failed to cache state machine arn")
			}
			if err := PurgeCache(); err != nil {
				log.WithError(err).Warnf("failed to purge cache")
			}
			return arn, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrStateMachineNotFound, name)
}

// PurgeCache removes cache entries older than the cache.clean hours setting.
func PurgeCache() error {
	cleanHours, _ := config.GetInt("cache.clean")
	return cacheutil.Purge(cleanHours)
}

// Forget drops a cached ARN, for state machines that were redeployed.
func Forget(region, name string) error {
	return cacheutil.Delete(cacheDirs, cacheKey(region, name))
}

// Start starts an execution of arn. Empty input means "{}".
func Start(ctx context.Context, api aws.SFNAPI, arn, name, input string) (Status, error) {
	if strings.TrimSpace(input) == "" {
		input = "{}"
	}
	if !gjson.Valid(input) {
		return Status{}, fmt.Errorf("%w: %s", ErrInvalidInput, input)
	}

	in := &sfnv2.StartExecutionInput{
		StateMachineArn: awsv2.String(arn),
		Input:           awsv2.String(input),
	}
	if name != "" {
		in.Name = awsv2.String(name)
	}

	out, err := api.StartExecution(ctx, in)
	if err != nil {
		return Status{}, fmt.Errorf("failed to start execution: %w", err)
	}

	log.Debugf("started execution %s", awsv2.ToString(out.ExecutionArn))
	return Status{
		ARN:    awsv2.ToString(out.ExecutionArn),
		Name:   name,
		Status: string(types.ExecutionStatusRunning),
		Start:  awsv2.ToTime(out.StartDate),
	}, nil
}

// ConsoleURL links to the execution in the AWS console.
func ConsoleURL(region, executionARN string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/states/home?region=%s#/executions/details/%s", region, region, executionARN)
}

// Describe returns the current status of an execution.
func Describe(ctx context.Context, api aws.SFNAPI, executionARN string) (Status, error) {
	out, err := api.DescribeExecution(ctx, &sfnv2.DescribeExecutionInput{ExecutionArn: awsv2.String(executionARN)})
	if err != nil {
		return Status{}, fmt.Errorf("failed to describe execution: %w", err)
	}
	return Status{
		ARN:    executionARN,
		Name:   awsv2.ToString(out.Name),
		Status: string(out.Status),
		Start:  awsv2.ToTime(out.StartDate),
		Stop:   awsv2.ToTime(out.StopDate),
		Error:  awsv2.ToString(out.Error),
		Cause:  awsv2.ToString(out.Cause),
		Output: awsv2.ToString(out.Output),
	}, nil
}

// Wait polls the execution every interval until it stops running or ctx is
// done. onTick, when set, sees every snapshot.
func Wait(ctx context.Context, api aws.SFNAPI, executionARN string, interval time.Duration, onTick func(Status)) (Status, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	for {
		st, err := Describe(ctx, api, executionARN)
		if err != nil {
			return st, err
		}
		if onTick != nil {
			onTick(st)
		}
		if !st.Running() {
			if !st.Succeeded() {
				return st, fmt.Errorf("%w: %s %s", ErrExecutionFailed, st.Status, strings.TrimSpace(st.Error+" "+st.Cause))
			}
			return st, nil
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return st, ctx.Err()
		case <-t.C:
		}
	}
}

// List returns up to limit recent executions of arn, newest first.
func List(ctx context.Context, api aws.SFNAPI, arn string, limit int) ([]Status, error) {
	if limit <= 0 {
		limit = 10
	}

	page := int32(min(limit, maxListPage))
	p := sfnv2.NewListExecutionsPaginator(api, &sfnv2.ListExecutionsInput{
		StateMachineArn: awsv2.String(arn),
		MaxResults:      page,
	})

	var out []Status
	for p.HasMorePages() && len(out) < limit {
		res, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list executions: %w", err)
		}
		for _, e := range res.Executions {
			out = append(out, Status{
				ARN:    awsv2.ToString(e.ExecutionArn),
				Name:   awsv2.ToString(e.Name),
				Status: string(e.Status),
				Start:  awsv2.ToTime(e.StartDate),
				Stop:   awsv2.ToTime(e.StopDate),
			})
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Definition returns the deployed ASL document of arn.
func Definition(ctx context.Context, api aws.SFNAPI, arn string) (string, error) {
	out, err := api.DescribeStateMachine(ctx, &sfnv2.DescribeStateMachineInput{StateMachineArn: awsv2.String(arn)})
	if err != nil {
		return "", fmt.Errorf("failed to describe state machine: %w", err)
	}
	return awsv2.ToString(out.Definition), nil
}
