// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	sfnv2 "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LorenzoCevolani/datajob/internal/config"
)

type fakeSFN struct {
	machines   []types.StateMachineListItem
	listCalls  int
	executions []types.ExecutionListItem
	statuses   []types.ExecutionStatus
	describes  int
	started    *sfnv2.StartExecutionInput
	definition string
}

func (f *fakeSFN) ListStateMachines(_ context.Context, in *sfnv2.ListStateMachinesInput, _ ...func(*sfnv2.Options)) (*sfnv2.ListStateMachinesOutput, error) {
	f.listCalls++
	start := 0
	if in.NextToken != nil {
		start, _ = strconv.Atoi(*in.NextToken)
	}
	end := min(start+1, len(f.machines))
	out := &sfnv2.ListStateMachinesOutput{StateMachines: f.machines[start:end]}
	if end < len(f.machines) {
		out.NextToken = awsv2.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeSFN) DescribeStateMachine(_ context.Context, in *sfnv2.DescribeStateMachineInput, _ ...func(*sfnv2.Options)) (*sfnv2.DescribeStateMachineOutput, error) {
	if f.definition == "" {
		return nil, errors.New("StateMachineDoesNotExist")
	}
	return &sfnv2.DescribeStateMachineOutput{StateMachineArn: in.StateMachineArn, Definition: awsv2.String(f.definition)}, nil
}

func (f *fakeSFN) StartExecution(_ context.Context, in *sfnv2.StartExecutionInput, _ ...func(*sfnv2.Options)) (*sfnv2.StartExecutionOutput, error) {
	f.started = in
	now := time.Now()
	return &sfnv2.StartExecutionOutput{
		ExecutionArn: awsv2.String(awsv2.ToString(in.StateMachineArn) + ":exec-1"),
		StartDate:    &now,
	}, nil
}

func (f *fakeSFN) DescribeExecution(_ context.Context, in *sfnv2.DescribeExecutionInput, _ ...func(*sfnv2.Options)) (*sfnv2.DescribeExecutionOutput, error) {
	idx := min(f.describes, len(f.statuses)-1)
	f.describes++
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := &sfnv2.DescribeExecutionOutput{
		ExecutionArn: in.ExecutionArn,
		Status:       f.statuses[idx],
		StartDate:    &start,
	}
	if f.statuses[idx] != types.ExecutionStatusRunning {
		stop := start.Add(90 * time.Second)
		out.StopDate = &stop
	}
	if f.statuses[idx] == types.ExecutionStatusFailed {
		out.Error = awsv2.String("States.TaskFailed")
		out.Cause = awsv2.String("glue job failed")
	}
	return out, nil
}

func (f *fakeSFN) ListExecutions(_ context.Context, in *sfnv2.ListExecutionsInput, _ ...func(*sfnv2.Options)) (*sfnv2.ListExecutionsOutput, error) {
	start := 0
	if in.NextToken != nil {
		start, _ = strconv.Atoi(*in.NextToken)
	}
	end := min(start+int(in.MaxResults), len(f.executions))
	out := &sfnv2.ListExecutionsOutput{Executions: f.executions[start:end]}
	if end < len(f.executions) {
		out.NextToken = awsv2.String(strconv.Itoa(end))
	}
	return out, nil
}

func isolateCache(t *testing.T) {
	t.Helper()
	t.Setenv("DATAJOB_CACHE_DIR", t.TempDir())
	t.Setenv("DATAJOB_CACHE", "")
	t.Setenv("DATAJOB_CFG_FILE", filepath.Join(t.TempDir(), "none.yaml"))
	config.Config = config.Type{}
}

func machines(names ...string) []types.StateMachineListItem {
	var out []types.StateMachineListItem
	for _, n := range names {
		out = append(out, types.StateMachineListItem{
			Name:            awsv2.String(n),
			StateMachineArn: awsv2.String("arn:aws:states:eu-west-1:111111111111:stateMachine:" + n),
		})
	}
	return out
}

func TestResolveStateMachineARN(t *testing.T) {
	isolateCache(t)
	api := &fakeSFN{machines: machines("p-dev-a", "p-dev-workflow", "p-dev-c")}

	arn, err := ResolveStateMachineARN(context.Background(), api, "eu-west-1", "p-dev-workflow")
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:states:eu-west-1:111111111111:stateMachine:p-dev-workflow", arn)
	assert.Equal(t, 2, api.listCalls, "stops paging once found")

	api.listCalls = 0
	cached, err := ResolveStateMachineARN(context.Background(), api, "eu-west-1", "p-dev-workflow")
	require.NoError(t, err)
	assert.Equal(t, arn, cached)
	assert.Zero(t, api.listCalls, "second lookup is served from cache")

	require.NoError(t, Forget("eu-west-1", "p-dev-workflow"))
	_, err = ResolveStateMachineARN(context.Background(), api, "eu-west-1", "p-dev-workflow")
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)
}

func TestPurgeCache(t *testing.T) {
	isolateCache(t)
	cfg := filepath.Join(t.TempDir(), "datajob.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("cache:\n  clean: 1\n"), 0o600))
	t.Setenv("DATAJOB_CFG_FILE", cfg)
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	dir := os.Getenv("DATAJOB_CACHE_DIR")
	stale := filepath.Join(dir, "stale")
	fresh := filepath.Join(dir, "fresh")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	require.NoError(t, PurgeCache())
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestResolveStateMachineARN_NotFound(t *testing.T) {
	isolateCache(t)
	api := &fakeSFN{machines: machines("a", "b")}

	_, err := ResolveStateMachineARN(context.Background(), api, "eu-west-1", "missing")
	assert.ErrorIs(t, err, ErrStateMachineNotFound)
	assert.Equal(t, 2, api.listCalls)
}

func TestResolveStateMachineARN_PassesARNThrough(t *testing.T) {
	api := &fakeSFN{}
	arn := "arn:aws:states:eu-west-1:111111111111:stateMachine:x"

	got, err := ResolveStateMachineARN(context.Background(), api, "eu-west-1", arn)
	require.NoError(t, err)
	assert.Equal(t, arn, got)
	assert.Zero(t, api.listCalls)
}

func TestResolveStateMachineARN_CacheDisabled(t *testing.T) {
	isolateCache(t)
	t.Setenv("DATAJOB_CACHE", "0")
	api := &fakeSFN{machines: machines("wf")}

	for range 2 {
		_, err := ResolveStateMachineARN(context.Background(), api, "eu-west-1", "wf")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, api.listCalls)
}

func TestStart(t *testing.T) {
	api := &fakeSFN{}
	arn := "arn:aws:states:eu-west-1:111111111111:stateMachine:wf"

	st, err := Start(context.Background(), api, arn, "", "")
	require.NoError(t, err)
	assert.Equal(t, arn+":exec-1", st.ARN)
	assert.True(t, st.Running())
	assert.Equal(t, "{}", *api.started.Input)
	assert.Nil(t, api.started.Name)

	_, err = Start(context.Background(), api, arn, "run-42", `{"date": "2026-01-01"}`)
	require.NoError(t, err)
	assert.Equal(t, "run-42", *api.started.Name)
	assert.Equal(t, `{"date": "2026-01-01"}`, *api.started.Input)

	_, err = Start(context.Background(), api, arn, "", `{"date": `)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConsoleURL(t *testing.T) {
	assert.Equal(t,
		"https://eu-west-1.console.aws.amazon.com/states/home?region=eu-west-1#/executions/details/arn:aws:states:eu-west-1:1:execution:wf:x",
		ConsoleURL("eu-west-1", "arn:aws:states:eu-west-1:1:execution:wf:x"))
}

func TestWait(t *testing.T) {
	tests := []struct {
		name     string
		statuses []types.ExecutionStatus
		want     string
		wantErr  error
		ticks    int
	}{
		{
			name:     "succeeds after polling",
			statuses: []types.ExecutionStatus{types.ExecutionStatusRunning, types.ExecutionStatusRunning, types.ExecutionStatusSucceeded},
			want:     "SUCCEEDED",
			ticks:    3,
		},
		{
			name:     "fails",
			statuses: []types.ExecutionStatus{types.ExecutionStatusRunning, types.ExecutionStatusFailed},
			want:     "FAILED",
			wantErr:  ErrExecutionFailed,
			ticks:    2,
		},
		{
			name:     "aborted",
			statuses: []types.ExecutionStatus{types.ExecutionStatusAborted},
			want:     "ABORTED",
			wantErr:  ErrExecutionFailed,
			ticks:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSFN{statuses: tt.statuses}
			ticks := 0

			st, err := Wait(context.Background(), api, "arn:exec", time.Millisecond, func(Status) { ticks++ })
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 90*time.Second, st.Duration())
			}
			assert.Equal(t, tt.want, st.Status)
			assert.Equal(t, tt.ticks, ticks)
		})
	}
}

func TestWait_FailureCarriesCause(t *testing.T) {
	api := &fakeSFN{statuses: []types.ExecutionStatus{types.ExecutionStatusFailed}}
	_, err := Wait(context.Background(), api, "arn:exec", time.Millisecond, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "States.TaskFailed glue job failed")
}

func TestWait_ContextCancelled(t *testing.T) {
	api := &fakeSFN{statuses: []types.ExecutionStatus{types.ExecutionStatusRunning}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	st, err := Wait(ctx, api, "arn:exec", time.Hour, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, st.Running())
}

func TestList(t *testing.T) {
	var execs []types.ExecutionListItem
	for i := range 5 {
		start := time.Date(2026, 1, 1, i, 0, 0, 0, time.UTC)
		execs = append(execs, types.ExecutionListItem{
			ExecutionArn: awsv2.String(fmt.Sprintf("arn:exec:%d", i)),
			Name:         awsv2.String(fmt.Sprintf("exec-%d", i)),
			Status:       types.ExecutionStatusSucceeded,
			StartDate:    &start,
		})
	}
	api := &fakeSFN{executions: execs}

	got, err := List(context.Background(), api, "arn:sm", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "exec-0", got[0].Name)
	assert.Equal(t, "SUCCEEDED", got[2].Status)

	all, err := List(context.Background(), api, "arn:sm", 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDefinition(t *testing.T) {
	api := &fakeSFN{definition: `{"StartAt":"a"}`}
	def, err := Definition(context.Background(), api, "arn:sm")
	require.NoError(t, err)
	assert.Equal(t, `{"StartAt":"a"}`, def)

	_, err = Definition(context.Background(), &fakeSFN{}, "arn:sm")
	assert.Error(t, err)
}

func TestStatusDuration(t *testing.T) {
	assert.Zero(t, Status{}.Duration())
	start := time.Now().Add(-5 * time.Second)
	assert.GreaterOrEqual(t, Status{Start: start}.Duration(), 4*time.Second)
}
