// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfnv2 "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	sfnv2 "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/cdk"
	"github.com/LorenzoCevolani/datajob/internal/config"
	"github.com/LorenzoCevolani/datajob/internal/execution"
	"github.com/LorenzoCevolani/datajob/internal/packaging"
	"github.com/LorenzoCevolani/datajob/internal/pipeline"
	"github.com/LorenzoCevolani/datajob/internal/ui"
	"github.com/LorenzoCevolani/datajob/stepfunctions"
)

const (
	pipelineFile = "testdata/pipeline/datajob.yaml"
	nightlyARN   = "arn:aws:states:eu-west-1:123456789012:stateMachine:sales-dev-nightly"
	topicARN     = "arn:aws:sns:eu-west-1:123456789012:sales-dev-nightly"
)

type fakeCDK struct {
	binary string
	dir    string
	args   []string
	calls  int
}

func (f *fakeCDK) Run(_ context.Context, dir string, args []string) error {
	f.dir, f.args = dir, args
	f.calls++
	return nil
}

type fakePackager struct {
	dir  string
	name string
	args []string
}

func (f *fakePackager) Run(_ context.Context, dir, name string, args ...string) error {
	f.dir, f.name, f.args = dir, name, args
	return nil
}

type fakeSFN struct {
	machines   map[string]string
	definition string
	started    *sfnv2.StartExecutionInput
	statuses   []types.ExecutionStatus
	described  int
	executions []types.ExecutionListItem
}

func (f *fakeSFN) ListStateMachines(_ context.Context, _ *sfnv2.ListStateMachinesInput, _ ...func(*sfnv2.Options)) (*sfnv2.ListStateMachinesOutput, error) {
	out := &sfnv2.ListStateMachinesOutput{}
	for name, arn := range f.machines {
		out.StateMachines = append(out.StateMachines, types.StateMachineListItem{
			Name:            awsv2.String(name),
			StateMachineArn: awsv2.String(arn),
		})
	}
	return out, nil
}

func (f *fakeSFN) DescribeStateMachine(_ context.Context, _ *sfnv2.DescribeStateMachineInput, _ ...func(*sfnv2.Options)) (*sfnv2.DescribeStateMachineOutput, error) {
	return &sfnv2.DescribeStateMachineOutput{Definition: awsv2.String(f.definition)}, nil
}

func (f *fakeSFN) StartExecution(_ context.Context, in *sfnv2.StartExecutionInput, _ ...func(*sfnv2.Options)) (*sfnv2.StartExecutionOutput, error) {
	f.started = in
	return &sfnv2.StartExecutionOutput{
		ExecutionArn: awsv2.String("arn:aws:states:eu-west-1:123456789012:execution:sales-dev-nightly:run-1"),
		StartDate:    awsv2.Time(time.Now()),
	}, nil
}

func (f *fakeSFN) DescribeExecution(_ context.Context, in *sfnv2.DescribeExecutionInput, _ ...func(*sfnv2.Options)) (*sfnv2.DescribeExecutionOutput, error) {
	st := f.statuses[min(f.described, len(f.statuses)-1)]
	f.described++

	start := time.Now().Add(-time.Minute)
	out := &sfnv2.DescribeExecutionOutput{
		ExecutionArn: in.ExecutionArn,
		Name:         awsv2.String("run-1"),
		Status:       st,
		StartDate:    awsv2.Time(start),
	}
	if st != types.ExecutionStatusRunning {
		out.StopDate = awsv2.Time(start.Add(30 * time.Second))
	}
	if st == types.ExecutionStatusFailed {
		out.Error = awsv2.String("States.TaskFailed")
	}
	return out, nil
}

func (f *fakeSFN) ListExecutions(_ context.Context, _ *sfnv2.ListExecutionsInput, _ ...func(*sfnv2.Options)) (*sfnv2.ListExecutionsOutput, error) {
	return &sfnv2.ListExecutionsOutput{Executions: f.executions}, nil
}

type fakeCFN struct {
	stackName string
	outputs   map[string]string
}

func (f *fakeCFN) DescribeStacks(_ context.Context, in *cfnv2.DescribeStacksInput, _ ...func(*cfnv2.Options)) (*cfnv2.DescribeStacksOutput, error) {
	f.stackName = awsv2.ToString(in.StackName)
	s := cfntypes.Stack{StackName: in.StackName, StackStatus: cfntypes.StackStatusCreateComplete}
	for k, v := range f.outputs {
		s.Outputs = append(s.Outputs, cfntypes.Output{OutputKey: awsv2.String(k), OutputValue: awsv2.String(v)})
	}
	return &cfnv2.DescribeStacksOutput{Stacks: []cfntypes.Stack{s}}, nil
}

type fakeS3 struct {
	mu     sync.Mutex
	listed []string
}

func (f *fakeS3) ListObjectVersions(_ context.Context, in *s3v2.ListObjectVersionsInput, _ ...func(*s3v2.Options)) (*s3v2.ListObjectVersionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, awsv2.ToString(in.Bucket))
	return &s3v2.ListObjectVersionsOutput{IsTruncated: awsv2.Bool(false)}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, _ *s3v2.DeleteObjectsInput, _ ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error) {
	return &s3v2.DeleteObjectsOutput{}, nil
}

type fakes struct {
	cdk      *fakeCDK
	packager *fakePackager
	sfn      *fakeSFN
	cfn      *fakeCFN
	s3       *fakeS3
}

// setup points the user config at testdata and swaps every external seam
// for a fake.
func setup(t *testing.T) *fakes {
	t.Helper()

	cfg, err := filepath.Abs(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	t.Setenv("DATAJOB_CFG_FILE", cfg)
	t.Setenv("DATAJOB_CACHE", "0")
	t.Setenv("DATAJOB_CACHE_DIR", t.TempDir())
	t.Setenv("DATAJOB_PYTHON", "python3")
	t.Setenv("DATAJOB_STAGE", "")
	t.Setenv("DATAJOB_CONFIG", "")
	config.Config = config.Type{}

	f := &fakes{
		cdk:      &fakeCDK{},
		packager: &fakePackager{},
		sfn: &fakeSFN{
			machines: map[string]string{"sales-dev-nightly": nightlyARN},
			statuses: []types.ExecutionStatus{types.ExecutionStatusRunning, types.ExecutionStatusSucceeded},
		},
		cfn: &fakeCFN{outputs: map[string]string{
			"DataBucketName":          "sales-dev",
			"DeploymentBucketName":    "sales-dev-deployment-bucket",
			"StateMachineNameNightly": "sales-dev-nightly",
		}},
		s3: &fakeS3{},
	}

	oldClients, oldRunner, oldPackager, oldSpin, oldSelect := newClients, newCDKRunner, packagingRunner, spin, selectWorkflow
	newClients = func(context.Context, *cli.Command) (*Clients, error) {
		return &Clients{Region: "eu-west-1", S3: f.s3, SFN: f.sfn, CFN: f.cfn}, nil
	}
	newCDKRunner = func(binary string) cdk.Runner {
		f.cdk.binary = binary
		return f.cdk
	}
	packagingRunner = f.packager
	spin = ui.Lines
	selectWorkflow = func(names []string) (string, error) { return names[len(names)-1], nil }

	t.Cleanup(func() {
		newClients, newCDKRunner, packagingRunner, spin, selectWorkflow = oldClients, oldRunner, oldPackager, oldSpin, oldSelect
		config.Config = config.Type{}
	})
	return f
}

// run executes datajob with args and returns what it wrote to stdout and
// stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	full := append([]string{"datajob"}, args...)
	app, err := InitApp(context.Background(), full)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err = app.Run(context.Background(), full)
	return out.String(), errOut.String(), err
}

func projectRoot(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Dir(pipelineFile))
	require.NoError(t, err)
	return abs
}

func TestDeploy(t *testing.T) {
	f := setup(t)

	_, _, err := run(t, "deploy", "--config", pipelineFile, "--", "--force")
	require.NoError(t, err)

	assert.Equal(t, projectRoot(t), f.packager.dir)
	assert.Equal(t, "python3", f.packager.name)
	assert.Equal(t, []string{"setup.py", "bdist_wheel"}, f.packager.args)

	require.Equal(t, 1, f.cdk.calls)
	assert.Equal(t, projectRoot(t), f.cdk.dir)
	assert.Equal(t, cdk.DefaultBinary, f.cdk.binary)
	require.Len(t, f.cdk.args, 8)
	assert.Equal(t, "deploy", f.cdk.args[0])
	assert.Equal(t, "--app", f.cdk.args[1])
	assert.Contains(t, f.cdk.args[2], "app --config ")
	assert.True(t, strings.HasSuffix(f.cdk.args[2], "datajob.yaml"), f.cdk.args[2])
	assert.Equal(t, []string{"-c", "stage=dev", "--require-approval", "never", "--force"}, f.cdk.args[3:])
}

func TestDeploy_ProjectRoot(t *testing.T) {
	f := setup(t)

	dir := t.TempDir()
	root := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pipelines"), 0o755))
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "setup.py"), []byte("from setuptools import setup\n"), 0o600))
	cfg := filepath.Join(dir, "pipelines", "datajob.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("id: x\nproject_root: ../project\n"), 0o600))

	_, _, err := run(t, "deploy", "--config", cfg)
	require.NoError(t, err)

	assert.Equal(t, root, f.packager.dir)
	assert.Equal(t, filepath.Join(dir, "pipelines"), f.cdk.dir)
}

func TestDeploy_MissingSetupPy(t *testing.T) {
	f := setup(t)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "datajob.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("id: x\n"), 0o600))

	_, _, err := run(t, "deploy", "--config", cfg)
	assert.ErrorContains(t, err, "setup.py")
	assert.Zero(t, f.cdk.calls)
}

func TestSynthesize(t *testing.T) {
	for _, name := range []string{"synthesize", "synth"} {
		t.Run(name, func(t *testing.T) {
			f := setup(t)

			_, _, err := run(t, name, "--config", pipelineFile, "--stage", "tst", "--cdk", "npx cdk")
			require.NoError(t, err)

			assert.Empty(t, f.packager.name)
			assert.Equal(t, "npx cdk", f.cdk.binary)
			assert.Equal(t, "synthesize", f.cdk.args[0])
			assert.Equal(t, []string{"-c", "stage=tst", "--require-approval", "never"}, f.cdk.args[3:])
		})
	}
}

func TestSynthesize_InvalidStage(t *testing.T) {
	f := setup(t)

	_, _, err := run(t, "synth", "--config", pipelineFile, "--stage", "Prod_1")
	assert.Error(t, err)
	assert.Zero(t, f.cdk.calls)
}

func TestDestroy(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		f := setup(t)

		_, _, err := run(t, "destroy", "--config", pipelineFile)
		require.NoError(t, err)
		assert.Empty(t, f.s3.listed)
		assert.Equal(t, "destroy", f.cdk.args[0])
	})

	t.Run("empty", func(t *testing.T) {
		f := setup(t)

		_, stderr, err := run(t, "destroy", "--config", pipelineFile, "--empty")
		require.NoError(t, err)
		assert.Equal(t, "sales-dev", f.cfn.stackName)
		assert.ElementsMatch(t, []string{"sales-dev", "sales-dev-deployment-bucket"}, f.s3.listed)
		assert.Contains(t, stderr, "emptying buckets of sales-dev")
		assert.Equal(t, 1, f.cdk.calls)
	})

	t.Run("go app needs stack", func(t *testing.T) {
		f := setup(t)

		_, _, err := run(t, "destroy", "--config", t.TempDir(), "--empty")
		assert.ErrorIs(t, err, ErrNotAPipeline)
		assert.ErrorContains(t, err, "--stack")
		assert.Zero(t, f.cdk.calls)
	})

	t.Run("go app with stack", func(t *testing.T) {
		f := setup(t)

		_, _, err := run(t, "destroy", "--config", t.TempDir(), "--empty", "--stack", "other-prd")
		require.NoError(t, err)
		assert.Equal(t, "other-prd", f.cfn.stackName)
		assert.Contains(t, f.cdk.args[2], "go run")
	})
}

func TestExecute(t *testing.T) {
	f := setup(t)

	out, _, err := run(t, "execute", "--state-machine", "sales-dev-nightly", "--input", `{"day": "2026-01-01"}`)
	require.NoError(t, err)

	require.NotNil(t, f.sfn.started)
	assert.Equal(t, nightlyARN, awsv2.ToString(f.sfn.started.StateMachineArn))
	assert.JSONEq(t, `{"day": "2026-01-01"}`, awsv2.ToString(f.sfn.started.Input))
	assert.Nil(t, f.sfn.started.Name)
	assert.Contains(t, out, "executing: arn:aws:states:eu-west-1:123456789012:execution:sales-dev-nightly:run-1")
	assert.Contains(t, out, "https://eu-west-1.console.aws.amazon.com/states/home?region=eu-west-1#/executions/details/")
	assert.Zero(t, f.sfn.described)
}

func TestExecute_Errors(t *testing.T) {
	t.Run("unknown state machine", func(t *testing.T) {
		setup(t)
		_, _, err := run(t, "execute", "--state-machine", "nope")
		assert.ErrorIs(t, err, execution.ErrStateMachineNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := setup(t)
		_, _, err := run(t, "execute", "--state-machine", "sales-dev-nightly", "--input", "{day")
		assert.ErrorIs(t, err, execution.ErrInvalidInput)
		assert.Nil(t, f.sfn.started)
	})

	t.Run("state machine required", func(t *testing.T) {
		setup(t)
		_, _, err := run(t, "execute")
		assert.Error(t, err)
	})
}

func TestExecute_Wait(t *testing.T) {
	t.Run("succeeded", func(t *testing.T) {
		f := setup(t)

		out, stderr, err := run(t, "execute", "-m", "sales-dev-nightly", "--wait", "--interval", "1ms")
		require.NoError(t, err)
		assert.Equal(t, 2, f.sfn.described)
		assert.Contains(t, stderr, "sales-dev-nightly: RUNNING")
		assert.Contains(t, stderr, "sales-dev-nightly: SUCCEEDED")
		assert.Contains(t, out, "run-1 SUCCEEDED after 30s")
	})

	t.Run("failed", func(t *testing.T) {
		f := setup(t)
		f.sfn.statuses = []types.ExecutionStatus{types.ExecutionStatusFailed}

		out, _, err := run(t, "execute", "-m", "sales-dev-nightly", "--wait", "--interval", "1ms")
		assert.ErrorIs(t, err, execution.ErrExecutionFailed)
		assert.Contains(t, out, "run-1 FAILED")
	})
}

func TestExecutions(t *testing.T) {
	f := setup(t)
	start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	f.sfn.executions = []types.ExecutionListItem{
		{Name: awsv2.String("run-2"), Status: types.ExecutionStatusFailed, ExecutionArn: awsv2.String("arn:2"),
			StartDate: awsv2.Time(start), StopDate: awsv2.Time(start.Add(90 * time.Second))},
		{Name: awsv2.String("run-1"), Status: types.ExecutionStatusSucceeded, ExecutionArn: awsv2.String("arn:1"),
			StartDate: awsv2.Time(start.Add(-time.Hour)), StopDate: awsv2.Time(start.Add(-50 * time.Minute))},
	}

	out, _, err := run(t, "executions", "-m", "sales-dev-nightly", "-o", "json", "--sort", "name")
	require.NoError(t, err)

	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())
	assert.Equal(t, "run-1", gjson.Get(out, "0.name").String())
	assert.Equal(t, "10m0s", gjson.Get(out, "0.duration").String())
	assert.Equal(t, "FAILED", gjson.Get(out, "1.status").String())
	assert.False(t, gjson.Get(out, "0.arn").Exists(), "arn is hidden by default")

	out, _, err = run(t, "executions", "-m", "sales-dev-nightly", "-o", "json", "--filter", "status=FAILED", "--columns", "arn,seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "#").Int())
	assert.Equal(t, "arn:2", gjson.Get(out, "0.arn").String())
	assert.Equal(t, int64(90), gjson.Get(out, "0.seconds").Int())
}

func TestExecutions_RawWithFilter(t *testing.T) {
	setup(t)
	_, _, err := run(t, "executions", "-m", "sales-dev-nightly", "-o", "raw", "--filter", "status=FAILED")
	assert.ErrorContains(t, err, "--filter")
}

func TestDescribe(t *testing.T) {
	f := setup(t)

	out, _, err := run(t, "describe", "--config", pipelineFile, "--stage", "dev", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "sales-dev", f.cfn.stackName)

	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, int64(3), gjson.Get(out, "#").Int())
	assert.Equal(t, "DataBucketName", gjson.Get(out, "0.key").String())
	assert.Equal(t, "bucket", gjson.Get(out, "0.kind").String())
	assert.Equal(t, "StateMachineNameNightly", gjson.Get(out, "2.key").String())
	assert.Equal(t, "sales-dev-nightly", gjson.Get(out, "2.value").String())
	assert.Equal(t, "state machine", gjson.Get(out, "2.kind").String())

	out, _, err = run(t, "describe", "--stack", "sales-prd", "--titles")
	require.NoError(t, err)
	assert.Equal(t, "sales-prd", f.cfn.stackName)
	assert.Contains(t, out, "sales-prd (CREATE_COMPLETE):")
	assert.Contains(t, out, "sales-dev-deployment-bucket")
}

func TestDescribe_NeedsStackOrConfig(t *testing.T) {
	setup(t)
	_, _, err := run(t, "describe")
	assert.ErrorContains(t, err, "--stack or --config")
}

// localDefinition renders workflow the way definition does.
func localDefinition(t *testing.T, workflow string) string {
	t.Helper()
	d, err := pipeline.Load(pipelineFile)
	require.NoError(t, err)
	defs, err := pipeline.Definitions(d, "dev")
	require.NoError(t, err)
	for _, def := range defs {
		if def.Name == workflow {
			doc, err := def.Definition.JSON()
			require.NoError(t, err)
			return doc
		}
	}
	t.Fatalf("workflow %s not found", workflow)
	return ""
}

func TestDefinition(t *testing.T) {
	setup(t)

	out, _, err := run(t, "definition", "--config", pipelineFile)
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, "sales-dev-nightly", gjson.Get(out, "nightly.StartAt").String())
	assert.True(t, gjson.Get(out, "adhoc.States.sales-dev-load").Exists(), out)

	out, _, err = run(t, "definition", "--config", pipelineFile, "--workflow", "nightly")
	require.NoError(t, err)
	assert.JSONEq(t, localDefinition(t, "nightly"), out)

	_, _, err = run(t, "definition", "--config", pipelineFile, "--workflow", "weekly")
	assert.ErrorContains(t, err, `workflow "weekly" not found`)
}

func TestDefinition_Deployed(t *testing.T) {
	deployed := strings.ReplaceAll(localDefinition(t, "nightly"), stepfunctions.TopicArnSubstitution, topicARN)

	t.Run("identical", func(t *testing.T) {
		f := setup(t)
		f.sfn.definition = deployed

		out, _, err := run(t, "definition", "--config", pipelineFile, "--workflow", "nightly", "--deployed")
		require.NoError(t, err)
		assert.Contains(t, out, "identical")
	})

	t.Run("changed", func(t *testing.T) {
		f := setup(t)
		f.sfn.definition = strings.ReplaceAll(deployed, "sales-dev-load", "sales-dev-old")

		out, _, err := run(t, "definition", "--config", pipelineFile, "--workflow", "nightly", "--deployed")
		require.NoError(t, err)
		assert.NotContains(t, out, "identical")
		assert.Contains(t, out, "sales-dev-old")
	})

	t.Run("several workflows without a terminal", func(t *testing.T) {
		setup(t)
		_, _, err := run(t, "definition", "--config", pipelineFile, "--deployed")
		assert.ErrorContains(t, err, "--workflow")
	})

	t.Run("not a pipeline", func(t *testing.T) {
		setup(t)
		_, _, err := run(t, "definition", "--config", t.TempDir())
		assert.ErrorIs(t, err, ErrNotAPipeline)
	})
}

func TestSubstituteTopic(t *testing.T) {
	local := `{"States":{"notify-success":{"Parameters":{"TopicArn":"${TopicArn}"}}}}`
	deployed := `{"States":{"notify-success":{"Parameters":{"TopicArn":"` + topicARN + `"}}}}`

	assert.JSONEq(t, deployed, substituteTopic(local, deployed))
	assert.Equal(t, local, substituteTopic(local, `{"States":{}}`))
}

func TestOutputRows(t *testing.T) {
	rows := outputRows(map[string]string{
		"StateMachineNameNightly": "sales-dev-nightly",
		"DataBucketName":          "sales-dev",
		"Custom":                  "x",
	})
	require.Len(t, rows, 3)
	assert.Equal(t, "Custom", rows[0]["key"])
	assert.Equal(t, "other", rows[0]["kind"])
	assert.Equal(t, "bucket", rows[1]["kind"])
	assert.Equal(t, "state machine", rows[2]["kind"])
}

func TestCompletion(t *testing.T) {
	setup(t)

	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "complete -F _datajob datajob")

	out, _, err = run(t, "completion", "zsh")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#compdef datajob"))

	_, _, err = run(t, "completion", "fish")
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator FlagValidatorType
		value     any
		wantErr   bool
	}{
		{name: "output text", validator: OutputValidator, value: "text"},
		{name: "output xml", validator: OutputValidator, value: "xml", wantErr: true},
		{name: "stage empty", validator: StageValidator, value: ""},
		{name: "stage dev", validator: StageValidator, value: "dev"},
		{name: "stage with hyphen", validator: StageValidator, value: "feature-12"},
		{name: "stage upper case", validator: StageValidator, value: "Dev", wantErr: true},
		{name: "stage underscore", validator: StageValidator, value: "my_stage", wantErr: true},
		{name: "package empty", validator: PackageValidator, value: ""},
		{name: "package poetry", validator: PackageValidator, value: packaging.Poetry},
		{name: "package pip", validator: PackageValidator, value: "pip", wantErr: true},
		{name: "config exists", validator: ConfigValidator, value: pipelineFile},
		{name: "config missing", validator: ConfigValidator, value: "testdata/nope.yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FlagValidators(tt.value, tt.validator)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// requireNode skips CDK synthesis tests on machines without node.
func requireNode(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node is required to synthesize CDK apps")
	}
}

func TestApp(t *testing.T) {
	requireNode(t)
	setup(t)

	outdir := t.TempDir()
	t.Setenv("CDK_OUTDIR", outdir)

	_, _, err := run(t, "app", "--config", pipelineFile, "--stage", "dev")
	require.NoError(t, err)

	tmpl, err := os.ReadFile(filepath.Join(outdir, "sales.template.json"))
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(tmpl, "Outputs.StateMachineNameNightly").Exists())
	assert.True(t, gjson.GetBytes(tmpl, "Outputs.DataBucketName").Exists())
}
