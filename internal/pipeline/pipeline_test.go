// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package pipeline

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/LorenzoCevolani/datajob/stepfunctions"
)

func writePipeline(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "datajob.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "simple", "datajob.yaml"))
	require.NoError(t, err)

	abs, _ := filepath.Abs(filepath.Join("testdata", "simple"))
	assert.Equal(t, "data-pipeline-simple", d.ID)
	assert.Equal(t, abs, d.ProjectRoot)
	assert.Equal(t, filepath.Join(abs, "resources"), d.IncludeFolder)
	assert.Equal(t, filepath.Join(abs, "datajob.yaml"), d.Source)
	assert.Equal(t, []string{"task1", "task2", "task3"}, d.JobNames())

	require.Len(t, d.Jobs, 3)
	assert.Equal(t, "glueetl", d.Jobs[1].Type)
	require.NotNil(t, d.Jobs[1].NumberOfWorkers)
	assert.Equal(t, 2, *d.Jobs[1].NumberOfWorkers)
	require.NotNil(t, d.Jobs[2].MaxCapacity)
	assert.Equal(t, 1.0, *d.Jobs[2].MaxCapacity)
	assert.Equal(t, "data-team", d.Jobs[2].Tags["owner"])

	w, ok := d.Workflow("workflow")
	require.True(t, ok)
	assert.Equal(t, []string{"task1 >> [task2, task3]"}, w.Flow)

	_, ok = d.Workflow("nope")
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing id", body: "jobs: []\n", want: "id is required"},
		{name: "unknown field", body: "id: p\nbogus: 1\n", want: "bogus"},
		{name: "job without name", body: "id: p\njobs:\n  - path: a.py\n", want: "jobs[0] has no name"},
		{name: "job without path", body: "id: p\njobs:\n  - name: a\n", want: `job "a" has no path`},
		{name: "duplicate job", body: "id: p\njobs:\n  - {name: a, path: a.py}\n  - {name: a, path: b.py}\n", want: `duplicate job "a"`},
		{name: "workflow named like a job", body: "id: p\njobs:\n  - {name: a, path: a.py}\nworkflows:\n  - {name: a, flow: [a >> ...]}\n", want: `duplicate name "a"`},
		{name: "workflow without flow", body: "id: p\nworkflows:\n  - {name: w}\n", want: `workflow "w" has no flow`},
		{name: "unknown task in flow", body: "id: p\njobs:\n  - {name: a, path: a.py}\nworkflows:\n  - {name: w, flow: [a >> b]}\n", want: "unknown task"},
		{name: "broken chain", body: "id: p\njobs:\n  - {name: a, path: a.py}\n  - {name: b, path: b.py}\n  - {name: c, path: c.py}\nworkflows:\n  - {name: w, flow: [a >> b, a >> c]}\n", want: "chain must start"},
		{name: "workflows sharing an output", body: "id: p\njobs:\n  - {name: a, path: a.py}\nworkflows:\n  - {name: nightly-run, flow: [a >> ...]}\n  - {name: nightly_run, flow: [a >> ...]}\n", want: "share the stack output StateMachineNameNightlyRun"},
		{name: "malformed yaml", body: "id: [p\n", want: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writePipeline(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderArguments(t *testing.T) {
	data := TemplateData{
		Stage:            "dev",
		DataBucket:       "p-dev",
		DeploymentBucket: "p-dev-deployment-bucket",
		UniqueStackName:  "p-dev",
	}

	got, err := RenderArguments(map[string]string{
		"--source": "s3://{{ .DataBucket }}/raw",
		"--plain":  "value",
		"--code":   "s3://{{ .DeploymentBucket }}/{{ .UniqueStackName }}-{{ .Stage }}",
	}, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"--source": "s3://p-dev/raw",
		"--plain":  "value",
		"--code":   "s3://p-dev-deployment-bucket/p-dev-dev",
	}, got)

	got, err = RenderArguments(nil, data)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = RenderArguments(map[string]string{"--x": "{{ .Nope }}"}, data)
	assert.Error(t, err)

	_, err = RenderArguments(map[string]string{"--x": "{{ .Stage"}, data)
	assert.Error(t, err)
}

func TestDefinitions(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "simple", "datajob.yaml"))
	require.NoError(t, err)

	defs, err := Definitions(d, "dev")
	require.NoError(t, err)
	require.Len(t, defs, 1)

	assert.Equal(t, "workflow", defs[0].Name)
	assert.Equal(t, "data-pipeline-simple-dev-workflow", defs[0].UniqueName)

	js, err := defs[0].Definition.JSON()
	require.NoError(t, err)

	branch := gjson.Get(js, "States.data-pipeline-simple-dev-workflow.Branches.0")
	assert.Equal(t, "data-pipeline-simple-dev-task1", branch.Get("StartAt").String())

	parallel := stepfunctions.ParallelStateName([]string{"data-pipeline-simple-dev-task2", "data-pipeline-simple-dev-task3"})
	assert.Equal(t, parallel, branch.Get("States.data-pipeline-simple-dev-task1.Next").String())
}

func TestBuild(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node is not on PATH, skipping cdk synthesis")
	}

	d, err := Load(filepath.Join("testdata", "simple", "datajob.yaml"))
	require.NoError(t, err)

	app := awscdk.NewApp(nil)
	s, err := Build(app, d, "dev")
	require.NoError(t, err)
	assert.Equal(t, "data-pipeline-simple-dev", s.UniqueStackName)

	template := assertions.Template_FromStack(s.Stack, nil)
	template.ResourceCountIs(jsii.String("AWS::Glue::Job"), jsii.Number(3))
	template.ResourceCountIs(jsii.String("AWS::StepFunctions::StateMachine"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::Glue::Job"), map[string]interface{}{
		"Name": "data-pipeline-simple-dev-task1",
		"DefaultArguments": map[string]interface{}{
			"--source": "s3://data-pipeline-simple-dev/raw",
			"--stage":  "dev",
		},
	})
	template.HasResourceProperties(jsii.String("AWS::Glue::Job"), map[string]interface{}{
		"Name":            "data-pipeline-simple-dev-task2",
		"WorkerType":      "G.1X",
		"NumberOfWorkers": 2,
	})
}
