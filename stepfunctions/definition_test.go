// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package stepfunctions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func definitionJSON(t *testing.T, f *Flow, opts DefinitionOptions) string {
	t.Helper()
	sm, err := f.Definition(opts)
	require.NoError(t, err)
	js, err := sm.JSON()
	require.NoError(t, err)
	require.True(t, gjson.Valid(js))
	return js
}

func TestDefinition_Sequential(t *testing.T) {
	f := &Flow{}
	require.NoError(t, f.Chain(Step(task("p-dev-task1")), Step(task("p-dev-task2"))))

	js := definitionJSON(t, f, DefinitionOptions{Comment: "two jobs"})

	assert.Equal(t, "two jobs", gjson.Get(js, "Comment").String())
	assert.Equal(t, "p-dev-task1", gjson.Get(js, "StartAt").String())

	first := gjson.Get(js, "States.p-dev-task1")
	assert.Equal(t, "Task", first.Get("Type").String())
	assert.Equal(t, GlueStartJobRunSync, first.Get("Resource").String())
	assert.Equal(t, "p-dev-task1", first.Get("Parameters.JobName").String())
	assert.Equal(t, "p-dev-task2", first.Get("Next").String())
	assert.False(t, first.Get("End").Exists())

	last := gjson.Get(js, "States.p-dev-task2")
	assert.True(t, last.Get("End").Bool())
	assert.False(t, last.Get("Next").Exists())
}

func TestDefinition_Parallel(t *testing.T) {
	f := &Flow{}
	require.NoError(t, f.Chain(Step(task("t1")), Parallel(task("t2"), task("t3")), Step(task("t4"))))

	js := definitionJSON(t, f, DefinitionOptions{})
	parallel := ParallelStateName([]string{"t2", "t3"})

	assert.Equal(t, parallel, gjson.Get(js, "States.t1.Next").String())

	p := gjson.Get(js, "States."+parallel)
	assert.Equal(t, "Parallel", p.Get("Type").String())
	assert.Equal(t, "t4", p.Get("Next").String())
	assert.Equal(t, int64(2), p.Get("Branches.#").Int())
	assert.Equal(t, "t2", p.Get("Branches.0.StartAt").String())
	assert.True(t, p.Get("Branches.0.States.t2.End").Bool())
	assert.Equal(t, "t3", p.Get("Branches.1.States.t3.Parameters.JobName").String())

	assert.True(t, gjson.Get(js, "States.t4.End").Bool())
}

func TestParallelStateName(t *testing.T) {
	a := ParallelStateName([]string{"t2", "t3"})
	assert.Equal(t, a, ParallelStateName([]string{"t2", "t3"}), "names are deterministic")
	assert.NotEqual(t, a, ParallelStateName([]string{"t3", "t2"}))
	assert.Regexp(t, `^parallel-[0-9a-f-]{36}$`, a)
	assert.LessOrEqual(t, len(a), 80)
}

func TestDefinition_Notification(t *testing.T) {
	f := &Flow{}
	require.NoError(t, f.Chain(Step(task("t1")), Step(task("t2"))))

	js := definitionJSON(t, f, DefinitionOptions{Name: "p-dev-wf", Notify: true})

	assert.Equal(t, "p-dev-wf", gjson.Get(js, "StartAt").String())

	wrapper := gjson.Get(js, "States.p-dev-wf")
	assert.Equal(t, "Parallel", wrapper.Get("Type").String())
	assert.Equal(t, "t1", wrapper.Get("Branches.0.StartAt").String())
	assert.Equal(t, "t2", wrapper.Get("Branches.0.States.t1.Next").String())
	assert.Equal(t, "notify-success", wrapper.Get("Next").String())
	assert.Equal(t, "States.ALL", wrapper.Get("Catch.0.ErrorEquals.0").String())
	assert.Equal(t, "notify-failure", wrapper.Get("Catch.0.Next").String())

	success := gjson.Get(js, "States.notify-success")
	assert.Equal(t, SNSPublish, success.Get("Resource").String())
	assert.Equal(t, TopicArnSubstitution, success.Get("Parameters.TopicArn").String())
	assert.True(t, success.Get("End").Bool())

	failure := gjson.Get(js, "States.notify-failure")
	assert.Equal(t, "execution-failed", failure.Get("Next").String())
	assert.Equal(t, "Fail", gjson.Get(js, "States.execution-failed.Type").String())
}

func TestDefinition_EmptyFlow(t *testing.T) {
	_, err := (&Flow{}).Definition(DefinitionOptions{})
	assert.ErrorIs(t, err, ErrEmptyFlow)
}
