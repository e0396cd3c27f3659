// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stepfunctions

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	// GlueStartJobRunSync waits for the job run to finish.
	GlueStartJobRunSync = "arn:aws:states:::glue:startJobRun.sync"

	// SNSPublish is the optimized SNS integration.
	SNSPublish = "arn:aws:states:::sns:publish"

	// TopicArnSubstitution is replaced with the notification topic ARN at
	// deploy time.
	TopicArnSubstitution = "${TopicArn}"

	notifySuccessState = "notify-success"
	notifyFailureState = "notify-failure"
	failState          = "execution-failed"
)

// parallelNamespace seeds the deterministic names of Parallel states.
var parallelNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/LorenzoCevolani/datajob/parallel"))

// StateMachine is an Amazon States Language document.
type StateMachine struct {
	Comment string            `json:"Comment,omitempty"`
	StartAt string            `json:"StartAt"`
	States  map[string]*State `json:"States"`
}

// State is the subset of ASL state fields datajob emits.
type State struct {
	Type       string         `json:"Type"`
	Resource   string         `json:"Resource,omitempty"`
	Parameters map[string]any `json:"Parameters,omitempty"`
	Branches   []StateMachine `json:"Branches,omitempty"`
	ResultPath string         `json:"ResultPath,omitempty"`
	Catch      []Catcher      `json:"Catch,omitempty"`
	Error      string         `json:"Error,omitempty"`
	Cause      string         `json:"Cause,omitempty"`
	Next       string         `json:"Next,omitempty"`
	End        bool           `json:"End,omitempty"`
}

// Catcher routes errors to a fallback state.
type Catcher struct {
	ErrorEquals []string `json:"ErrorEquals"`
	ResultPath  string   `json:"ResultPath,omitempty"`
	Next        string   `json:"Next"`
}

// DefinitionOptions shape the rendered document.
type DefinitionOptions struct {
	// Name labels the wrapper state and notification subjects.
	Name string

	Comment string

	// Notify wraps the flow so success and failure publish to the topic
	// substituted for TopicArnSubstitution.
	Notify bool
}

// ParallelStateName is the state name of a parallel stage running names.
func ParallelStateName(names []string) string {
	return "parallel-" + uuid.NewSHA1(parallelNamespace, []byte(strings.Join(names, ","))).String()
}

// Definition renders the flow as a state machine.
func (f *Flow) Definition(opts DefinitionOptions) (*StateMachine, error) {
	if len(f.stages) == 0 {
		return nil, ErrEmptyFlow
	}

	chain := f.chain()
	if !opts.Notify {
		chain.Comment = opts.Comment
		return chain, nil
	}

	name := opts.Name
	if name == "" {
		name = "workflow"
	}

	return &StateMachine{
		Comment: opts.Comment,
		StartAt: name,
		States: map[string]*State{
			name: {
				Type:     "Parallel",
				Branches: []StateMachine{*chain},
				Catch: []Catcher{{
					ErrorEquals: []string{"States.ALL"},
					ResultPath:  "$.error",
					Next:        notifyFailureState,
				}},
				Next: notifySuccessState,
			},
			notifySuccessState: {
				Type:     "Task",
				Resource: SNSPublish,
				Parameters: map[string]any{
					"TopicArn":  TopicArnSubstitution,
					"Subject":   name + " succeeded",
					"Message.$": "$$.Execution.Id",
				},
				End: true,
			},
			notifyFailureState: {
				Type:     "Task",
				Resource: SNSPublish,
				Parameters: map[string]any{
					"TopicArn":  TopicArnSubstitution,
					"Subject":   name + " failed",
					"Message.$": "$.error.Cause",
				},
				Next: failState,
			},
			failState: {
				Type:  "Fail",
				Error: "WorkflowFailed",
				Cause: name + " failed, see the notification for details",
			},
		},
	}, nil
}

func (f *Flow) chain() *StateMachine {
	sm := &StateMachine{States: map[string]*State{}}

	names := make([]string, len(f.stages))
	for i, s := range f.stages {
		names[i] = stateName(s)
	}
	sm.StartAt = names[0]

	for i, s := range f.stages {
		var st *State
		if s.parallel {
			st = &State{Type: "Parallel"}
			for _, t := range s.tasks {
				n := t.UniqueName()
				branchTask := glueTaskState(n)
				branchTask.End = true
				st.Branches = append(st.Branches, StateMachine{
					StartAt: n,
					States:  map[string]*State{n: branchTask},
				})
			}
		} else {
			st = glueTaskState(s.tasks[0].UniqueName())
		}

		if i+1 < len(names) {
			st.Next = names[i+1]
		} else {
			st.End = true
		}
		sm.States[names[i]] = st
	}

	return sm
}

func glueTaskState(jobName string) *State {
	return &State{
		Type:       "Task",
		Resource:   GlueStartJobRunSync,
		Parameters: map[string]any{"JobName": jobName},
	}
}

func stateName(s Stage) string {
	if s.parallel {
		return ParallelStateName(s.Names())
	}
	return s.tasks[0].UniqueName()
}

// JSON renders the document indented.
func (sm *StateMachine) JSON() (string, error) {
	b, err := json.MarshalIndent(sm, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
