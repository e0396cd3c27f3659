// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stepfunctions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyStage    = errors.New("empty stage")
	ErrNilTask       = errors.New("nil task")
	ErrDuplicateTask = errors.New("task already in flow")
	ErrChainStart    = errors.New("chain must start at the last stage of the flow")
	ErrEmptyFlow     = errors.New("flow has no stages")
	ErrUnknownTask   = errors.New("unknown task")
	ErrNotification  = errors.New("invalid notification address")
	ErrOutputKey     = errors.New("workflow names share a stack output")
)

// Task is a unit of work a state machine can run.
type Task interface {
	UniqueName() string
}

// Stage runs one task, or several tasks in parallel.
type Stage struct {
	tasks    []Task
	parallel bool
}

// Step is a stage running a single task.
func Step(t Task) Stage {
	return Stage{tasks: []Task{t}}
}

// Parallel is a stage running every task as its own branch.
func Parallel(tasks ...Task) Stage {
	return Stage{tasks: tasks, parallel: true}
}

// Tasks returns the tasks of the stage.
func (s Stage) Tasks() []Task {
	return s.tasks
}

// IsParallel reports whether the stage renders as a Parallel state.
func (s Stage) IsParallel() bool {
	return s.parallel
}

// Names returns the unique names of the stage's tasks.
func (s Stage) Names() []string {
	names := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t != nil {
			names = append(names, t.UniqueName())
		}
	}
	return names
}

func (s Stage) String() string {
	if s.parallel {
		return "[" + strings.Join(s.Names(), ", ") + "]"
	}
	return strings.Join(s.Names(), "")
}

func (s Stage) equal(o Stage) bool {
	if s.parallel != o.parallel || len(s.tasks) != len(o.tasks) {
		return false
	}
	for i := range s.tasks {
		if s.tasks[i].UniqueName() != o.tasks[i].UniqueName() {
			return false
		}
	}
	return true
}

func (s Stage) validate() error {
	if len(s.tasks) == 0 {
		return ErrEmptyStage
	}
	for _, t := range s.tasks {
		if t == nil {
			return ErrNilTask
		}
	}
	return nil
}

// Flow is an ordered list of stages.
type Flow struct {
	stages []Stage
}

// Stages returns the stages in execution order.
func (f *Flow) Stages() []Stage {
	return f.stages
}

// Tasks returns every task of the flow in execution order.
func (f *Flow) Tasks() []Task {
	var out []Task
	for _, s := range f.stages {
		out = append(out, s.tasks...)
	}
	return out
}

// Chain appends stages to the flow. On a non-empty flow the first stage
// must be the current last stage, so `a >> b` then `b >> c` continue one
// chain.
func (f *Flow) Chain(stages ...Stage) error {
	if len(stages) == 0 {
		return nil
	}
	for _, s := range stages {
		if err := s.validate(); err != nil {
			return err
		}
	}

	add := stages
	if len(f.stages) > 0 {
		tail := f.stages[len(f.stages)-1]
		if !stages[0].equal(tail) {
			return fmt.Errorf("%w: got %s, last stage is %s", ErrChainStart, stages[0], tail)
		}
		add = stages[1:]
	}

	seen := map[string]bool{}
	for _, t := range f.Tasks() {
		seen[t.UniqueName()] = true
	}
	for _, s := range add {
		for _, t := range s.tasks {
			name := t.UniqueName()
			if seen[name] {
				return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
			}
			seen[name] = true
		}
	}

	f.stages = append(f.stages, add...)
	return nil
}
