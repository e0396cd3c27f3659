// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package stepfunctions orchestrates Glue jobs with an AWS Step Functions
// state machine.
//
// Jobs are ordered with a Flow of stages. A stage runs one task, or several
// tasks as parallel branches:
//
//	w.Chain(stepfunctions.Step(task1), stepfunctions.Parallel(task2, task3), stepfunctions.Step(task4))
//
// The same flow written as an expression:
//
//	w.Connect("task1 >> [task2, task3] >> task4", lookup)
//
// Flow.Definition renders the Amazon States Language document without
// touching CDK, so definitions can be inspected and diffed offline.
package stepfunctions
