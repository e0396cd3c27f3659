// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package stack provides the deployment unit of a datajob pipeline: a CDK stack
// that owns a data bucket, a deployment bucket and every job and workflow
// registered on it.
//
// A stack is used in three steps:
//
//	s, _ := stack.New(app, "data-pipeline-pkg", &stack.Props{ProjectRoot: root})
//	_ = s.InitContext()          // buckets, wheel and folder deployments
//	job, _ := glue.New(s, "task1", &glue.Props{JobPath: "glue_jobs/task1.py"})
//	_ = s.CreateResources()      // jobs and workflows become CFN resources
//
// Run wraps the three steps around a callback.
package stack
