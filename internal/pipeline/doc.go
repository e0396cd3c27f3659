// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package pipeline reads the YAML pipeline declaration given to
// `datajob deploy --config` and turns it into a datajob stack.
//
// Example:
//
//	id: data-pipeline-simple
//	project_root: .
//	jobs:
//	  - name: task1
//	    path: glue_jobs/task1.py
//	    arguments:
//	      --source: "s3://{{ .DataBucket }}/raw"
//	  - name: task2
//	    path: glue_jobs/task2.py
//	workflows:
//	  - name: workflow
//	    notification: team@example.com
//	    flow:
//	      - task1 >> task2
//
// Argument values are Go templates over Stage, DataBucket,
// DeploymentBucket and UniqueStackName.
package pipeline
