// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package glue declares AWS Glue jobs on a datajob stack.
//
// A job is validated when declared with New and becomes an AWS::Glue::Job,
// an IAM role and a code deployment when the stack creates its resources.
package glue
