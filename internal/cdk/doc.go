// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package cdk runs the AWS CDK command line against a datajob app.
package cdk
