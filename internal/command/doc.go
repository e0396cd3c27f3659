// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command defines the CLI command set for datajob. It wires flags,
// validators, actions, and shell completion for subcommands. deploy,
// synthesize and destroy drive the cdk CLI; execute, executions, describe and
// definition talk to AWS directly.
package command
