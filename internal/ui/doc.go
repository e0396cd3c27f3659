// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package ui holds terminal helpers for long running commands. Spin shows a
// spinner with the latest status while work runs, or prints one line per
// status change when the writer is not a terminal.
package ui
