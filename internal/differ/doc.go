// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ compares a locally rendered state machine definition with
// the deployed one.
package differ
