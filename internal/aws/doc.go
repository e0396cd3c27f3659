// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package aws contains AWS SDK helpers used by the CLI at runtime: config
// loading, client construction, bucket emptying and stack output lookups.
package aws
