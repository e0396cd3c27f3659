// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output shapes JSON datasets into the rows commands print: column
// selection and transforms (--columns), row filters (--filter), sorting
// (--sort) and rendering as a table, json, yaml or raw.
package output
