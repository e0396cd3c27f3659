// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stack

import "errors"

var (
	// ErrInvalidBucketName is returned when the id/stage combination does not
	// produce valid S3 bucket names.
	ErrInvalidBucketName = errors.New("invalid bucket name")

	// ErrContextInitialized is returned by a second InitContext call.
	ErrContextInitialized = errors.New("datajob context already initialized")

	// ErrContextNotInitialized is returned when resources need the context
	// before InitContext ran.
	ErrContextNotInitialized = errors.New("datajob context not initialized")

	// ErrResourcesCreated is returned by a second CreateResources call.
	ErrResourcesCreated = errors.New("resources already created")

	// ErrNoWheel is returned by FindWheel when dist/ holds no wheel.
	ErrNoWheel = errors.New("no wheel found")

	// ErrMissingContext is returned by ContextParameter for unset keys.
	ErrMissingContext = errors.New("context parameter not set")
)
