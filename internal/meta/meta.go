// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/LorenzoCevolani/datajob/internal/config"
)

// Meta contains runtime metadata shared by commands. It carries CLI arguments,
// loaded configuration, context, the starting working directory and the path
// of the running datajob binary (used to build the cdk --app command).
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string
	Executable  string
}
