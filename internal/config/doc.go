// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for datajob's user
// configuration. The configuration is a YAML document located in the user's
// configuration directory, typically:
//   - Linux/macOS: $XDG_CONFIG_HOME/datajob.yaml or $HOME/.config/datajob.yaml
//   - Windows: %APPDATA%/datajob.yaml
//
// DATAJOB_CFG_FILE overrides the location. The same file feeds flag defaults
// (see command.NameSpacedValueChainFlagFromConfigFile), e.g.
//
//	stage: dev
//	deploy:
//	  package: setuppy
//	cdk:
//	  args: --require-approval never
package config
