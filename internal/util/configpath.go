// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigPath is a resolved --config argument.
type ConfigPath struct {
	// Path is the absolute path of the config file or directory.
	Path string
	// ProjectRoot is the directory holding the config. Packaging runs here.
	ProjectRoot string
	// IsDir is true when the config names a directory (a Go CDK app).
	IsDir bool
}

// ParseConfigPath resolves a --config value against the current working
// directory. It returns an error if the fs entry does not exist or is empty.
func ParseConfigPath(config string) (ConfigPath, error) {
	if config == "" {
		return ConfigPath{}, fmt.Errorf("config path is empty: %w", os.ErrInvalid)
	}

	path := config
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return ConfigPath{}, err
		}
		path = filepath.Join(cwd, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return ConfigPath{}, fmt.Errorf("config %s: %w", config, err)
	}

	if info.IsDir() {
		return ConfigPath{Path: path, ProjectRoot: path, IsDir: true}, nil
	}

	if info.Size() == 0 {
		return ConfigPath{}, fmt.Errorf("config %s is empty: %w", config, os.ErrInvalid)
	}

	return ConfigPath{Path: path, ProjectRoot: filepath.Dir(path)}, nil
}
