// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

// Package packaging builds the project wheel before a deploy.
package packaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/apex/log"
)

const (
	SetupPy = "setuppy"
	Poetry  = "poetry"

	// PythonEnv overrides the python interpreter.
	PythonEnv     = "DATAJOB_PYTHON"
	defaultPython = "python3"
)

var ErrUnknownPackager = errors.New("unknown packager")

// Packagers lists the accepted --package values.
var Packagers = []string{SetupPy, Poetry}

// Runner runs name with args in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, output to Stdout and Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// DefaultRunner writes build output to stderr so stdout stays clean.
var DefaultRunner Runner = ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr}

// Python is the interpreter for setup.py builds and python CDK apps.
func Python() string {
	if python := os.Getenv(PythonEnv); python != "" {
		return python
	}
	return defaultPython
}

// Command returns the build command for packager in projectRoot, checking
// the project file it needs exists.
func Command(packager, projectRoot string) (string, []string, error) {
	switch packager {
	case SetupPy:
		if err := requireFile(projectRoot, "setup.py"); err != nil {
			return "", nil, err
		}
		return Python(), []string{"setup.py", "bdist_wheel"}, nil
	case Poetry:
		if err := requireFile(projectRoot, "pyproject.toml"); err != nil {
			return "", nil, err
		}
		return "poetry", []string{"build", "--format", "wheel"}, nil
	}
	return "", nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownPackager, packager, SetupPy, Poetry)
}

// Build packages projectRoot with packager.
func Build(ctx context.Context, r Runner, packager, projectRoot string) error {
	name, args, err := Command(packager, projectRoot)
	if err != nil {
		return err
	}
	if r == nil {
		r = DefaultRunner
	}

	log.WithField("project", projectRoot).Infof("packaging with %s", packager)
	if err := r.Run(ctx, projectRoot, name, args...); err != nil {
		return fmt.Errorf("packaging with %s failed: %w", packager, err)
	}
	return nil
}

func requireFile(dir, name string) error {
	p := filepath.Join(dir, name)
	fi, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("%s is required to package the project: %w", p, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}
