// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package cdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/mattn/go-shellwords"

	"github.com/LorenzoCevolani/datajob/internal/packaging"
)

// DefaultBinary is the cdk executable looked up on PATH.
const DefaultBinary = "cdk"

var (
	ErrUnsupportedApp = errors.New("unsupported app")
	ErrBinaryNotFound = errors.New("cdk binary not found, install it with `npm install -g aws-cdk`")
)

// AppCommand returns the value for `cdk --app` given a config path.
// YAML pipelines are synthesized by executable's hidden app command, Go
// apps with `go run`, python apps with packaging.Python.
func AppCommand(config, executable string) (string, error) {
	abs, err := filepath.Abs(config)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("config %s: %w", config, err)
	}

	if fi.IsDir() {
		return "go run " + quote(abs), nil
	}

	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		if executable == "" {
			return "", errors.New("datajob executable is required for yaml pipelines")
		}
		return fmt.Sprintf("%s app --config %s", quote(executable), quote(abs)), nil
	case ".go":
		return "go run " + quote(abs), nil
	case ".py":
		return quote(packaging.Python()) + " " + quote(abs), nil
	}
	return "", fmt.Errorf("%w: %s (want .yaml, .go, a go package directory or .py)", ErrUnsupportedApp, config)
}

// Args builds the cdk command line. The stage context is omitted when
// stage is empty.
func Args(command, app, stage string, extra []string) []string {
	args := []string{command, "--app", app}
	if stage != "" {
		args = append(args, "-c", "stage="+stage)
	}
	return append(args, extra...)
}

// ParseExtra splits each raw string with shell quoting rules.
func ParseExtra(raw ...string) ([]string, error) {
	var out []string
	for _, r := range raw {
		words, err := shellwords.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parse cdk args %q: %w", r, err)
		}
		out = append(out, words...)
	}
	return out, nil
}

// Runner runs a cdk command line.
type Runner interface {
	Run(ctx context.Context, dir string, args []string) error
}

// ExecRunner runs the cdk binary with stdio passed through.
type ExecRunner struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// NewExecRunner returns a runner for binary, DefaultBinary when empty.
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecRunner{
		Binary: binary,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
	}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, args []string) error {
	bin, err := exec.LookPath(r.Binary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}

	fmt.Fprintf(r.Stderr, "cdk command: %s\n", CommandLine(r.Binary, args))
	log.WithField("dir", dir).Debugf("running %s", bin)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Stdin = r.Stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cdk %s failed: %w", firstArg(args), err)
	}
	return nil
}

// CommandLine renders binary and args the way a shell would accept them.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, binary)
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}();&|<>!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
