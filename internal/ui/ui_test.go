// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestSpin_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	err := Spin(context.Background(), "nightly", &buf, func(_ context.Context, update func(string)) error {
		for _, s := range []string{"RUNNING", "RUNNING", "SUCCEEDED"} {
			update(s)
		}
		return nil
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "nightly: RUNNING")
	assert.Contains(t, lines[1], "nightly: SUCCEEDED")
}

func TestLines_Error(t *testing.T) {
	boom := errors.New("boom")
	err := Lines(context.Background(), "x", &bytes.Buffer{}, func(context.Context, func(string)) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestModel(t *testing.T) {
	var m tea.Model = newModel("nightly")
	assert.NotNil(t, m.Init())

	m, _ = m.Update(statusMsg("RUNNING"))
	assert.Contains(t, m.View(), "nightly")
	assert.Contains(t, m.View(), "RUNNING")

	m, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.(model).done)
	assert.False(t, m.(model).interrupted)
	assert.Empty(t, m.View())
}

func TestModel_Interrupt(t *testing.T) {
	var m tea.Model = newModel("nightly")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.(model).interrupted)
}
