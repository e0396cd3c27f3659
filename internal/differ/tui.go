// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoSelection is returned when the picker is dismissed.
var ErrNoSelection = errors.New("nothing selected")

// Select lets the user pick one of items on the terminal.
func Select(title string, items []string, opts ...tea.ProgramOption) (string, error) {
	switch len(items) {
	case 0:
		return "", ErrNoSelection
	case 1:
		return items[0], nil
	}

	m, err := tea.NewProgram(picker{title: title, items: items}, opts...).Run()
	if err != nil {
		return "", err
	}
	p := m.(picker)
	if p.chosen < 0 {
		return "", ErrNoSelection
	}
	return p.items[p.chosen], nil
}

type picker struct {
	title  string
	items  []string
	cursor int
	chosen int
	done   bool
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.chosen = -1
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.chosen = m.cursor
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m picker) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.title)
	for i, item := range m.items {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s %s\n", cursor, item)
	}
	b.WriteString("\nENTER: select, Q/ESCAPE: quit\n")
	return b.String()
}
