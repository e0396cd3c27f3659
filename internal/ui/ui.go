// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrInterrupted is returned when the user quits the spinner.
var ErrInterrupted = errors.New("interrupted")

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	statusStyle  = lipgloss.NewStyle().Bold(true)
)

// Work is the job watched by Spin. It reports progress through update.
type Work func(ctx context.Context, update func(status string)) error

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	type fdProvider interface {
		Fd() uintptr
	}
	v, ok := w.(fdProvider)
	return ok && term.IsTerminal(int(v.Fd()))
}

// Spin runs work and renders its progress on w.
func Spin(ctx context.Context, title string, w io.Writer, work Work) error {
	if !IsTerminal(w) {
		return Lines(ctx, title, w, work)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(title), tea.WithOutput(w))

	errc := make(chan error, 1)
	go func() {
		err := work(ctx, func(s string) { p.Send(statusMsg(s)) })
		errc <- err
		p.Send(doneMsg{})
	}()

	m, err := p.Run()
	if err != nil {
		cancel()
		<-errc
		return err
	}
	if m.(model).interrupted {
		cancel()
		<-errc
		return ErrInterrupted
	}
	return <-errc
}

// Lines runs work and prints a timestamped line each time the status changes.
func Lines(ctx context.Context, title string, w io.Writer, work Work) error {
	last := ""
	return work(ctx, func(s string) {
		if s == last {
			return
		}
		last = s
		fmt.Fprintf(w, "%s %s: %s\n", time.Now().Format("15:04:05"), title, s)
	})
}

type (
	statusMsg string
	doneMsg   struct{}
)

type model struct {
	spinner     spinner.Model
	title       string
	status      string
	done        bool
	interrupted bool
}

func newModel(title string) model {
	return model{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		title:   title,
	}
}

func (m model) Init() tea.Cmd { return m.spinner.Tick }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.done = true
			m.interrupted = true
			return m, tea.Quit
		}
	case statusMsg:
		m.status = string(msg)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.title, statusStyle.Render(m.status))
}
