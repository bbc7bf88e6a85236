package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/qbridge/pkg/qcli"
)

// queryDoneMsg signals that the engine call has completed
type queryDoneMsg struct {
	response *qcli.ParsedResponse
	duration time.Duration
	err      error
}

// queryModel drives the waiting spinner while the engine runs. It is a
// progress surface only: the result is rendered after the program exits
// so the response stays in the terminal scrollback.
type queryModel struct {
	spinner spinner.Model
	label   string
	start   tea.Cmd

	response  *qcli.ParsedResponse
	duration  time.Duration
	err       error
	cancelled bool
}

func newQueryModel(label string, start func() tea.Msg) queryModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return queryModel{
		spinner: sp,
		label:   label,
		start:   start,
	}
}

func (m queryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m queryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case queryDoneMsg:
		m.response = msg.response
		m.duration = msg.duration
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m queryModel) View() string {
	if m.response != nil || m.err != nil || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}
