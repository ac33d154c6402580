package main

import (
	"bytes"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// watchModel is a minimal bubbletea program that keeps a one-line status
// footer on screen between re-analysis runs triggered by --watch, while
// each run's own report is pushed above it via tea.Println so the
// scrollback reads like a normal terminal session.
type watchModel struct {
	dir      string
	runs     int
	status   string
	lastAt   time.Time
	quitting bool
}

type runResultMsg struct {
	code int
	at   time.Time
}

func newWatchModel(dir string) watchModel {
	return watchModel{dir: dir, status: "waiting for first run"}
}

func (m watchModel) Init() tea.Cmd { return nil }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	case runResultMsg:
		m.runs++
		m.lastAt = msg.at
		if msg.code == 0 {
			m.status = "ok"
		} else {
			m.status = fmt.Sprintf("exit code %d", msg.code)
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("watching %s — runs: %d — last: %s (q or ctrl+c to quit)\n", m.dir, m.runs, m.status)
}

// runUnderProgram runs the analysis pipeline once, capturing its output
// so it can be flushed through the bubbletea program's scrollback
// (tea.Println) rather than written directly, which would race with the
// program's own rendering of the footer.
func runUnderProgram(p *tea.Program, cfg cliConfig, colorEnabled bool, runOnceCaptured func(stdout, stderr *bytes.Buffer) int) {
	var stdout, stderr bytes.Buffer
	code := runOnceCaptured(&stdout, &stderr)
	if stdout.Len() > 0 {
		p.Println(stdout.String())
	}
	if stderr.Len() > 0 {
		p.Println(stderr.String())
	}
	p.Send(runResultMsg{code: code, at: time.Now()})
}
