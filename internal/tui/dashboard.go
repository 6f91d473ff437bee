package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"orderload/internal/runner"
)

type updateMsg runner.Update

type doneMsg struct{}

// Dashboard renders a live view of a running load test. Quitting it
// cancels the run; the program exits once the workers have drained and
// the done channel closes.
type Dashboard struct {
	cfg     runner.Config
	updates runner.UpdateChan
	done    <-chan struct{}
	cancel  context.CancelFunc

	last     runner.Update
	progress progress.Model
	requests Sparkline
	latency  Sparkline

	lastTotal uint64
	width     int
	stopping  bool
}

func NewDashboard(cfg runner.Config, updates runner.UpdateChan, done <-chan struct{}, cancel context.CancelFunc) Dashboard {
	return Dashboard{
		cfg:      cfg,
		updates:  updates,
		done:     done,
		cancel:   cancel,
		progress: progress.New(progress.WithDefaultGradient()),
		requests: NewSparkline(40, "Requests", activeStyle),
		latency:  NewSparkline(40, "p95 latency (ms)", warnStyle),
	}
}

func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), waitForDone(m.done))
}

func waitForUpdate(ch runner.UpdateChan) tea.Cmd {
	return func() tea.Msg { return updateMsg(<-ch) }
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg { <-done; return doneMsg{} }
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.stopping = true
			m.cancel()
			return m, nil
		}

	case updateMsg:
		u := runner.Update(msg)
		m.requests.Add(u.Total - m.lastTotal)
		m.lastTotal = u.Total
		m.latency.Add(uint64(u.P95Ms))
		m.last = u

		cmds := []tea.Cmd{waitForUpdate(m.updates)}
		if !m.cfg.Forever && m.cfg.Duration() > 0 {
			pct := float64(u.Elapsed) / float64(m.cfg.Duration())
			if pct > 1 {
				pct = 1
			}
			cmds = append(cmds, m.progress.SetPercent(pct))
		}
		return m, tea.Batch(cmds...)

	case doneMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 6
		half := msg.Width/2 - 6
		if half < 10 {
			half = 10
		}
		m.requests.Width = half
		m.latency.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.progress.Update(msg)
		m.progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Dashboard) View() string {
	var b strings.Builder
	u := m.last

	b.WriteString(titleStyle.Render("orderload"))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  %s  workers=%d  rate=%d/min",
		m.cfg.BaseURL, m.cfg.Workers, m.cfg.RatePerMin)))
	b.WriteString("\n\n")

	col1 := fmt.Sprintf("TOTAL: %s\nOK:    %s",
		valueStyle.Render(fmt.Sprint(u.Total)),
		valueStyle.Render(fmt.Sprint(u.Success)))
	col2 := fmt.Sprintf("SLOW: %d\nFAST: %d", u.Slow, u.Fast)

	errStyle := activeStyle
	switch {
	case u.ErrorRate > 5:
		errStyle = errorStyle
	case u.ErrorRate > 1:
		errStyle = warnStyle
	}
	col3 := fmt.Sprintf("ERR: %s\nAVG: %.0f ms",
		errStyle.Render(fmt.Sprintf("%d (%.1f%%)", u.Errors, u.ErrorRate)),
		u.AvgMs)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(col1), boxStyle.Render(col2), boxStyle.Render(col3)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.requests.View()), boxStyle.Render(m.latency.View())))
	b.WriteString("\n\n")

	b.WriteString(boxStyle.Render(fmt.Sprintf(
		"p50: %.0f ms  |  p95: %.0f ms  |  p99: %.0f ms  |  max: %.0f ms  |  %.2f req/s",
		u.P50Ms, u.P95Ms, u.P99Ms, u.MaxMs, u.Throughput)))
	b.WriteString("\n\n")

	if m.cfg.Forever {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  running %s (no deadline)", u.Elapsed.Round(time.Second))))
	} else {
		b.WriteString(m.progress.View())
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  %s / %s", u.Elapsed.Round(time.Second), m.cfg.Duration())))
	}
	b.WriteString("\n\n")

	if m.stopping {
		b.WriteString(warnStyle.Render("  stopping: draining in-flight requests..."))
	} else {
		b.WriteString(subtleStyle.Render("  q: stop and report"))
	}
	b.WriteString("\n")

	return b.String()
}
