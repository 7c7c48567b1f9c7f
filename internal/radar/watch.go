package radar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type reportsMsg struct {
	reports []Report
	err     error
	at      time.Time
}

// refreshMsg is a scheduled lookup; gen must match the model's current
// generation or the tick is stale.
type refreshMsg struct{ gen int }

// WatchModel is a bubbletea model that re-tracks tails on an interval.
type WatchModel struct {
	ctx      context.Context
	tracker  *Tracker
	tails    []string
	interval time.Duration
	now      func() time.Time

	spinner  spinner.Model
	loading  bool
	reports  []Report
	err      error
	updated  time.Time
	quitting bool
	// gen invalidates pending ticks when a manual refresh starts a new chain.
	gen int
}

// NewWatchModel builds the live view. ctx bounds every lookup.
func NewWatchModel(ctx context.Context, tracker *Tracker, tails []string, interval time.Duration) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = labelStyle
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return WatchModel{
		ctx:      ctx,
		tracker:  tracker,
		tails:    tails,
		interval: interval,
		now:      time.Now,
		spinner:  sp,
		loading:  true,
	}
}

// Init starts the spinner and the first lookup.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m WatchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		reports, err := m.tracker.Track(m.ctx, m.tails...)
		return reportsMsg{reports: reports, err: err, at: m.now()}
	}
}

// Update handles keys, lookups and ticks.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				m.gen++
				return m, m.fetch()
			}
		}
		return m, nil

	case reportsMsg:
		m.loading = false
		m.updated = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.reports = msg.reports
		}
		gen := m.gen
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshMsg{gen: gen} })

	case refreshMsg:
		if msg.gen != m.gen || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current reports.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	header := fmt.Sprintf("Tracking %s", strings.Join(m.tails, ", "))
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	for _, r := range m.reports {
		b.WriteString(FormatReport(r))
		b.WriteString("\n\n")
	}
	if m.err != nil {
		b.WriteString(groundStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	status := "every " + m.interval.String()
	if !m.updated.IsZero() {
		status = fmt.Sprintf("updated %s, %s", m.updated.Format("15:04:05"), status)
	}
	if m.loading {
		status = m.spinner.View() + " refreshing"
	}
	b.WriteString(mutedStyle.Render(status + "  (r refresh, q quit)"))
	return b.String()
}

// Reports returns the last successful lookup.
func (m WatchModel) Reports() []Report { return m.reports }
