package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/tracker"
)

const (
	canvasWidth     = 60
	canvasHeight    = 12
	historyCapacity = 600
)

// SampleMsg carries a progress sample into the model.
type SampleMsg tracker.Sample

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Info dynamo.Info
	Err  error
}

// Live follows a simulation running in another goroutine. The run feeds
// samples through a channel it closes when finished and then sends
// exactly one DoneMsg.
type Live struct {
	title        string
	tStart, tEnd float64
	samples      <-chan tracker.Sample
	done         <-chan DoneMsg
	cancel       context.CancelFunc

	theme  Theme
	styles Styles
	canvas *Canvas

	last     tracker.Sample
	received int
	maxHist  []float64
	minHist  []float64
	started  time.Time
	elapsed  time.Duration

	frozen   bool
	showHelp bool
	finished bool
	result   DoneMsg
}

func NewLive(title string, tStart, tEnd float64, samples <-chan tracker.Sample, done <-chan DoneMsg, cancel context.CancelFunc) Live {
	return Live{
		title:   title,
		tStart:  tStart,
		tEnd:    tEnd,
		samples: samples,
		done:    done,
		cancel:  cancel,
		theme:   Themes[0],
		styles:  NewStyles(Themes[0]),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		maxHist: make([]float64, 0, historyCapacity),
		minHist: make([]float64, 0, historyCapacity),
		started: time.Now(),
	}
}

// SetTheme selects a theme by name.
func (m *Live) SetTheme(name string) {
	m.theme = GetTheme(name)
	m.styles = NewStyles(m.theme)
}

func (m Live) Init() tea.Cmd {
	return tea.Batch(waitSample(m.samples), waitDone(m.done))
}

func waitSample(ch <-chan tracker.Sample) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SampleMsg(s)
	}
}

func waitDone(ch <-chan DoneMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case SampleMsg:
		m.received++
		if !m.frozen {
			m.record(tracker.Sample(msg))
		}
		return m, waitSample(m.samples)
	case DoneMsg:
		m.finished = true
		m.result = msg
		m.elapsed = time.Since(m.started)
	}
	return m, nil
}

func (m *Live) record(s tracker.Sample) {
	m.last = s
	m.maxHist = append(m.maxHist, s.Max)
	m.minHist = append(m.minHist, s.Min)
	if len(m.maxHist) > historyCapacity {
		m.maxHist = m.maxHist[1:]
		m.minHist = m.minHist[1:]
	}
}

// Fraction is the share of the time range covered by the last sample.
func (m Live) Fraction() float64 {
	if m.tEnd <= m.tStart {
		return 1
	}
	return (m.last.T - m.tStart) / (m.tEnd - m.tStart)
}

func (m Live) status() string {
	switch {
	case m.finished && m.result.Err != nil:
		return m.styles.Error.Render("FAILED")
	case m.finished:
		return m.styles.Status.Render("DONE (" + m.result.Info.StopReason + ")")
	case m.frozen:
		return m.styles.Status.Render("FROZEN")
	}
	return m.styles.Status.Render("RUNNING")
}

func (m Live) View() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Header.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(m.status() + "\n\n")
	b.WriteString(s.ProgressBar(m.Fraction(), 40) + fmt.Sprintf(" %5.1f%%\n\n", 100*m.Fraction()))

	row := func(label, value string) {
		b.WriteString(s.Label.Render(label) + s.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4g / %.4g", m.last.T, m.tEnd))
	row("Max", fmt.Sprintf("%.6g", m.last.Max))
	row("Min", fmt.Sprintf("%.6g", m.last.Min))
	row("Samples", fmt.Sprintf("%d", m.received))
	if m.finished {
		info := m.result.Info
		row("Steps", fmt.Sprintf("%d (%d rejected)", info.Steps, info.Rejected))
		row("Elapsed", m.elapsed.Round(time.Millisecond).String())
		if m.result.Err != nil {
			b.WriteString("\n" + s.Error.Render(m.result.Err.Error()) + "\n")
		}
	}
	b.WriteString("\n" + s.Label.Render("max trend") + s.Sparkline(m.maxHist, 30) + "\n")
	b.WriteString(s.Label.Render("min trend") + s.Sparkline(m.minHist, 30) + "\n")
	stats := s.Panel.Render(b.String())

	views := []string{stats}
	if len(m.maxHist) > 1 {
		views = append(views, s.Graph.Render(PlotSeries("max and min", 40, 8, m.maxHist, m.minHist)))
	}
	if len(m.last.Profile) > 0 {
		lo, hi := bounds(m.last.Profile)
		m.canvas.Clear()
		m.canvas.DrawProfile(m.last.Profile, lo, hi)
		views = append(views, s.Panel.Render(m.canvas.String()))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, views[0], strings.Join(views[1:], "\n"))

	help := "SP:Freeze T:Theme ?:Help Q:Quit"
	if m.showHelp {
		help = "Space  freeze or unfreeze the display\nT      cycle themes (" + strings.Join(ThemeNames(), ", ") + ")\nQ      quit and cancel the run\n?      toggle this help"
	}
	return body + "\n" + s.Help.Render(help)
}

// RunLive shows m until the user quits.
func RunLive(m Live) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
