// Package ui renders build progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"blaise/internal/buildpipeline"
)

const statusWidth = 10

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)
)

// unitRow is one source file. Rows appear as the driver discovers units.
type unitRow struct {
	path    string
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
	err     error
}

func (r *unitRow) finished() bool {
	return r.status == buildpipeline.StatusDone || r.status == buildpipeline.StatusError
}

type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []*unitRow
	byPath  map[string]*unitRow
	phase   string // pipeline-wide stage shown in the header
	failed  bool
	width   int
	done    bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pipeline
// progress read from events until the channel is closed. files seeds the
// table; units discovered later get a row on their first event.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		byPath:  make(map[string]*unitRow, len(files)),
		width:   80,
	}
	for _, file := range files {
		m.row(file)
	}
	return m
}

func (m *progressModel) row(path string) *unitRow {
	if r, ok := m.byPath[path]; ok {
		return r
	}
	r := &unitRow{path: path, status: buildpipeline.StatusQueued}
	m.rows = append(m.rows, r)
	m.byPath[path] = r
	return r
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// apply records ev and returns the command animating the bar.
func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == buildpipeline.StatusError {
			m.failed = true
		}
		if label := stageLabel(ev.Stage); label != "" && ev.Status == buildpipeline.StatusWorking {
			m.phase = label
		}
		return nil
	}
	r := m.row(ev.File)
	r.stage = ev.Stage
	r.status = ev.Status
	r.elapsed += ev.Elapsed
	if ev.Err != nil {
		r.err = ev.Err
	}
	return m.bar.SetPercent(m.fraction())
}

// fraction weighs each unit by how far through the pipeline it got.
func (m *progressModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range m.rows {
		if r.finished() {
			total++
			continue
		}
		total += stageWeight(r.stage)
	}
	return total / float64(len(m.rows))
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 && m.phase == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-16, 20)
	for _, r := range m.rows {
		label := rowLabel(r)
		fmt.Fprintf(&b, "  %s %s", rowStyle(r).Render(fmt.Sprintf("%*s", statusWidth, label)), truncate(r.path, nameWidth))
		if r.finished() && r.elapsed > 0 {
			b.WriteString(elapsedStyle.Render(fmt.Sprintf(" %.1fms", float64(r.elapsed)/float64(time.Millisecond))))
		}
		b.WriteString("\n")
		if r.err != nil && m.done {
			fmt.Fprintf(&b, "  %*s %s\n", statusWidth, "", errorStyle.Render(truncate(r.err.Error(), nameWidth)))
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) header() string {
	header := m.title
	if m.phase != "" && !m.done {
		header = fmt.Sprintf("%s (%s)", header, m.phase)
	}
	switch {
	case m.done && m.failed:
		return "failed: " + header
	case m.done:
		return "done: " + header
	default:
		return m.spinner.View() + " " + header
	}
}

func rowLabel(r *unitRow) string {
	switch r.status {
	case buildpipeline.StatusQueued:
		return "queued"
	case buildpipeline.StatusError:
		return "error"
	case buildpipeline.StatusDone:
		if r.stage == buildpipeline.StageLoad {
			return "cached"
		}
		return "done"
	default:
		return stageLabel(r.stage)
	}
}

func rowStyle(r *unitRow) lipgloss.Style {
	switch r.status {
	case buildpipeline.StatusDone:
		return doneStyle
	case buildpipeline.StatusError:
		return errorStyle
	case buildpipeline.StatusWorking:
		return activeStyle
	default:
		return idleStyle
	}
}

func stageWeight(stage buildpipeline.Stage) float64 {
	switch stage {
	case buildpipeline.StageParse:
		return 0.1
	case buildpipeline.StageBind:
		return 0.4
	case buildpipeline.StageLower:
		return 0.7
	case buildpipeline.StageLoad, buildpipeline.StagePersist:
		return 0.9
	default:
		return 0
	}
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageParse:
		return "parsing"
	case buildpipeline.StageBind:
		return "binding"
	case buildpipeline.StageLower:
		return "lowering"
	case buildpipeline.StageLoad:
		return "loading"
	case buildpipeline.StagePersist:
		return "saving"
	case buildpipeline.StageLink:
		return "linking"
	case buildpipeline.StageRun:
		return "running"
	default:
		return ""
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
