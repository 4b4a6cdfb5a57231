package progress

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// taskStatus mirrors the teacher's internal/ui apply-model task lifecycle
// (pending/running/done/failed), narrowed to what a single install batch
// needs: vx has no layered-apply concept, just one flat set of runtimes
// resolved together by InstallAll.
type taskStatus int

const (
	taskPending taskStatus = iota
	taskRunning
	taskDone
	taskFailed
)

type taskState struct {
	runtime string
	version string
	status  taskStatus
	message string
}

var (
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	stylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type eventMsg Event

type doneMsg struct{}

type tuiModel struct {
	order []string
	tasks map[string]*taskState
	final bool
}

func newTUIModel() tuiModel {
	return tuiModel{tasks: make(map[string]*taskState)}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		e := Event(msg)
		t, ok := m.tasks[e.Runtime]
		if !ok {
			t = &taskState{runtime: e.Runtime}
			m.tasks[e.Runtime] = t
			m.order = append(m.order, e.Runtime)
		}
		if e.Version != "" {
			t.version = e.Version
		}
		switch e.Stage {
		case StagePending:
			t.status = taskPending
			t.message = "queued"
		case StageInstalled:
			t.status = taskDone
			t.message = e.Message
			if t.message == "" {
				t.message = "installed"
			}
		case StageFailed:
			t.status = taskFailed
			t.message = e.Message
		default:
			t.status = taskRunning
			t.message = string(e.Stage)
		}
		return m, nil
	case doneMsg:
		m.final = true
		return m, tea.Quit
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	for _, name := range m.order {
		t := m.tasks[name]
		symbol, style := "·", stylePending
		switch t.status {
		case taskDone:
			symbol, style = "✓", styleDone
		case taskFailed:
			symbol, style = "✗", styleFailed
		case taskRunning:
			symbol, style = "›", styleRunning
		}
		label := t.runtime
		if t.version != "" {
			label = fmt.Sprintf("%s@%s", t.runtime, t.version)
		}
		b.WriteString(style.Render(fmt.Sprintf("%s %-24s %s", symbol, label, t.message)))
		b.WriteByte('\n')
	}
	if !m.final {
		b.WriteString(stylePending.Render("installing..."))
		b.WriteByte('\n')
	}
	return b.String()
}

// TUIReporter is an alternative Reporter for `vx install` batches of more
// than one runtime: a live-updating bubbletea view listing every task, one
// line each in the order it was first reported, with its status, modeled on the teacher's internal/ui.ApplyModel (the apply-time
// multi-task progress screen for `tomei apply`), narrowed to vx's flat
// (non-layered) install-batch shape.
type TUIReporter struct {
	program *tea.Program
	stopped chan struct{}
}

// NewTUIReporter starts the bubbletea program in the background. Callers
// must eventually call Done to stop it and release the terminal.
func NewTUIReporter() *TUIReporter {
	p := tea.NewProgram(newTUIModel())
	r := &TUIReporter{program: p, stopped: make(chan struct{})}
	go func() {
		defer close(r.stopped)
		_, _ = p.Run()
	}()
	return r
}

func (r *TUIReporter) Report(e Event) {
	r.program.Send(eventMsg(e))
}

func (r *TUIReporter) Done() {
	r.program.Send(doneMsg{})
	<-r.stopped
}
