// Package progress renders install-pipeline progress events to a terminal,
// following the teacher's progress-manager shape: an mpb.Progress bar set
// when stdout is a TTY, and plain color-aware line logging otherwise.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Stage is one named step of the install pipeline state machine (spec §4.7).
type Stage string

const (
	StagePending     Stage = "pending"
	StageDownloading Stage = "downloading"
	StageVerifying   Stage = "verifying"
	StageExtracting  Stage = "extracting"
	StageNormalizing Stage = "normalizing"
	StagePostInstall Stage = "post_install"
	StageInstalled   Stage = "installed"
	StageFailed      Stage = "failed"
)

// Event is one progress update emitted by the install executor.
type Event struct {
	Runtime string
	Version string
	Stage   Stage
	Message string

	// Current/Total describe byte-level progress during StageDownloading
	// and StageExtracting; both zero means indeterminate.
	Current int64
	Total   int64
}

// Reporter consumes a stream of Events and renders them. Implementations
// must be safe for concurrent use, since independent installs may report
// concurrently (spec §5 concurrency model).
type Reporter interface {
	Report(Event)
	Done()
}

// Manager is the default Reporter: an mpb bar set in a TTY, plain
// color-aware log lines otherwise.
type Manager struct {
	mu       sync.Mutex
	w        io.Writer
	isTTY    bool
	progress *mpb.Progress
	bars     map[string]*mpb.Bar
}

// NewManager returns a Manager writing to w, auto-detecting TTY-ness from w
// when it is os.Stdout (mirrors the teacher's isatty-gated bar rendering).
func NewManager(w io.Writer) *Manager {
	isTTY := false
	if w == os.Stdout {
		isTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	m := &Manager{w: w, isTTY: isTTY, bars: make(map[string]*mpb.Bar)}
	if isTTY {
		m.progress = mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))
	}
	return m
}

// Report renders one Event, either updating/creating an mpb bar or printing
// a colorized line.
func (m *Manager) Report(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ev.Runtime + "@" + ev.Version

	if m.isTTY && ev.Stage == StageDownloading && ev.Total > 0 {
		bar, ok := m.bars[key]
		if !ok {
			bar = m.progress.AddBar(ev.Total,
				mpb.PrependDecorators(decor.Name(fmt.Sprintf("%s %s", ev.Runtime, ev.Version))),
				mpb.AppendDecorators(decor.Percentage()),
			)
			m.bars[key] = bar
		}
		bar.SetCurrent(ev.Current)
		return
	}

	m.printLine(ev)
}

func (m *Manager) printLine(ev Event) {
	label := stageLabel(ev.Stage)
	line := fmt.Sprintf("%s %s@%s %s", label, ev.Runtime, ev.Version, ev.Message)
	fmt.Fprintln(m.w, line)
}

func stageLabel(s Stage) string {
	switch s {
	case StageInstalled:
		return color.GreenString("✓")
	case StageFailed:
		return color.RedString("✗")
	default:
		return color.CyanString("→")
	}
}

// Done finalizes any open bars.
func (m *Manager) Done() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progress != nil {
		for _, bar := range m.bars {
			if !bar.Completed() {
				bar.SetCurrent(bar.Current())
				bar.Abort(false)
			}
		}
		m.progress.Wait()
	}
}

var _ Reporter = (*Manager)(nil)

// NullReporter discards every event; used for non-interactive/JSON output modes.
type NullReporter struct{}

func (NullReporter) Report(Event) {}
func (NullReporter) Done()        {}

var _ Reporter = NullReporter{}
