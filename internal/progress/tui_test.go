package progress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUIModel_UpdateTracksTaskStatusAcrossStages(t *testing.T) {
	m := newTUIModel()

	next, _ := m.Update(eventMsg(Event{Runtime: "node", Stage: StagePending}))
	m = next.(tuiModel)
	require.Len(t, m.order, 1)
	assert.Equal(t, taskPending, m.tasks["node"].status)

	next, _ = m.Update(eventMsg(Event{Runtime: "node", Version: "20.0.0", Stage: StageDownloading}))
	m = next.(tuiModel)
	assert.Equal(t, taskRunning, m.tasks["node"].status)
	assert.Equal(t, "20.0.0", m.tasks["node"].version)

	next, _ = m.Update(eventMsg(Event{Runtime: "node", Version: "20.0.0", Stage: StageInstalled}))
	m = next.(tuiModel)
	assert.Equal(t, taskDone, m.tasks["node"].status)

	// a second runtime reported independently must not disturb the first
	next, _ = m.Update(eventMsg(Event{Runtime: "go", Stage: StageFailed, Message: "checksum mismatch"}))
	m = next.(tuiModel)
	require.Len(t, m.order, 2)
	assert.Equal(t, taskFailed, m.tasks["go"].status)
	assert.Equal(t, taskDone, m.tasks["node"].status)
}

func TestTUIModel_DoneMsgFinalizesAndQuits(t *testing.T) {
	m := newTUIModel()
	next, cmd := m.Update(doneMsg{})
	m = next.(tuiModel)
	assert.True(t, m.final)
	assert.NotNil(t, cmd) // tea.Quit
}

func TestTUIModel_ViewRendersOneLinePerTaskWithStatusSymbol(t *testing.T) {
	m := newTUIModel()
	next, _ := m.Update(eventMsg(Event{Runtime: "node", Version: "20.0.0", Stage: StageInstalled}))
	m = next.(tuiModel)
	next, _ = m.Update(eventMsg(Event{Runtime: "go", Stage: StageFailed, Message: "boom"}))
	m = next.(tuiModel)
	next, _ = m.Update(doneMsg{})
	m = next.(tuiModel)

	out := m.View()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, out, "node@20.0.0")
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "boom")
}
