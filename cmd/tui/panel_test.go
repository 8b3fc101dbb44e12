package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kcaldas/devconsole/pkg/console"
	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/provider"
	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCopier struct {
	copied []string
	err    error
}

func (r *recordingCopier) Copy(text string) error {
	if r.err != nil {
		return r.err
	}
	r.copied = append(r.copied, text)
	return nil
}

func newTestPanel(t *testing.T) (*Panel, *provider.Provider, *recordingCopier) {
	t.Helper()
	p := provider.New(
		provider.WithFacade(console.New()),
		provider.WithLogger(logging.NewDisabledLogger()),
	)
	t.Cleanup(func() { p.Close() })
	copier := &recordingCopier{}
	return NewPanel(p, copier, t.TempDir()), p, copier
}

func TestPanel_ToggleResetsUnread(t *testing.T) {
	panel, p, _ := newTestPanel(t)
	p.Debug("one")
	p.Debug("two")

	assert.Contains(t, panel.TriggerLine(), "[2]")
	assert.False(t, panel.Open())

	panel.Toggle()
	assert.True(t, panel.Open())
	assert.Equal(t, 0, p.State().UnreadCount)
	assert.NotContains(t, panel.TriggerLine(), "[")

	panel.Close()
	assert.False(t, panel.Open())
}

func TestPanel_ListIsOldestFirstAndFiltered(t *testing.T) {
	panel, p, _ := newTestPanel(t)
	p.Debug("App started")
	p.ErrorString("Network failure", "API Error")
	p.Debug("user clicked")

	lines := panel.ListLines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "App started")
	assert.True(t, strings.HasPrefix(lines[0], "> "))
	assert.Contains(t, lines[1], "API Error: Network failure")

	panel.CycleFilter()
	assert.Equal(t, "DEBUG", panel.Filter())
	assert.Len(t, panel.Visible(), 2)

	panel.CycleFilter()
	assert.Equal(t, "ERROR", panel.Filter())
	assert.Len(t, panel.Visible(), 1)

	panel.CycleFilter()
	panel.CycleFilter()
	panel.SetSearch("  CLICKED ")
	assert.Equal(t, "clicked", strings.ToLower(panel.Search()))
	require.Len(t, panel.Visible(), 1)
	assert.Equal(t, "user clicked", panel.Visible()[0].Message)
	assert.Contains(t, panel.StatusLine(), "search: CLICKED")

	panel.SetSearch("nothing matches")
	assert.Equal(t, []string{"No logs"}, panel.ListLines())
}

func TestPanel_SelectionAndDetails(t *testing.T) {
	panel, p, _ := newTestPanel(t)
	p.Debug("first")
	p.Error(errors.New("second"))

	e, ok := panel.Selected()
	require.True(t, ok)
	assert.Equal(t, "first", e.Message)

	panel.Move(-5)
	e, _ = panel.Selected()
	assert.Equal(t, "first", e.Message)

	panel.Move(10)
	e, _ = panel.Selected()
	assert.Equal(t, "second", e.Message)

	assert.Empty(t, panel.DetailText())
	panel.ToggleDetails()
	assert.Contains(t, panel.DetailText(), "Stack Trace:")

	panel.Move(-1)
	assert.Equal(t, "Full message: first", panel.DetailText())

	panel.SelectLast()
	e, _ = panel.Selected()
	assert.Equal(t, "second", e.Message)
}

func TestPanel_ClearNeedsConfirmation(t *testing.T) {
	panel, p, _ := newTestPanel(t)
	p.Debug("keep me")

	panel.ConfirmClear(true)
	assert.Len(t, p.State().Logs, 1, "no pending confirmation")

	panel.RequestClear()
	assert.True(t, panel.ConfirmingClear())
	panel.ConfirmClear(false)
	assert.Len(t, p.State().Logs, 1)

	panel.RequestClear()
	panel.Close()
	assert.False(t, panel.ConfirmingClear())
	assert.Len(t, p.State().Logs, 1)

	panel.RequestClear()
	panel.ConfirmClear(true)
	assert.Empty(t, p.State().Logs)
	assert.Equal(t, "Logs cleared", panel.Notice())
}

func TestPanel_Export(t *testing.T) {
	panel, p, _ := newTestPanel(t)
	p.Debug("exported")

	panel.Export()
	require.True(t, strings.HasPrefix(panel.Notice(), "Exported to "))

	path := strings.TrimPrefix(panel.Notice(), "Exported to ")
	assert.Regexp(t, `^logs_\d+\.json$`, filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exported")
}

func TestPanel_CopySelected(t *testing.T) {
	panel, p, copier := newTestPanel(t)

	panel.CopySelected()
	assert.Empty(t, copier.copied)

	p.Object(map[string]any{"id": 1}, "Payload")
	panel.CopySelected()
	assert.Equal(t, []string{"{\n  \"id\": 1\n}"}, copier.copied)
	assert.Equal(t, "Copied", panel.Notice())

	copier.err = errors.New("no clipboard")
	panel.CopySelected()
	assert.Equal(t, "Copy failed: no clipboard", panel.Notice())
}

func TestPanel_StatusLine(t *testing.T) {
	panel, _, _ := newTestPanel(t)
	assert.Equal(t, "filter: ALL | SESSION MODE", panel.StatusLine())

	p := provider.New(
		provider.WithFacade(console.New()),
		provider.WithLogger(logging.NewDisabledLogger()),
		provider.WithPersistence(types.DriverLocalStorage),
	)
	defer p.Close()
	persistent := NewPanel(p, &recordingCopier{}, t.TempDir())
	assert.Equal(t, "filter: ALL | DRIVER: LOCALSTORAGE", persistent.StatusLine())
}
