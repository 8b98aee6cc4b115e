package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/tilefetch/internal/config"
	"github.com/handiism/tilefetch/internal/download"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_PrefillsFromSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.DestFolder = "data"
	settings.Imagery = "scene.tif"
	settings.SkipExisting = true

	m := NewModel(settings)
	if got := m.inputs[inputDest].Value(); got != "data" {
		t.Errorf("dest input = %q, want data", got)
	}
	if got := m.inputs[inputImagery].Value(); got != "scene.tif" {
		t.Errorf("imagery input = %q, want scene.tif", got)
	}
	if !m.skipExisting {
		t.Error("skipExisting should follow settings")
	}
}

func TestModel_Toggles(t *testing.T) {
	m := NewModel(nil)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.skipExisting {
		t.Error("ctrl+s should enable skip existing")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if !m.verbose {
		t.Error("ctrl+l should enable verbose")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != inputImagery {
		t.Errorf("focus = %d, want imagery input", m.focus)
	}

	rs := m.runSettings()
	if !rs.SkipExisting {
		t.Error("runSettings should carry skip existing")
	}
	if m.settings.SkipExisting {
		t.Error("runSettings should not modify the base settings")
	}
}

func TestModel_CollectLogsFiltersVerbose(t *testing.T) {
	m := NewModel(nil)
	m.events.push(download.ProgressEvent{Message: "reading", Level: download.LevelVerbose})
	m.events.push(download.ProgressEvent{Message: "Downloading all 2 tiles to x", Level: download.LevelInfo})

	m.collectLogs()
	if len(m.logs) != 1 || m.logs[0].Level != download.LevelInfo {
		t.Errorf("logs = %+v, want only the info entry", m.logs)
	}

	for i := 0; i < maxLogs+5; i++ {
		m.events.push(download.ProgressEvent{Message: "x", Level: download.LevelError})
	}
	m.collectLogs()
	if len(m.logs) != maxLogs {
		t.Errorf("len(logs) = %d, want %d", len(m.logs), maxLogs)
	}
}

func TestModel_DownloadDone(t *testing.T) {
	m := NewModel(nil)
	m.state = StateDownloading

	summary := &download.Summary{Total: 2, Succeeded: 2, Dir: "data/tiles_all"}
	m = update(t, m, DownloadDoneMsg{Summary: summary})
	if m.state != StateComplete {
		t.Fatalf("state = %v, want complete", m.state)
	}
	if !strings.Contains(m.View(), "Tiles: 2/2") {
		t.Errorf("View() missing tile count:\n%s", m.View())
	}

	m = NewModel(nil)
	m.state = StateInitializing
	m = update(t, m, InitDoneMsg{Err: errors.New("labels missing")})
	if m.state != StateError || !strings.Contains(m.View(), "labels missing") {
		t.Errorf("state = %v, view = %s", m.state, m.View())
	}
}
