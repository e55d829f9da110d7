package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgManifestsLoaded MsgKind = iota
	MsgManifestOpened
	MsgProgressUpdate
	MsgCycleComplete
)

type manifestsLoaded struct {
	entries []manifest.Entry
	err     error
}

type manifestOpened struct {
	manifest *models.Manifest
	err      error
}

type cycleComplete struct {
	report *tasks.CycleReport
	err    error
}

// manifestsLoadedMsg is the constructor for [MsgManifestsLoaded]
func manifestsLoadedMsg(entries []manifest.Entry, err error) Msg {
	return Msg{kind: MsgManifestsLoaded, data: manifestsLoaded{entries, err}}
}

// manifestOpenedMsg is the constructor for [MsgManifestOpened]
func manifestOpenedMsg(m *models.Manifest, err error) Msg {
	return Msg{kind: MsgManifestOpened, data: manifestOpened{m, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// cycleCompleteMsg is the constructor for [MsgCycleComplete]
func cycleCompleteMsg(report *tasks.CycleReport, err error) Msg {
	return Msg{kind: MsgCycleComplete, data: cycleComplete{report, err}}
}
