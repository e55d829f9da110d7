package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ManifestListView ViewState = iota
	TrackListView
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	store        *manifest.Store
	cycler       tasks.Cycler
	width        int
	height       int
	manifestList list.Model
	entries      []manifest.Entry
	trackList    list.Model
	selected     *models.Manifest
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	report       *tasks.CycleReport
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. cycler may be nil, in which case on-demand sync is disabled.
func NewModel(ctx context.Context, store *manifest.Store, cycler tasks.Cycler) *Model {
	return &Model{
		ctx:          ctx,
		view:         ManifestListView,
		store:        store,
		cycler:       cycler,
		manifestList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Init initializes the TUI by listing the local manifests.
func (m *Model) Init() tea.Cmd {
	return m.loadManifests()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.manifestList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ManifestListView:
			return m.handleManifestListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgManifestsLoaded:
		data := msg.data.(manifestsLoaded)
		m.err = data.err
		m.entries = data.entries
		items := make([]list.Item, len(data.entries))
		for i, e := range data.entries {
			items[i] = manifestItem{entry: e}
		}
		cmd := m.manifestList.SetItems(items)
		m.manifestList.Title = fmt.Sprintf("Manifests in %s", m.store.Root())
		return m, cmd

	case MsgManifestOpened:
		data := msg.data.(manifestOpened)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.selected = data.manifest
		items := make([]list.Item, data.manifest.Len())
		for i, t := range data.manifest.Tracks {
			items[i] = trackItem{track: t}
		}
		m.trackList.ResetSelected()
		cmd := m.trackList.SetItems(items)
		m.trackList.Title = fmt.Sprintf("%s (%d tracks)", data.manifest.Title, data.manifest.Len())
		m.view = TrackListView
		return m, cmd

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgCycleComplete:
		data := msg.data.(cycleComplete)
		m.report = data.report
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.quit})
	}

	switch m.view {
	case ManifestListView:
		return m.renderManifestList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleManifestListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.manifestList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.err = nil
		return m, m.loadManifests()
	case key.Matches(msg, m.keys.sync):
		if m.cycler != nil {
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.manifestList.SelectedItem().(manifestItem); ok {
			return m, m.openManifest(item.entry)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ManifestListView
		m.selected = nil
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = ManifestListView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ManifestListView
		m.report = nil
		m.err = nil
		return m, m.loadManifests()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ManifestListView:
		m.manifestList, cmd = m.manifestList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadManifests() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		entries, err := store.List()
		return manifestsLoadedMsg(entries, err)
	}
}

func (m *Model) openManifest(e manifest.Entry) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		man, err := store.Read(e)
		return manifestOpenedMsg(man, err)
	}
}

func (m *Model) startSync() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.doneChan = done
	m.progress = tasks.ProgressUpdate{Message: "Starting sync..."}

	ctx, cycler := m.ctx, m.cycler
	go func() {
		report, err := cycler.RunCycle(ctx, progress)
		done <- cycleCompleteMsg(report, err)
	}()

	return m.waitForProgress()
}

// waitForProgress delivers the next progress update, or the completion message once the cycle ends.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) renderManifestList() string {
	helpKeys := m.keys.forView(ManifestListView, m.cycler != nil)
	body := m.manifestList.View()
	if len(m.entries) == 0 {
		body = styles.title.Render("No manifests yet") + "\n" +
			styles.help.Render(fmt.Sprintf("Run a sync to create manifests in %s", m.store.Root()))
	}
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	helpKeys := m.keys.forView(TrackListView, false)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Run a sync cycle now?")
	info := fmt.Sprintf("\nManifests: %d\nMissing tracks will be downloaded for every playlist.\n", len(m.entries))
	helpKeys := m.keys.forView(ConfirmView, false)
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPlaylists:
		phase = "Fetching playlists..."
	case tasks.FetchTracks, tasks.Compare:
		phase = fmt.Sprintf("Comparing playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Download:
		phase = fmt.Sprintf("Downloading (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.SaveManifest:
		phase = "Saving manifest..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.forView(ResultView, false))

	if m.report == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Sync failed: %v", m.err)
		}
		return styles.err.Render(msg) + "\n\n" + helpView
	}

	var b strings.Builder
	downloaded, failed, errored := m.report.Totals()
	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ Sync stopped: %v", m.err)))
	default:
		headline := map[models.RunStatus]string{
			models.RunSucceeded: "✓ Sync Complete!",
			models.RunPartial:   "! Sync finished with errors",
			models.RunFailed:    "✗ Sync failed",
		}[m.report.Status()]
		b.WriteString(styles.status(m.report.Status()).Render(headline))
	}
	b.WriteString(fmt.Sprintf("\n\nDownloaded: %d\nFailed: %d\nPlaylist errors: %d\nTook: %s\n",
		downloaded, failed, errored, shared.FormatDuration(m.report.FinishedAt.Sub(m.report.StartedAt))))

	for _, res := range m.report.Playlists {
		style := styles.status(res.Status())
		switch res.Status() {
		case models.RunFailed:
			b.WriteString(style.Render(fmt.Sprintf("\n  ✗ %s: %v", res.Playlist.Name, res.Err)))
		case models.RunPartial:
			b.WriteString(style.Render(fmt.Sprintf("\n  ! %s: %d downloaded, %d failed", res.Playlist.Name, len(res.Downloaded), len(res.Failed))))
			for _, out := range res.Failed {
				b.WriteString(fmt.Sprintf("\n      • %s - %s", out.Request.Track.Artist(), out.Request.Track.Title))
			}
		default:
			b.WriteString(fmt.Sprintf("\n  ✓ %s: %d downloaded", res.Playlist.Name, len(res.Downloaded)))
		}
	}

	return b.String() + "\n\n" + helpView
}
