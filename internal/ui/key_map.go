package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every [key.Binding] the views react to. Navigation inside lists is left to the bubbles list.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	sync    key.Binding
	reload  key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	bind := func(help string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
	}
	return keyMap{
		enter:   bind("open", "enter"),
		back:    bind("back", "esc"),
		yes:     bind("sync", "y"),
		no:      bind("cancel", "n"),
		sync:    bind("sync now", "s"),
		reload:  bind("reload", "R"),
		restart: bind("back to list", "r"),
		quit:    bind("quit", "q", "ctrl+c"),
	}
}

// forView returns the bindings shown in the help line of view. syncable hides the sync key when false.
func (k keyMap) forView(view ViewState, syncable bool) []key.Binding {
	switch view {
	case ManifestListView:
		if syncable {
			return []key.Binding{k.enter, k.sync, k.reload, k.quit}
		}
		return []key.Binding{k.enter, k.reload, k.quit}
	case TrackListView:
		return []key.Binding{k.back, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no, k.quit}
	case ResultView:
		return []key.Binding{k.restart, k.quit}
	default:
		return []key.Binding{k.quit}
	}
}
