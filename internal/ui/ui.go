package ui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/resound/internal/repositories"
	"github.com/desertthunder/resound/internal/storage"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AssetListView ViewState = iota
	ConfirmDeleteView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	store     storage.Store
	tracks    *repositories.TrackRepository
	width     int
	height    int
	assetList list.Model
	selected  *assetItem
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates the cache browser over the given store and track repository.
//
// The track repository may be nil; rows then show identifiers without titles.
func NewModel(ctx context.Context, store storage.Store, tracks *repositories.TrackRepository) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Cached Assets"
	l.SetShowHelp(false)

	return Model{
		ctx:       ctx,
		view:      AssetListView,
		store:     store,
		tracks:    tracks,
		assetList: l,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the asset listing.
func (m Model) Init() tea.Cmd {
	return m.loadAssets
}

// loadAssets is a tea.Cmd enumerating the store and joining track titles.
func (m Model) loadAssets() tea.Msg {
	assets, err := m.store.List(m.ctx)
	if err != nil {
		return assetsLoadedMsg(nil, err)
	}

	items := make([]assetItem, 0, len(assets))
	for _, a := range assets {
		item := assetItem{
			videoID:    a.VideoID,
			size:       a.Size,
			lastAccess: a.LastAccess,
		}

		if m.tracks != nil {
			track, err := m.tracks.GetByVideoID(a.VideoID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return assetsLoadedMsg(nil, err)
			}
			if track != nil {
				item.title = track.Title()
				item.artist = track.Artist()
			}
		}

		items = append(items, item)
	}

	return assetsLoadedMsg(items, nil)
}

// deleteAsset is a tea.Cmd removing one asset from the store.
func (m Model) deleteAsset(videoID string) tea.Cmd {
	return func() tea.Msg {
		removed, err := m.store.Delete(m.ctx, videoID)
		if err == nil && !removed {
			err = fmt.Errorf("asset %s was already gone", videoID)
		}
		return assetDeletedMsg(videoID, err)
	}
}

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.assetList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.assetList, cmd = m.assetList.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	switch m.view {
	case AssetListView:
		switch {
		case key.Matches(msg, m.keys.refresh):
			m.status = "refreshing..."
			return m, m.loadAssets
		case key.Matches(msg, m.keys.remove):
			if item, ok := m.assetList.SelectedItem().(assetItem); ok {
				m.selected = &item
				m.view = ConfirmDeleteView
			}
			return m, nil
		}

	case ConfirmDeleteView:
		switch {
		case key.Matches(msg, m.keys.yes):
			if m.selected != nil {
				videoID := m.selected.videoID
				m.view = AssetListView
				m.status = fmt.Sprintf("deleting %s...", videoID)
				return m, m.deleteAsset(videoID)
			}
			m.view = AssetListView
			return m, nil
		case key.Matches(msg, m.keys.no):
			m.selected = nil
			m.view = AssetListView
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.assetList, cmd = m.assetList.Update(msg)
	return m, cmd
}

func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAssetsLoaded:
		data := msg.data.(struct {
			assets []assetItem
			err    error
		})
		if data.err != nil {
			m.err = data.err
			return m, nil
		}

		items := make([]list.Item, len(data.assets))
		for i, a := range data.assets {
			items[i] = a
		}
		m.assetList.SetItems(items)
		m.err = nil
		m.status = fmt.Sprintf("%d cached assets", len(items))
		return m, nil

	case MsgAssetDeleted:
		data := msg.data.(struct {
			videoID string
			err     error
		})
		m.selected = nil
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.status = fmt.Sprintf("deleted %s", data.videoID)
		return m, m.loadAssets
	}

	return m, nil
}

// View renders the current view.
func (m Model) View() string {
	switch m.view {
	case ConfirmDeleteView:
		if m.selected == nil {
			return styles.err.Render("nothing selected")
		}
		return fmt.Sprintf("%s\n\n%s\n\n%s",
			styles.title.Render("Delete cached asset?"),
			fmt.Sprintf("%s (%s)", m.selected.Title(), m.selected.videoID),
			styles.help.Render("y: delete • n: cancel"),
		)

	default:
		view := m.assetList.View()
		if m.err != nil {
			view += "\n" + styles.err.Render(fmt.Sprintf("error: %v", m.err))
		} else if m.status != "" {
			view += "\n" + styles.ok.Render(m.status)
		}
		view += "\n" + m.help.View(m.keys)
		return view
	}
}
