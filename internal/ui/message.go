package ui

import (
	tea "github.com/charmbracelet/bubbletea"
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
	MsgAssetsLoaded MsgKind = iota
	MsgAssetDeleted
)

// assetsLoadedMsg is the constructor for [MsgAssetsLoaded]
func assetsLoadedMsg(assets []assetItem, err error) Msg {
	return Msg{
		kind: MsgAssetsLoaded,
		data: struct {
			assets []assetItem
			err    error
		}{assets, err},
	}
}

// assetDeletedMsg is the constructor for [MsgAssetDeleted]
func assetDeletedMsg(videoID string, err error) Msg {
	return Msg{
		kind: MsgAssetDeleted,
		data: struct {
			videoID string
			err     error
		}{videoID, err},
	}
}
