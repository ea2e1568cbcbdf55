// Package ui implements an interactive cache browser using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow over the audio cache:
//  1. [AssetListView] : Browse cached assets with title, size and last access
//  2. [ConfirmDeleteView] : Confirm removal of the selected asset
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Asset listings and deletions run as tea.Cmd functions so storage I/O never blocks the event loop.
//
// Keyboard navigation uses vim-style bindings (j/k, d, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
