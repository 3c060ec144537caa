// Package ui provides the emarket terminal interface built on Bubble Tea.
//
// The Model never mutates state directly. Key presses become tea.Cmds that
// call state.Dispatcher operations; results come back as opResultMsg and the
// model re-reads a snapshot. The store's Subscribe channel wakes the model
// when the background poller changes data.
//
// Tabs:
//
//   - Marketplace: the feed, title search, listing details, favorites toggle
//   - Favorites: the signed-in user's saved listings
//   - Addresses: up to three addresses with one primary
//   - Account: profile summary and the user's own listings
//
// Forms (sign in, address, search) validate with market.Validate before any
// request is made. The light/dark theme is stored through package prefs.
package ui
