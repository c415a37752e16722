package ui

import (
	"strings"

	"github.com/openclack/clack/internal/types"
)

// sidebarEntry is one selectable row in the sidebar: a channel or a DM
// peer.
type sidebarEntry struct {
	ChannelID string
	UserID    string
	Label     string
}

func buildSidebar(channels []types.Channel, users []types.User, viewerID string) []sidebarEntry {
	entries := make([]sidebarEntry, 0, len(channels)+len(users))
	for _, ch := range channels {
		if !ch.Members[viewerID] {
			continue
		}
		entries = append(entries, sidebarEntry{ChannelID: ch.ID, Label: "#" + ch.Name})
	}
	for _, u := range users {
		label := "@" + u.Username
		if u.LocalID == viewerID {
			label += " (you)"
		}
		entries = append(entries, sidebarEntry{UserID: u.LocalID, Label: label})
	}
	return entries
}

// filterSidebar returns the indexes of entries matching the term,
// case-insensitively. An empty term matches everything.
func filterSidebar(entries []sidebarEntry, term string) []int {
	term = strings.ToLower(strings.TrimSpace(term))
	matches := make([]int, 0, len(entries))
	for i, e := range entries {
		if term == "" || strings.Contains(strings.ToLower(e.Label), term) {
			matches = append(matches, i)
		}
	}
	return matches
}
