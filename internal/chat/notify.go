package chat

import (
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/gobwas/glob"

	"github.com/openclack/clack/internal/types"
)

// NotifyRules controls which incoming messages raise a desktop
// notification. MutePatterns are glob patterns matched against channel
// names ("team-*" mutes every team channel).
type NotifyRules struct {
	MutePatterns []string
}

// ShouldNotify decides whether msg deserves a notification for the viewer.
// Own messages never notify; DMs to the viewer always do (unless the DM
// conversation is already active); channel messages notify members unless
// the channel name matches a mute pattern or the channel is already active.
func ShouldNotify(msg types.Message, viewerID string, active Selection, channels []types.Channel, rules NotifyRules) bool {
	if msg.AuthorID == viewerID {
		return false
	}

	if msg.DirectUserID != nil && *msg.DirectUserID == viewerID {
		return !(active.Kind == SelectionDirectMessage && active.PeerID == msg.AuthorID)
	}

	if msg.ChannelID != nil {
		if active.Kind == SelectionChannel && active.ChannelID == *msg.ChannelID {
			return false
		}
		channel := findChannel(channels, *msg.ChannelID)
		if channel == nil || !channel.Members[viewerID] {
			return false
		}
		return !isMuted(channel.Name, rules.MutePatterns)
	}

	return false
}

// Notify raises the desktop notification for a message.
func Notify(authorName, body string) error {
	return beeep.Notify(authorName, truncateNotification(body, 100), "")
}

func isMuted(channelName string, patterns []string) bool {
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if matcher.Match(channelName) {
			return true
		}
	}
	return false
}

func findChannel(channels []types.Channel, id string) *types.Channel {
	for i := range channels {
		if channels[i].ID == id {
			return &channels[i]
		}
	}
	return nil
}

func truncateNotification(s string, maxLen int) string {
	// Collapse whitespace for the one-line notification body.
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
