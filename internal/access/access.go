// Package access decides message visibility.
//
// CanSee is a pure function over the current snapshots; it holds no state
// and must be re-evaluated on every query so visibility always reflects
// live membership data.
package access

import "github.com/openclack/clack/internal/types"

// CanSee reports whether viewerID is permitted to see msg.
//
// Rules, first match wins:
//  1. viewer is the DM recipient
//  2. viewer authored the message
//  3. channel message: viewer must be a member of the channel
//  4. thread reply: visibility follows the parent conversation, meaning channel
//     membership if the parent is a channel message, participant check if
//     the parent is a direct message
//  5. otherwise not visible
func CanSee(msg types.Message, viewerID string, messages []types.Message, channels []types.Channel) bool {
	if msg.DirectUserID != nil && *msg.DirectUserID == viewerID {
		return true
	}
	if msg.AuthorID == viewerID {
		return true
	}
	if msg.ChannelID != nil {
		return isMember(channels, *msg.ChannelID, viewerID)
	}
	if msg.IsThreadReply() {
		parent, ok := findParent(messages, msg.ID)
		if !ok {
			return false
		}
		if parent.ChannelID != nil {
			return isMember(channels, *parent.ChannelID, viewerID)
		}
		// Parent is a direct message: visible to its two participants.
		if parent.AuthorID == viewerID {
			return true
		}
		return parent.DirectUserID != nil && *parent.DirectUserID == viewerID
	}
	return false
}

// EffectiveConversation resolves the channel or DM peer that governs a
// message, following the thread parent when the message itself has neither.
// Returns the channel id or peer id and which one it is.
func EffectiveConversation(msg types.Message, messages []types.Message) (channelID, peerID string) {
	if msg.ChannelID != nil {
		return *msg.ChannelID, ""
	}
	if msg.DirectUserID != nil {
		return "", *msg.DirectUserID
	}
	parent, ok := findParent(messages, msg.ID)
	if !ok {
		return "", ""
	}
	if parent.ChannelID != nil {
		return *parent.ChannelID, ""
	}
	if parent.DirectUserID != nil {
		return "", *parent.DirectUserID
	}
	return "", ""
}

// FindParent scans messages for the one whose comment list contains id.
func FindParent(messages []types.Message, id string) (types.Message, bool) {
	return findParent(messages, id)
}

func findParent(messages []types.Message, id string) (types.Message, bool) {
	for _, m := range messages {
		if m.HasComment(id) {
			return m, true
		}
	}
	return types.Message{}, false
}

func isMember(channels []types.Channel, channelID, userID string) bool {
	for _, c := range channels {
		if c.ID == channelID {
			return c.Members[userID]
		}
	}
	return false
}
