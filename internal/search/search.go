// Package search fuses the message, user, and channel streams into a
// ranked, access-controlled result list.
package search

import (
	"strings"

	"go.uber.org/zap"

	"github.com/openclack/clack/internal/access"
	"github.com/openclack/clack/internal/stream"
	"github.com/openclack/clack/internal/types"
)

// Aggregator runs queries against the latest snapshots of the three
// collection streams. It holds no derived state beyond the edge-triggered
// "has results" signal; every query recomputes from scratch so results
// always reflect live membership data.
type Aggregator struct {
	messages *stream.Value[[]types.Message]
	users    *stream.Value[[]types.User]
	channels *stream.Value[[]types.Channel]
	viewerID string
	log      *zap.SugaredLogger

	hasResults *stream.Value[bool]
}

// New creates an aggregator over the given collection streams.
func New(
	messages *stream.Value[[]types.Message],
	users *stream.Value[[]types.User],
	channels *stream.Value[[]types.Channel],
	viewerID string,
	log *zap.SugaredLogger,
) *Aggregator {
	return &Aggregator{
		messages:   messages,
		users:      users,
		channels:   channels,
		viewerID:   viewerID,
		log:        log,
		hasResults: stream.New(false),
	}
}

// HasResults carries whether the most recent query produced any results.
// Published only on change.
func (a *Aggregator) HasResults() *stream.Value[bool] { return a.hasResults }

// Search runs a query against the current snapshots and updates the
// has-results signal.
func (a *Aggregator) Search(query string) []types.SearchResult {
	results := Search(query, a.messages.Get(), a.users.Get(), a.channels.Get(), a.viewerID)
	a.hasResults.SetIfChanged(len(results) > 0, func(x, y bool) bool { return x == y })
	return results
}

// Search is the pure query function. Results are grouped message results
// first, then users, then channels, stable within each group in snapshot
// order. An empty or whitespace-only query yields no results.
func Search(query string, messages []types.Message, users []types.User, channels []types.Channel, viewerID string) []types.SearchResult {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return []types.SearchResult{}
	}

	// "@name" and "#name" address users and channels directly; the sigil is
	// not part of the stored name. A bare sigil lists the whole collection.
	userTerm := strings.TrimPrefix(term, "@")
	channelTerm := strings.TrimPrefix(term, "#")

	byID := usersByID(users)
	results := []types.SearchResult{}

	for _, msg := range messages {
		if !messageMatches(msg, term, byID) {
			continue
		}
		if !access.CanSee(msg, viewerID, messages, channels) {
			continue
		}
		results = append(results, buildMessageResult(msg, messages, channels, byID, viewerID))
	}

	for _, user := range users {
		if strings.Contains(strings.ToLower(user.Username), userTerm) ||
			strings.Contains(strings.ToLower(user.Email), userTerm) {
			results = append(results, types.UserResult{
				Username: user.Username,
				UserID:   user.LocalID,
				Photo:    user.PhotoURL,
				Email:    user.Email,
			})
		}
	}

	for _, channel := range channels {
		if !strings.Contains(strings.ToLower(channel.Name), channelTerm) {
			continue
		}
		if !channel.Members[viewerID] {
			continue
		}
		results = append(results, types.ChannelResult{
			ChannelID:   channel.ID,
			Name:        channel.Name,
			Description: channel.Description,
			Members:     resolveMembers(channel, byID),
		})
	}

	return results
}

func messageMatches(msg types.Message, term string, byID map[string]types.User) bool {
	if strings.Contains(strings.ToLower(msg.Body), term) {
		return true
	}
	if author, ok := byID[msg.AuthorID]; ok {
		return strings.Contains(strings.ToLower(author.Username), term)
	}
	return false
}

func buildMessageResult(msg types.Message, messages []types.Message, channels []types.Channel, byID map[string]types.User, viewerID string) types.MessageResult {
	kind := types.ResultKindThread
	switch {
	case msg.IsChannelMessage():
		kind = types.ResultKindMessage
	case msg.IsDirectMessage():
		kind = types.ResultKindDirectMessage
	}

	authorName := types.DeletedUserName
	authorPhoto := types.DeletedUserPhoto
	if author, ok := byID[msg.AuthorID]; ok {
		authorName = author.Username
		authorPhoto = author.PhotoURL
	}

	// Resolve the conversation the message belongs to, following the
	// thread parent when the message itself has neither channel nor peer.
	channelID, peerID := access.EffectiveConversation(msg, messages)

	// The stored peer id is the recipient. For a DM the viewer received,
	// the conversation from the viewer's side is the sender, so navigation
	// and the display name must point at the other party. Self-chat keeps
	// the viewer's own id.
	if peerID == viewerID {
		sender := msg.AuthorID
		if kind == types.ResultKindThread {
			if parent, ok := access.FindParent(messages, msg.ID); ok {
				sender = parent.AuthorID
			}
		}
		if sender != viewerID {
			peerID = sender
		}
	}

	conversationID := channelID
	conversationName := ""
	if channelID != "" {
		conversationName = channelName(channels, channelID)
	} else if peerID != "" {
		conversationID = peerID
		if peer, ok := byID[peerID]; ok {
			conversationName = peer.Username
		} else {
			conversationName = types.DeletedUserName
		}
	}

	result := types.MessageResult{
		Type:        kind,
		AuthorID:    msg.AuthorID,
		AuthorName:  authorName,
		AuthorPhoto: authorPhoto,
		ChannelID:   conversationID,
		ChannelName: conversationName,
		Comments:    msg.Comments,
		Emojis:      msg.Emojis,
		Body:        msg.Body,
		Time:        msg.Time,
		MessageID:   msg.ID,
	}

	if kind == types.ResultKindThread {
		if parent, ok := access.FindParent(messages, msg.ID); ok {
			result.ParentMessageID = parent.ID
			if respondent, ok := byID[parent.AuthorID]; ok {
				result.RespondentName = respondent.Username
			} else {
				result.RespondentName = types.DeletedUserName
			}
		}
	}

	return result
}

func resolveMembers(channel types.Channel, byID map[string]types.User) []types.ChannelMember {
	members := []types.ChannelMember{}
	for _, id := range channel.MemberIDs() {
		member := types.ChannelMember{
			UserID:   id,
			Username: types.UnknownMemberName,
			Photo:    types.UnknownMemberPhoto,
		}
		if user, ok := byID[id]; ok {
			member.Username = user.Username
			member.Photo = user.PhotoURL
		}
		members = append(members, member)
	}
	return members
}

func channelName(channels []types.Channel, id string) string {
	for _, c := range channels {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func usersByID(users []types.User) map[string]types.User {
	byID := make(map[string]types.User, len(users))
	for _, u := range users {
		byID[u.LocalID] = u
	}
	return byID
}
