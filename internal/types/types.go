package types

import "sort"

// Message represents a single message document.
//
// A message is exactly one of: a channel message (ChannelID set), a direct
// message (DirectUserID set), or a thread reply (neither set; the parent is
// the message whose Comments list contains this message's ID).
type Message struct {
	ID           string   `json:"id"`
	AuthorID     string   `json:"author_id"`
	ChannelID    *string  `json:"channel_id,omitempty"`
	DirectUserID *string  `json:"direct_user_id,omitempty"`
	Body         string   `json:"body,omitempty"`
	Comments     []string `json:"comments"`
	Emojis       []string `json:"emojis"`
	Time         int64    `json:"time"`
}

// IsChannelMessage reports whether the message was posted to a channel.
func (m Message) IsChannelMessage() bool { return m.ChannelID != nil }

// IsDirectMessage reports whether the message was posted to a DM peer.
func (m Message) IsDirectMessage() bool { return m.ChannelID == nil && m.DirectUserID != nil }

// IsThreadReply reports whether the message is a reply inside a thread.
func (m Message) IsThreadReply() bool { return m.ChannelID == nil && m.DirectUserID == nil }

// HasComment reports whether the message's comment list contains id.
func (m Message) HasComment(id string) bool {
	for _, c := range m.Comments {
		if c == id {
			return true
		}
	}
	return false
}

// User represents a user document. LocalID is the stable primary key.
type User struct {
	LocalID  string `json:"local_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	PhotoURL string `json:"photo_url"`
}

// Channel represents a channel document. Members maps user LocalID to a
// membership flag; a user is a member only when the flag is exactly true.
type Channel struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Members     map[string]bool `json:"members"`
}

// MemberIDs returns the LocalIDs of users whose membership flag is true,
// in stable sorted order.
func (c Channel) MemberIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for id, isMember := range c.Members {
		if isMember {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// PresenceStatus is a user's realtime availability.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

// Viewer is the identity of the currently signed-in user.
type Viewer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photo_url"`
}

// ResultKind discriminates search result variants.
type ResultKind string

const (
	ResultKindMessage       ResultKind = "message"
	ResultKindDirectMessage ResultKind = "directMessage"
	ResultKindThread        ResultKind = "thread"
	ResultKindUser          ResultKind = "user"
	ResultKindChannel       ResultKind = "channel"
)

// SearchResult is one entry in a heterogeneous search result list.
type SearchResult interface {
	Kind() ResultKind
}

// MessageResult is a search hit on a message, direct message, or thread reply.
type MessageResult struct {
	Type            ResultKind `json:"type"`
	AuthorID        string     `json:"author_id"`
	AuthorName      string     `json:"author_name"`
	AuthorPhoto     string     `json:"author_photo"`
	ChannelID       string     `json:"channel_id"`
	ChannelName     string     `json:"channel_name"`
	Comments        []string   `json:"comments"`
	Emojis          []string   `json:"emojis"`
	Body            string     `json:"body"`
	Time            int64      `json:"time"`
	MessageID       string     `json:"message_id"`
	RespondentName  string     `json:"respondent_name,omitempty"`
	ParentMessageID string     `json:"parent_message_id,omitempty"`
}

// Kind returns the message variant (message, directMessage, or thread).
func (r MessageResult) Kind() ResultKind { return r.Type }

// UserResult is a search hit on a user.
type UserResult struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Photo    string `json:"photo"`
	Email    string `json:"email"`
}

func (r UserResult) Kind() ResultKind { return ResultKindUser }

// ChannelMember is a resolved member entry in a channel search result.
type ChannelMember struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Photo    string `json:"photo"`
}

// ChannelResult is a search hit on a channel the viewer belongs to.
type ChannelResult struct {
	ChannelID   string          `json:"channel_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Members     []ChannelMember `json:"members"`
}

func (r ChannelResult) Kind() ResultKind { return ResultKindChannel }

// Fallback display values for references that no longer resolve.
const (
	DeletedUserName    = "Gelöscht"
	DeletedUserPhoto   = "assets/img/avatars/avatar_default.svg"
	UnknownMemberName  = "Unknown"
	UnknownMemberPhoto = ""
)
