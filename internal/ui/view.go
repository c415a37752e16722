package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/openclack/clack/internal/chat"
	"github.com/openclack/clack/internal/types"
)

const sidebarWidth = 24

var (
	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			PaddingRight(1)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	authorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	highlightStyle = lipgloss.NewStyle().Background(lipgloss.Color("58"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Italic(true)
	onlineDot      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	offlineDot     = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render("○")
	resultKindTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
)

func nowUnix() int64 { return time.Now().Unix() }

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading…"
	}

	left := m.renderSidebar()
	var right string
	if m.searchMode {
		right = m.renderSearch()
	} else {
		right = m.renderConversation()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return body + "\n" + m.renderInputBar()
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("clack"))
	b.WriteString("\n\n")

	if m.filterActive {
		b.WriteString("filter: " + m.sidebarFilter + "▌\n")
	}

	matches := filterSidebar(m.sidebar, m.sidebarFilter)
	for i, idx := range matches {
		entry := m.sidebar[idx]
		line := entry.Label
		if entry.UserID != "" {
			dot := offlineDot
			if m.statuses[entry.UserID] == types.PresenceOnline {
				dot = onlineDot
			}
			line = dot + " " + line
		}
		if i == m.sidebarIndex {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return sidebarStyle.Height(m.height - 2).Render(b.String())
}

func (m *Model) renderConversation() string {
	width := m.width - sidebarWidth - 2

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.conversationTitle()))
	b.WriteString("\n\n")

	m.render.BeginFrame(messageListContainer)
	for _, msg := range m.messages {
		m.render.Mark(messageListContainer, msg.ID)
		b.WriteString(m.renderMessage(msg, width))
		b.WriteByte('\n')
	}

	if m.thread.Visible {
		b.WriteString("\n")
		b.WriteString(m.renderThreadPanel(width))
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (m *Model) renderMessage(msg types.Message, width int) string {
	author := types.DeletedUserName
	for _, u := range m.users {
		if u.LocalID == msg.AuthorID {
			author = u.Username
			break
		}
	}

	ts := time.Unix(msg.Time, 0).Format("15:04")
	line := fmt.Sprintf("%s %s  %s",
		authorStyle.Render(author),
		timeStyle.Render(ts),
		chat.HighlightCodeBlocks(msg.Body))

	if len(msg.Emojis) > 0 {
		line += "  " + strings.Join(msg.Emojis, " ")
	}
	if len(msg.Comments) > 0 {
		line += timeStyle.Render(fmt.Sprintf("  ↳ %d replies", len(msg.Comments)))
	}

	if m.render.Highlighted(msg.ID) {
		line = highlightStyle.Render(line)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

func (m *Model) renderThreadPanel(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("thread"))
	b.WriteByte('\n')

	var parent *types.Message
	for i := range m.allMsgs {
		if m.allMsgs[i].ID == m.thread.Current {
			parent = &m.allMsgs[i]
			break
		}
	}
	if parent == nil {
		b.WriteString(statusStyle.Render("(message unavailable)"))
		return b.String()
	}

	b.WriteString(m.renderMessage(*parent, width))
	b.WriteByte('\n')
	for _, replyID := range parent.Comments {
		for _, msg := range m.allMsgs {
			if msg.ID == replyID {
				b.WriteString("  " + m.renderMessage(msg, width-2))
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func (m *Model) renderSearch() string {
	width := m.width - sidebarWidth - 2

	var b strings.Builder
	b.WriteString(headerStyle.Render("search"))
	b.WriteString(": " + m.searchQuery + "▌\n\n")

	if len(m.searchResults) == 0 {
		b.WriteString(statusStyle.Render("no results"))
		return lipgloss.NewStyle().Width(width).Render(b.String())
	}

	for i, result := range m.searchResults {
		line := renderResult(result)
		if i == m.searchIndex {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func renderResult(result types.SearchResult) string {
	switch hit := result.(type) {
	case types.MessageResult:
		tag := string(hit.Kind())
		where := hit.ChannelName
		if where == "" {
			where = hit.ChannelID
		}
		return fmt.Sprintf("%s %s in %s: %s",
			resultKindTag.Render("["+tag+"]"), hit.AuthorName, where, hit.Body)
	case types.UserResult:
		return fmt.Sprintf("%s @%s <%s>",
			resultKindTag.Render("[user]"), hit.Username, hit.Email)
	case types.ChannelResult:
		return fmt.Sprintf("%s #%s (%d members)",
			resultKindTag.Render("[channel]"), hit.Name, len(hit.Members))
	}
	return ""
}

func (m *Model) renderInputBar() string {
	return m.input.View()
}

func (m *Model) conversationTitle() string {
	switch m.selection.Kind {
	case chat.SelectionChannel:
		if m.selection.Channel != nil {
			return "#" + m.selection.Channel.Name
		}
		return "#" + m.selection.ChannelID
	case chat.SelectionDirectMessage:
		if m.selection.Peer != nil {
			return "@" + m.selection.Peer.Username
		}
		return "@" + m.selection.PeerID
	case chat.SelectionComposeNew:
		return "new message"
	}
	return "no conversation selected"
}
