// Package ui is the terminal front end. It renders the core's derived
// streams and feeds user actions back into the selector, thread
// coordinator, and search aggregator; it holds no business rules of its
// own.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/openclack/clack/internal/chat"
	"github.com/openclack/clack/internal/presence"
	"github.com/openclack/clack/internal/reveal"
	"github.com/openclack/clack/internal/search"
	"github.com/openclack/clack/internal/store"
	"github.com/openclack/clack/internal/types"
)

// messageListContainer is the container id the reveal orchestrator polls.
const messageListContainer = "message-list"

// Options configure the chat UI.
type Options struct {
	Store    store.Store
	Viewer   types.Viewer
	Presence *presence.Keeper
	Mute     chat.NotifyRules
	Log      *zap.SugaredLogger
}

// Run starts the chat UI and blocks until it exits.
func Run(opts Options) error {
	model := NewModel(opts)
	defer model.Close()

	fmt.Printf("\033]0;clack\007")
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Stream update messages delivered through the model's update channel.
type (
	messagesMsg    []types.Message
	allMessagesMsg []types.Message
	channelsMsg    []types.Channel
	usersMsg       []types.User
	threadMsg      chat.ThreadState
	presenceMsg    map[string]types.PresenceStatus
	selectionMsg   chat.Selection
	revealDone     struct{ ok bool }
)

// Model implements the chat UI.
type Model struct {
	store    store.Store
	viewer   types.Viewer
	selector *chat.Selector
	threads  *chat.ThreadCoordinator
	searcher *search.Aggregator
	presence *presence.Keeper
	revealer *reveal.Orchestrator
	render   *RenderState
	mute     chat.NotifyRules
	log      *zap.SugaredLogger

	input textarea.Model

	width  int
	height int

	messages  []types.Message
	allMsgs   []types.Message
	channels  []types.Channel
	users     []types.User
	statuses  map[string]types.PresenceStatus
	thread    chat.ThreadState
	selection chat.Selection

	sidebar       []sidebarEntry
	sidebarIndex  int
	sidebarFilter string
	filterActive  bool

	searchMode    bool
	searchQuery   string
	searchResults []types.SearchResult
	searchIndex   int

	scrollTo string
	status   string

	updates chan tea.Msg
	cancels []func()
}

// NewModel builds the model and subscribes it to the core streams.
func NewModel(opts Options) *Model {
	m := &Model{
		store:    opts.Store,
		viewer:   opts.Viewer,
		presence: opts.Presence,
		mute:     opts.Mute,
		log:      opts.Log,
		render:   NewRenderState(),
		statuses: map[string]types.PresenceStatus{},
		updates:  make(chan tea.Msg, 64),
	}

	m.selector = chat.NewSelector(opts.Store, opts.Viewer.ID, opts.Log)
	m.threads = chat.NewThreadCoordinator(opts.Log)
	m.searcher = search.New(
		opts.Store.Messages(), opts.Store.Users(), opts.Store.Channels(),
		opts.Viewer.ID, opts.Log)
	m.revealer = reveal.NewOrchestrator(m.render, opts.Log)

	m.input = textarea.New()
	m.input.Placeholder = "Message…"
	m.input.SetHeight(1)
	m.input.ShowLineNumbers = false
	m.input.Focus()

	m.cancels = append(m.cancels,
		m.selector.MessageList().Subscribe(func(msgs []types.Message) {
			m.push(messagesMsg(msgs))
		}),
		m.selector.Selection().Subscribe(func(sel chat.Selection) {
			m.push(selectionMsg(sel))
		}),
		opts.Store.Messages().Subscribe(func(msgs []types.Message) {
			m.push(allMessagesMsg(msgs))
		}),
		opts.Store.Channels().Subscribe(func(chs []types.Channel) {
			m.push(channelsMsg(chs))
		}),
		opts.Store.Users().Subscribe(func(us []types.User) {
			m.push(usersMsg(us))
		}),
		m.threads.State().Subscribe(func(st chat.ThreadState) {
			m.push(threadMsg(st))
		}),
	)
	if opts.Presence != nil {
		m.cancels = append(m.cancels,
			opts.Presence.Statuses().Subscribe(func(st map[string]types.PresenceStatus) {
				m.push(presenceMsg(st))
			}),
		)
	}

	return m
}

// Close tears down every stream subscription and pending timer.
func (m *Model) Close() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.selector.Close()
	m.threads.Stop()
	m.revealer.Stop()
}

// push delivers a stream update to the event loop without ever blocking
// the publishing stream.
func (m *Model) push(msg tea.Msg) {
	select {
	case m.updates <- msg:
	default:
		m.log.Debugw("dropping stale ui update")
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg { return <-m.updates }
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.listen())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - sidebarWidth - 4)
		return m, nil

	case messagesMsg:
		m.messages = msg
		return m, m.listen()

	case allMessagesMsg:
		m.maybeNotify(m.allMsgs, msg)
		m.allMsgs = msg
		return m, m.listen()

	case channelsMsg:
		m.channels = msg
		m.rebuildSidebar()
		return m, m.listen()

	case usersMsg:
		m.users = msg
		m.rebuildSidebar()
		return m, m.listen()

	case threadMsg:
		m.thread = chat.ThreadState(msg)
		return m, m.listen()

	case presenceMsg:
		m.statuses = msg
		return m, m.listen()

	case selectionMsg:
		m.selection = chat.Selection(msg)
		return m, m.listen()

	case revealDone:
		if target, _, ok := m.render.TakeScrollTarget(); ok {
			m.scrollTo = target
		}
		return m, m.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		switch {
		case m.searchMode:
			m.exitSearch()
		case m.thread.Visible:
			m.threads.Close()
		case m.filterActive:
			m.filterActive = false
			m.sidebarFilter = ""
		}
		return m, nil

	case "ctrl+f":
		m.searchMode = true
		m.searchQuery = ""
		m.searchResults = nil
		m.searchIndex = 0
		return m, nil

	case "ctrl+n":
		m.selector.ToggleNewMessage()
		return m, nil

	case "ctrl+k":
		m.filterActive = true
		m.sidebarFilter = ""
		return m, nil

	case "up", "down":
		m.moveSelection(msg.String() == "down")
		return m, nil

	case "tab":
		return m, m.selectSidebarEntry()

	case "enter":
		if m.searchMode {
			return m, m.openSearchResult()
		}
		return m, m.sendMessage()
	}

	if m.searchMode {
		m.editSearchQuery(msg)
		return m, nil
	}
	if m.filterActive {
		m.editSidebarFilter(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveSelection(down bool) {
	if m.searchMode {
		if down && m.searchIndex < len(m.searchResults)-1 {
			m.searchIndex++
		} else if !down && m.searchIndex > 0 {
			m.searchIndex--
		}
		return
	}
	entries := filterSidebar(m.sidebar, m.sidebarFilter)
	if len(entries) == 0 {
		return
	}
	if down && m.sidebarIndex < len(entries)-1 {
		m.sidebarIndex++
	} else if !down && m.sidebarIndex > 0 {
		m.sidebarIndex--
	}
}

func (m *Model) rebuildSidebar() {
	m.sidebar = buildSidebar(m.channels, m.users, m.viewer.ID)
	if m.sidebarIndex >= len(m.sidebar) {
		m.sidebarIndex = 0
	}
}

func (m *Model) selectSidebarEntry() tea.Cmd {
	matches := filterSidebar(m.sidebar, m.sidebarFilter)
	if m.sidebarIndex >= len(matches) {
		return nil
	}
	entry := m.sidebar[matches[m.sidebarIndex]]
	ctx := context.Background()
	if entry.ChannelID != "" {
		_ = m.selector.SelectChannel(ctx, entry.ChannelID)
	} else {
		_ = m.selector.SelectDirectMessage(ctx, entry.UserID)
	}
	m.filterActive = false
	m.sidebarFilter = ""
	return nil
}

func (m *Model) sendMessage() tea.Cmd {
	body := m.input.Value()
	if body == "" {
		return nil
	}

	msg := types.Message{AuthorID: m.viewer.ID, Body: body, Time: nowUnix()}
	sel := m.selection
	switch sel.Kind {
	case chat.SelectionChannel:
		msg.ChannelID = &sel.ChannelID
	case chat.SelectionDirectMessage:
		peer := sel.PeerID
		msg.DirectUserID = &peer
	default:
		m.status = "select a conversation first"
		return nil
	}

	if _, err := m.store.AddMessage(context.Background(), msg); err != nil {
		m.log.Warnw("send failed", "error", err)
		m.status = "send failed"
		return nil
	}
	m.input.Reset()
	m.selector.MessageSent()
	return nil
}

func (m *Model) exitSearch() {
	m.searchMode = false
	m.searchQuery = ""
	m.searchResults = nil
	m.searchIndex = 0
}

func (m *Model) editSearchQuery(msg tea.KeyMsg) {
	switch msg.String() {
	case "backspace":
		if len(m.searchQuery) > 0 {
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
		}
	default:
		if len(msg.Runes) > 0 {
			m.searchQuery += string(msg.Runes)
		}
	}
	m.searchResults = m.searcher.Search(m.searchQuery)
	m.searchIndex = 0
}

func (m *Model) editSidebarFilter(msg tea.KeyMsg) {
	switch msg.String() {
	case "backspace":
		if len(m.sidebarFilter) > 0 {
			m.sidebarFilter = m.sidebarFilter[:len(m.sidebarFilter)-1]
		}
	default:
		if len(msg.Runes) > 0 {
			m.sidebarFilter += string(msg.Runes)
		}
	}
	m.sidebarIndex = 0
}

// openSearchResult navigates to the selected result: channels and users
// become the active conversation, message hits additionally reveal the
// message once it renders.
func (m *Model) openSearchResult() tea.Cmd {
	if m.searchIndex >= len(m.searchResults) {
		return nil
	}
	result := m.searchResults[m.searchIndex]
	m.exitSearch()

	ctx := context.Background()
	switch hit := result.(type) {
	case types.ChannelResult:
		_ = m.selector.SelectChannel(ctx, hit.ChannelID)
		return nil

	case types.UserResult:
		_ = m.selector.SelectDirectMessage(ctx, hit.UserID)
		return nil

	case types.MessageResult:
		switch hit.Kind() {
		case types.ResultKindMessage:
			_ = m.selector.SelectChannel(ctx, hit.ChannelID)
		case types.ResultKindDirectMessage:
			_ = m.selector.SelectDirectMessage(ctx, hit.ChannelID)
		case types.ResultKindThread:
			// Open the parent conversation, then the thread panel.
			channelID, peerID := resolveThreadHome(hit, m.messages, m.channels)
			if channelID != "" {
				_ = m.selector.SelectChannel(ctx, channelID)
			} else if peerID != "" {
				_ = m.selector.SelectDirectMessage(ctx, peerID)
			}
			m.threads.Open(hit.ParentMessageID)
		}
		m.selector.SetPendingReveal(hit.MessageID)
		return m.revealCmd(hit.MessageID)
	}
	return nil
}

func resolveThreadHome(hit types.MessageResult, _ []types.Message, channels []types.Channel) (channelID, peerID string) {
	for _, ch := range channels {
		if ch.ID == hit.ChannelID {
			return ch.ID, ""
		}
	}
	return "", hit.ChannelID
}

// revealCmd runs the reveal orchestration off the event loop; the render
// state hands the resulting scroll target back on completion.
func (m *Model) revealCmd(messageID string) tea.Cmd {
	return func() tea.Msg {
		ok := m.revealer.Reveal(context.Background(), messageID, messageListContainer)
		return revealDone{ok: ok}
	}
}

// maybeNotify raises desktop notifications for messages that are new in
// this snapshot and addressed to the viewer.
func (m *Model) maybeNotify(old, next []types.Message) {
	if old == nil {
		// Initial replay of history; nothing is "new".
		return
	}
	seen := make(map[string]bool, len(old))
	for _, msg := range old {
		seen[msg.ID] = true
	}
	for _, msg := range next {
		if seen[msg.ID] {
			continue
		}
		if !chat.ShouldNotify(msg, m.viewer.ID, m.selection, m.channels, m.mute) {
			continue
		}
		author := types.DeletedUserName
		for _, u := range m.users {
			if u.LocalID == msg.AuthorID {
				author = u.Username
				break
			}
		}
		if err := chat.Notify(author, msg.Body); err != nil {
			m.log.Debugw("notification failed", "error", err)
		}
	}
}
