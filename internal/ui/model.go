/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/adaryorg/ghostyle/internal/card"
	"github.com/adaryorg/ghostyle/internal/clipboard"
	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/storage"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeDetail
	modeCard
	modeHelp
	modeConfirmDelete
)

// Dark filter states, cycled with the toggle key.
const (
	filterAll   = ""
	filterDark  = "dark"
	filterLight = "light"
)

// Card size used for clipboard images, matching the HTTP card endpoint.
const (
	cardWidth  = 1200
	cardHeight = 630
)

// The browser votes as the local user.
const (
	localVoterIP    = "127.0.0.1"
	localVoterAgent = "ghostyle-browser"
)

type Model struct {
	svc    *gallery.Service
	config *config.Config
	theme  *ThemeService
	styles Styles
	keys   keyMap
	caps   Capabilities

	highlighter *Highlighter

	items         []storage.ConfigMeta
	filteredItems []storage.ConfigMeta
	cursor        int
	visibleStart  int
	darkFilter    string
	search        textinput.Model
	currentMode   mode
	previousMode  mode
	width         int
	height        int

	detail           *gallery.Preview
	cardPNG          []byte
	detailScroll     int
	helpScrollOffset int
	deleteCandidate  *storage.ConfigMeta

	status    string
	statusErr bool

	copyText  func(string) error
	copyImage func([]byte) error
}

// Messages produced by commands.
type (
	itemsLoadedMsg struct {
		items []storage.ConfigMeta
		err   error
	}
	detailLoadedMsg struct {
		preview *gallery.Preview
		err     error
	}
	statusMsg struct {
		text string
		err  error
	}
	voteMsg struct {
		id     string
		result gallery.VoteResult
		err    error
	}
	deletedMsg struct {
		id    string
		title string
		err   error
	}
	cardLoadedMsg struct {
		png []byte
		err error
	}
	editCompleteMsg struct {
		slug string
		err  error
	}
)

func NewModel(svc *gallery.Service, cfg *config.Config) Model {
	caps := DetectCapabilities()

	search := textinput.New()
	search.Placeholder = "title"
	search.Prompt = "/"
	search.CharLimit = 100

	theme := NewThemeService(&cfg.Theme)

	return Model{
		svc:         svc,
		config:      cfg,
		theme:       theme,
		styles:      theme.GetStyles(),
		keys:        newKeyMap(),
		caps:        caps,
		highlighter: NewHighlighter(caps.BasicColors, ""),
		search:      search,
		currentMode: modeList,
		copyText:    clipboard.Copy,
		copyImage:   clipboard.CopyImage,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadItems()
}

func (m Model) loadItems() tea.Cmd {
	store := m.svc.Store()
	return func() tea.Msg {
		items, err := store.GetAllMeta(context.Background())
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m Model) loadDetail(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		preview, err := svc.Get(context.Background(), id)
		return detailLoadedMsg{preview: preview, err: err}
	}
}

func (m Model) currentItem() *storage.ConfigMeta {
	if m.cursor < 0 || m.cursor >= len(m.filteredItems) {
		return nil
	}
	return &m.filteredItems[m.cursor]
}

// selectedID is the config an action applies to: the open detail, else the
// list cursor.
func (m Model) selectedID() (string, string, bool) {
	if (m.currentMode == modeDetail || m.currentMode == modeCard) && m.detail != nil {
		return m.detail.Record.ID, m.detail.Record.Title, true
	}
	if item := m.currentItem(); item != nil {
		return item.ID, item.Title, true
	}
	return "", "", false
}

type metaTitles []storage.ConfigMeta

func (t metaTitles) String(i int) string { return t[i].Title }
func (t metaTitles) Len() int            { return len(t) }

// filterItems applies the dark filter and then the fuzzy title query.
func (m *Model) filterItems() {
	var items []storage.ConfigMeta
	for _, item := range m.items {
		switch m.darkFilter {
		case filterDark:
			if !item.IsDark {
				continue
			}
		case filterLight:
			if item.IsDark {
				continue
			}
		}
		items = append(items, item)
	}

	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		m.filteredItems = items
	} else {
		m.filteredItems = nil
		for _, match := range fuzzy.FindFrom(query, metaTitles(items)) {
			m.filteredItems = append(m.filteredItems, items[match.Index])
		}
	}

	if m.cursor >= len(m.filteredItems) {
		m.cursor = max(0, len(m.filteredItems)-1)
	}
	if m.visibleStart > m.cursor {
		m.visibleStart = m.cursor
	}
}

func (m *Model) setStatus(text string, err error) {
	m.status = text
	m.statusErr = err != nil
	if err != nil {
		m.status = fmt.Sprintf("%s: %v", text, err)
		logging.Warn("%s", m.status)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, msg.Width/3)
		return m, nil

	case itemsLoadedMsg:
		if msg.err != nil {
			m.setStatus("Failed to load configs", msg.err)
			return m, nil
		}
		m.items = msg.items
		m.filterItems()
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.setStatus("Failed to open config", msg.err)
			m.currentMode = modeList
			return m, nil
		}
		m.detail = msg.preview
		m.cardPNG = nil
		m.detailScroll = 0
		m.currentMode = modeDetail
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.err)
		return m, nil

	case cardLoadedMsg:
		if msg.err != nil {
			m.setStatus("Failed to render card", msg.err)
			m.currentMode = modeDetail
			return m, nil
		}
		m.cardPNG = msg.png
		return m, nil

	case voteMsg:
		if msg.err != nil {
			m.setStatus("Vote failed", msg.err)
			return m, nil
		}
		m.applyVote(msg.id, msg.result)
		if msg.result.Voted {
			m.setStatus(fmt.Sprintf("Voted (%d votes)", msg.result.VoteCount), nil)
		} else {
			m.setStatus(fmt.Sprintf("Vote withdrawn (%d votes)", msg.result.VoteCount), nil)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.setStatus("Delete failed", msg.err)
			return m, nil
		}
		m.removeItem(msg.id)
		m.setStatus("Deleted "+msg.title, nil)
		return m, nil

	case editCompleteMsg:
		if msg.err != nil {
			m.setStatus("Remix not saved", msg.err)
			return m, nil
		}
		if msg.slug == "" {
			m.setStatus("Remix unchanged", nil)
			return m, nil
		}
		m.setStatus("Saved remix as "+msg.slug, nil)
		return m, m.loadItems()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.currentMode == modeSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.currentMode != modeConfirmDelete {
		m.status = ""
		m.statusErr = false
	}

	switch m.currentMode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeHelp:
		return m.handleHelpKey(msg)
	case modeDetail, modeCard:
		return m.handleDetailKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.currentMode = modeList
		m.filterItems()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.currentMode = modeList
		return m, nil
	case tea.KeyUp:
		m.moveCursor(-1)
		return m, nil
	case tea.KeyDown:
		m.moveCursor(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filterItems()
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidate := m.deleteCandidate
	m.deleteCandidate = nil
	m.currentMode = m.previousMode
	if candidate == nil || !key.Matches(msg, m.keys.Confirm) {
		m.setStatus("Delete cancelled", nil)
		return m, nil
	}
	if m.currentMode == modeDetail || m.currentMode == modeCard {
		m.currentMode = modeList
		m.detail = nil
	}
	return m, m.deleteConfig(candidate.ID, candidate.Title)
}

func (m Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.helpScrollOffset > 0 {
			m.helpScrollOffset--
		}
	case key.Matches(msg, m.keys.Down):
		m.helpScrollOffset++
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.currentMode = m.previousMode
		m.helpScrollOffset = 0
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.visibleStart = 0
	case key.Matches(msg, m.keys.End):
		m.moveCursor(len(m.filteredItems))
	case key.Matches(msg, m.keys.Search):
		m.currentMode = modeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.filterItems()
		}
	case key.Matches(msg, m.keys.ToggleDark):
		switch m.darkFilter {
		case filterAll:
			m.darkFilter = filterDark
		case filterDark:
			m.darkFilter = filterLight
		default:
			m.darkFilter = filterAll
		}
		m.filterItems()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadItems()
	case key.Matches(msg, m.keys.Open):
		if item := m.currentItem(); item != nil {
			return m, m.loadDetail(item.ID)
		}
	case key.Matches(msg, m.keys.Help):
		m.previousMode = m.currentMode
		m.currentMode = modeHelp
	default:
		return m.handleAction(msg)
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		if m.currentMode == modeCard {
			m.currentMode = modeDetail
		} else {
			m.currentMode = modeList
			m.detail = nil
		}
	case key.Matches(msg, m.keys.Up):
		if m.detailScroll > 0 {
			m.detailScroll--
		}
	case key.Matches(msg, m.keys.Down):
		m.detailScroll++
	case key.Matches(msg, m.keys.PageUp):
		m.detailScroll = max(0, m.detailScroll-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.detailScroll += m.listHeight()
	case key.Matches(msg, m.keys.Home):
		m.detailScroll = 0
	case key.Matches(msg, m.keys.Card):
		if m.currentMode == modeCard {
			m.currentMode = modeDetail
			return m, nil
		}
		m.currentMode = modeCard
		if m.caps.Kitty && m.cardPNG == nil && m.detail != nil {
			return m, m.renderCardCmd()
		}
	case key.Matches(msg, m.keys.Help):
		m.previousMode = m.currentMode
		m.currentMode = modeHelp
	default:
		return m.handleAction(msg)
	}
	return m, nil
}

// handleAction covers the keys shared by the list and detail views.
func (m Model) handleAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id, title, ok := m.selectedID()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyConfig(id, title)
	case key.Matches(msg, m.keys.CopyImage):
		return m, m.copyCard(id, title)
	case key.Matches(msg, m.keys.Vote):
		return m, m.toggleVote(id)
	case key.Matches(msg, m.keys.Edit):
		return m, m.remix(id)
	case key.Matches(msg, m.keys.Delete):
		m.deleteCandidate = &storage.ConfigMeta{ID: id, Title: title}
		m.previousMode = m.currentMode
		m.currentMode = modeConfirmDelete
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.filteredItems) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = max(0, min(m.cursor+delta, len(m.filteredItems)-1))
	if m.cursor < m.visibleStart {
		m.visibleStart = m.cursor
	}
	if h := m.listHeight(); m.cursor >= m.visibleStart+h {
		m.visibleStart = m.cursor - h + 1
	}
}

func (m *Model) applyVote(id string, result gallery.VoteResult) {
	for _, list := range [][]storage.ConfigMeta{m.items, m.filteredItems} {
		for i := range list {
			if list[i].ID == id {
				list[i].VoteCount = result.VoteCount
			}
		}
	}
	if m.detail != nil && m.detail.Record.ID == id {
		m.detail.Record.VoteCount = result.VoteCount
	}
}

func (m *Model) removeItem(id string) {
	kept := m.items[:0]
	for _, item := range m.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	m.items = kept
	m.filterItems()
}

func (m Model) copyConfig(id, title string) tea.Cmd {
	svc, copyText := m.svc, m.copyText
	return func() tea.Msg {
		_, cleaned, err := svc.Download(context.Background(), id)
		if err == nil {
			err = copyText(cleaned)
		}
		return statusMsg{text: "Copied " + title + " config", err: err}
	}
}

func (m Model) copyCard(id, title string) tea.Cmd {
	svc, copyImage := m.svc, m.copyImage
	return func() tea.Msg {
		preview, err := svc.Get(context.Background(), id)
		if err != nil {
			return statusMsg{text: "Copy card failed", err: err}
		}
		png, err := card.Render(preview.Record.Title, preview.Result.Config, cardWidth, cardHeight)
		if err == nil {
			err = copyImage(png)
		}
		return statusMsg{text: "Copied " + title + " card", err: err}
	}
}

// toggleVote votes for id, or withdraws the vote if one is already counted.
func (m Model) toggleVote(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		result, err := svc.Vote(ctx, id, localVoterIP, localVoterAgent, true)
		if errors.Is(err, gallery.ErrAlreadyVoted) {
			result, err = svc.Vote(ctx, id, localVoterIP, localVoterAgent, false)
		}
		return voteMsg{id: id, result: result, err: err}
	}
}

// Cards shown in the terminal are rendered at half the clipboard size.
func (m Model) renderCardCmd() tea.Cmd {
	title, cfg := m.detail.Record.Title, m.detail.Result.Config
	return func() tea.Msg {
		png, err := card.Render(title, cfg, cardWidth/2, cardHeight/2)
		return cardLoadedMsg{png: png, err: err}
	}
}

func (m Model) deleteConfig(id, title string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deletedMsg{id: id, title: title, err: svc.Delete(context.Background(), id)}
	}
}

// remix opens the cleaned config in the editor and uploads the edited text as
// a new config.
func (m Model) remix(id string) tea.Cmd {
	ctx := context.Background()
	preview, err := m.svc.Get(ctx, id)
	if err != nil {
		return func() tea.Msg { return editCompleteMsg{err: err} }
	}
	original := preview.Record.RawConfig

	tmpFile, err := os.CreateTemp("", "ghostyle-remix-*.conf")
	if err != nil {
		return func() tea.Msg { return editCompleteMsg{err: err} }
	}
	tmpPath := tmpFile.Name()
	_, err = tmpFile.WriteString(original)
	tmpFile.Close()
	if err != nil {
		os.Remove(tmpPath)
		return func() tea.Msg { return editCompleteMsg{err: err} }
	}

	editor := m.config.Editor.TextEditor
	if envEditor := os.Getenv("EDITOR"); envEditor != "" {
		editor = envEditor
	}

	svc := m.svc
	title := preview.Record.Title + " (remix)"
	return tea.ExecProcess(exec.Command(editor, tmpPath), func(err error) tea.Msg {
		defer os.Remove(tmpPath)
		if err != nil {
			return editCompleteMsg{err: err}
		}
		content, err := os.ReadFile(filepath.Clean(tmpPath))
		if err != nil {
			return editCompleteMsg{err: err}
		}
		edited := strings.TrimSpace(string(content))
		if edited == "" || edited == strings.TrimSpace(original) {
			return editCompleteMsg{}
		}
		res, err := svc.Upload(ctx, gallery.UploadRequest{
			RawConfig: edited,
			Title:     title,
			Tags:      preview.Record.Tags,
			ClientIP:  localVoterIP,
		})
		if err != nil {
			return editCompleteMsg{err: err}
		}
		return editCompleteMsg{slug: res.Slug}
	})
}
