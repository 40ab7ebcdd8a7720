// Package tui is the interactive add-library dialog.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/resolver"
	"github.com/jxwalker/resfetch/internal/session"
)

// listingMsg carries a finished catalog fetch back to the Update loop.
type listingMsg struct{ listing catalog.Listing }

type toast struct {
	msg  string
	when time.Time
	ttl  time.Duration
}

// Options configures the dialog.
type Options struct {
	Session *session.Session
	// Compact hides the artist column.
	Compact bool
	Log     *logging.Logger
	// Ctx bounds the catalog fetch; defaults to context.Background.
	Ctx context.Context
}

// Model is the bubbletea model for the dialog. Every session mutation
// happens inside Update.
type Model struct {
	s   *session.Session
	ctx context.Context
	log *logging.Logger
	th  Theme

	w, h    int
	compact bool

	dirInput    textinput.Model
	nameInput   textinput.Model
	urlInput    textinput.Model
	filterInput textinput.Model
	webFocus    int
	filtering   bool

	visible  []int
	cursor   int
	sortCol  int // -1 keeps catalog order, else index into catalog.Columns
	sortDesc bool

	spin   spinner.Model
	modal  string
	toasts []toast

	result    []catalog.Row
	committed bool
}

func New(opts Options) *Model {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s := opts.Session
	if s == nil {
		s = session.New(nil, "")
	}

	dir := textinput.New()
	dir.Placeholder = "/path/to/library/folder"
	dir.Prompt = "Directory: "
	dir.Focus()

	name := textinput.New()
	name.Placeholder = "Library name"
	name.Prompt = "Name: "

	u := textinput.New()
	u.Placeholder = "https://example.com/pack.zip"
	u.Prompt = "URL:  "

	filter := textinput.New()
	filter.Placeholder = "Filter by name or artist..."
	filter.Prompt = "/"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		s:           s,
		ctx:         ctx,
		log:         opts.Log,
		th:          defaultTheme(),
		compact:     opts.Compact,
		dirInput:    dir,
		nameInput:   name,
		urlInput:    u,
		filterInput: filter,
		sortCol:     -1,
		spin:        sp,
	}
}

// Result returns the resolved rows and true once the user committed.
func (m *Model) Result() ([]catalog.Row, bool) {
	return m.result, m.committed
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		return m, nil
	case listingMsg:
		m.s.ApplyListing(msg.listing)
		m.refreshVisible()
		if !msg.listing.Available() {
			m.addToast(msg.listing.Message)
		}
		return m, nil
	case spinner.TickMsg:
		if !m.downloading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := msg.String()
	if s == "ctrl+c" {
		return m, tea.Quit
	}
	if m.modal != "" {
		// blocking until acknowledged
		switch s {
		case "enter", "esc", " ":
			m.modal = ""
		}
		return m, nil
	}
	if m.filtering {
		return m.updateFilter(msg)
	}
	switch s {
	case "esc":
		return m, tea.Quit
	case "ctrl+n", "ctrl+right":
		return m, m.setMode(m.s.Mode.Next())
	case "ctrl+p", "ctrl+left":
		return m, m.setMode(m.s.Mode.Prev())
	case "enter":
		return m.commit()
	}

	switch m.s.Mode {
	case resolver.Local:
		var cmd tea.Cmd
		m.dirInput, cmd = m.dirInput.Update(msg)
		m.s.Form.LocalDirectory = m.dirInput.Value()
		return m, cmd
	case resolver.Web:
		switch s {
		case "tab", "shift+tab", "up", "down":
			m.focusWeb(1 - m.webFocus)
			return m, nil
		}
		var cmd tea.Cmd
		if m.webFocus == 0 {
			m.nameInput, cmd = m.nameInput.Update(msg)
		} else {
			m.urlInput, cmd = m.urlInput.Update(msg)
		}
		m.s.Form.URLName = m.nameInput.Value()
		m.s.Form.URL = m.urlInput.Value()
		return m, cmd
	case resolver.Catalog:
		return m.updateCatalog(s)
	}
	return m, nil
}

func (m *Model) updateCatalog(s string) (tea.Model, tea.Cmd) {
	switch s {
	case "j", "down":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if n := len(m.visible); n > 0 {
			m.cursor = n - 1
		}
	case " ", "x":
		if m.cursor < len(m.visible) {
			m.s.Toggle(m.visible[m.cursor])
		}
	case "/":
		if m.s.Listing().Available() {
			m.filtering = true
			return m, m.filterInput.Focus()
		}
	case "s":
		m.sortCol++
		if m.sortCol >= len(catalog.Columns) {
			m.sortCol = -1
		}
		m.refreshVisible()
	case "S":
		m.sortDesc = !m.sortDesc
		m.refreshVisible()
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterInput.SetValue("")
		fallthrough
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		m.refreshVisible()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.refreshVisible()
	return m, cmd
}

// setMode switches tabs, starting the catalog fetch on the first visit.
func (m *Model) setMode(mode resolver.Mode) tea.Cmd {
	fetch := m.s.SetMode(mode)
	m.dirInput.Blur()
	m.nameInput.Blur()
	m.urlInput.Blur()
	var cmds []tea.Cmd
	switch mode {
	case resolver.Local:
		cmds = append(cmds, m.dirInput.Focus())
	case resolver.Web:
		m.focusWeb(m.webFocus)
	}
	if fetch {
		if ch := m.s.StartFetch(m.ctx); ch != nil {
			m.refreshVisible()
			cmds = append(cmds, waitForListing(ch), m.spin.Tick)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) focusWeb(i int) {
	m.webFocus = i
	if i == 0 {
		m.urlInput.Blur()
		m.nameInput.Focus()
	} else {
		m.nameInput.Blur()
		m.urlInput.Focus()
	}
}

func (m *Model) commit() (tea.Model, tea.Cmd) {
	rows, err := m.s.Commit()
	if err != nil {
		var ve *resolver.ValidationError
		if errors.As(err, &ve) {
			m.modal = ve.Message()
		} else {
			m.modal = err.Error()
		}
		m.log.Debugf("commit rejected: %v", err)
		return m, nil
	}
	m.result = rows
	m.committed = true
	return m, tea.Quit
}

func (m *Model) downloading() bool {
	l := m.s.Listing()
	return !l.Available() && l.Message == catalog.DownloadingMessage
}

func waitForListing(ch <-chan catalog.Listing) tea.Cmd {
	return func() tea.Msg {
		return listingMsg{listing: <-ch}
	}
}

func (m *Model) addToast(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	m.toasts = append(m.toasts, toast{msg: s, when: time.Now(), ttl: 5 * time.Second})
	m.gcToasts()
}

func (m *Model) gcToasts() {
	now := time.Now()
	fresh := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Sub(t.when) < t.ttl {
			fresh = append(fresh, t)
		}
	}
	m.toasts = fresh
}
