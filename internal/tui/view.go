package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/resolver"
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.th.title.Render("Add Resource Library"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.modal != "" {
		b.WriteString(m.th.modal.Render(m.modal + "\n\n" + m.th.footer.Render("Press Enter to continue")))
		b.WriteString("\n")
		return b.String()
	}

	switch m.s.Mode {
	case resolver.Local:
		b.WriteString(m.th.label.Render("Add a folder on this machine as a library. The library is named after the folder."))
		b.WriteString("\n\n")
		b.WriteString(m.dirInput.View())
	case resolver.Web:
		b.WriteString(m.th.label.Render("Download a library archive from any address."))
		b.WriteString("\n\n")
		b.WriteString(m.nameInput.View())
		b.WriteString("\n")
		b.WriteString(m.urlInput.View())
	case resolver.Catalog:
		b.WriteString(m.renderCatalog())
	}
	b.WriteString("\n\n")
	if len(m.toasts) > 0 {
		m.gcToasts()
		if len(m.toasts) > 0 {
			b.WriteString(m.th.bad.Render(m.toasts[len(m.toasts)-1].msg))
			b.WriteString("\n")
		}
	}
	b.WriteString(m.th.footer.Render(m.helpLine()))
	return b.String()
}

func (m *Model) renderTabs() string {
	var sb strings.Builder
	for i, mode := range resolver.Modes {
		style := m.th.tabInactive
		if mode == m.s.Mode {
			style = m.th.tabActive
		}
		label := mode.Title()
		if mode == resolver.Catalog {
			if n := len(m.s.Selected()); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		}
		sb.WriteString(style.Render(label))
		if i < len(resolver.Modes)-1 {
			sb.WriteString("  •  ")
		}
	}
	return sb.String()
}

func (m *Model) columns() []catalog.ColumnDesc {
	if !m.compact {
		return catalog.Columns
	}
	var out []catalog.ColumnDesc
	for _, c := range catalog.Columns {
		if c.Col != catalog.ColArtist {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) renderCatalog() string {
	l := m.s.Listing()
	if !l.Available() {
		msg := l.Message
		if msg == "" {
			msg = catalog.DownloadingMessage
		}
		if m.downloading() {
			return m.spin.View() + " " + msg
		}
		return m.th.label.Render(msg)
	}

	var b strings.Builder
	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}

	cols := m.columns()
	head := "    "
	for i, c := range cols {
		title := c.Title
		if m.sortCol >= 0 && catalog.Columns[m.sortCol].Col == c.Col {
			if m.sortDesc {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		head += pad(title, c.Width, c.Kind == catalog.KindSize)
		if i < len(cols)-1 {
			head += "  "
		}
	}
	b.WriteString(m.th.head.Render(head))
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(m.th.label.Render("  No matching libraries."))
		return b.String()
	}

	start, end := window(len(m.visible), m.cursor, m.maxRows())
	for vi := start; vi < end; vi++ {
		idx := m.visible[vi]
		r, _ := l.Store.Row(idx)
		mark := "[ ] "
		if m.s.IsSelected(idx) {
			mark = "[x] "
		}
		line := mark
		for i, c := range cols {
			line += pad(r.Cell(c.Col).String(), c.Width, c.Kind == catalog.KindSize)
			if i < len(cols)-1 {
				line += "  "
			}
		}
		style := m.th.row
		if vi == m.cursor {
			style = m.th.rowSelected
		}
		b.WriteString(style.Render(line))
		if vi < end-1 {
			b.WriteString("\n")
		}
	}
	if end-start < len(m.visible) {
		b.WriteString("\n")
		b.WriteString(m.th.label.Render(fmt.Sprintf("  %d of %d", m.cursor+1, len(m.visible))))
	}
	return b.String()
}

func (m *Model) maxRows() int {
	if m.h <= 0 {
		return 15
	}
	if n := m.h - 10; n > 3 {
		return n
	}
	return 3
}

func (m *Model) helpLine() string {
	common := "ctrl+n/ctrl+p: switch source • enter: add • esc: cancel"
	switch m.s.Mode {
	case resolver.Web:
		return "tab: next field • " + common
	case resolver.Catalog:
		if m.filtering {
			return "type to filter • enter: keep filter • esc: clear"
		}
		return "j/k: move • space: select • /: filter • s/S: sort • " + common
	}
	return common
}

// window returns the [start,end) slice of n rows that keeps cursor visible.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

func pad(s string, width int, right bool) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		if width > 1 && len(r) > width-1 {
			s = string(r[:width-1]) + "…"
		}
	}
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
