package tui

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jxwalker/resfetch/internal/catalog"
)

// refreshVisible recomputes which store rows are shown and in what order.
func (m *Model) refreshVisible() {
	l := m.s.Listing()
	m.visible = visibleRows(l.Store, m.filterInput.Value(), m.sortCol, m.sortDesc)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// visibleRows returns store indices matching query, ordered by column col.
// col < 0 keeps catalog order.
func visibleRows(st *catalog.Store, query string, col int, desc bool) []int {
	query = strings.TrimSpace(query)
	var idx []int
	for i, r := range st.Rows() {
		if query == "" || fuzzy.MatchFold(query, r.Name) || fuzzy.MatchFold(query, r.Artist) {
			idx = append(idx, i)
		}
	}
	if col < 0 || col >= len(catalog.Columns) {
		return idx
	}
	c := catalog.Columns[col].Col
	sort.SliceStable(idx, func(a, b int) bool {
		ra, _ := st.Row(idx[a])
		rb, _ := st.Row(idx[b])
		if desc {
			return rb.Cell(c).Less(ra.Cell(c))
		}
		return ra.Cell(c).Less(rb.Cell(c))
	})
	return idx
}
