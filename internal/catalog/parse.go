package catalog

import (
	"bufio"
	"errors"
	"strings"
)

// Parse builds a store from a catalog document. Rows named in installed are
// skipped, as are later rows repeating an earlier name. Any malformed line
// fails the whole document.
func Parse(text string, installed []string) (*Store, error) {
	skip := make(map[string]struct{}, len(installed))
	for _, n := range installed {
		skip[n] = struct{}{}
	}
	st := NewStore()
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		row, err := ParseRow(raw)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = line
			}
			return nil, err
		}
		if _, ok := skip[row.Name]; ok {
			continue
		}
		st.Add(row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return st, nil
}
