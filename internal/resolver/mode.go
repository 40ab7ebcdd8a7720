package resolver

import (
	"fmt"
	"strings"
)

// Mode is the source a library is added from.
type Mode int

const (
	Local Mode = iota
	Web
	Catalog
)

var modeNames = [...]string{"local", "web", "catalog"}

// Modes lists every source in tab order.
var Modes = []Mode{Local, Web, Catalog}

func (m Mode) String() string {
	if m < Local || m > Catalog {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Title is the tab label.
func (m Mode) Title() string {
	switch m {
	case Local:
		return "Local Directory"
	case Web:
		return "Web URL"
	case Catalog:
		return "Library Catalog"
	}
	return m.String()
}

// ParseMode accepts the lower-case names used in batch files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "dir", "directory":
		return Local, nil
	case "web", "url":
		return Web, nil
	case "catalog", "rptools":
		return Catalog, nil
	}
	return 0, fmt.Errorf("unknown source mode %q (want local, web or catalog)", s)
}

// Next and Prev cycle through the tabs.
func (m Mode) Next() Mode { return (m + 1) % Mode(len(Modes)) }

func (m Mode) Prev() Mode { return (m + Mode(len(Modes)) - 1) % Mode(len(Modes)) }
