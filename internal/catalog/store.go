package catalog

// Store is an insertion-ordered set of rows keyed by name.
type Store struct {
	rows  []Row
	index map[string]int
}

func NewStore() *Store {
	return &Store{index: map[string]int{}}
}

// Add appends r unless a row with the same name is already present.
func (s *Store) Add(r Row) bool {
	if _, ok := s.index[r.Name]; ok {
		return false
	}
	s.index[r.Name] = len(s.rows)
	s.rows = append(s.rows, r)
	return true
}

func (s *Store) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Row returns the row at i in insertion order.
func (s *Store) Row(i int) (Row, bool) {
	if s == nil || i < 0 || i >= len(s.rows) {
		return Row{}, false
	}
	return s.rows[i], true
}

// Rows returns a copy of all rows in insertion order.
func (s *Store) Rows() []Row {
	if s == nil {
		return nil
	}
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

const (
	DownloadingMessage = "Downloading library list..."
	UnavailableMessage = "Unable to download the library list. Try again later."
)

// Listing is what the catalog table displays: either a populated store or a
// single informational message, never both.
type Listing struct {
	Store   *Store
	Message string
}

// Placeholder returns a message-only listing.
func Placeholder(msg string) Listing { return Listing{Message: msg} }

// Available reports whether the listing carries rows.
func (l Listing) Available() bool { return l.Store != nil }
