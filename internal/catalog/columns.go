package catalog

type Column int

const (
	ColArtist Column = iota
	ColName
	ColSize
)

type CellKind int

const (
	KindText CellKind = iota
	KindSize
)

type ColumnDesc struct {
	Col   Column
	Title string
	Kind  CellKind
	Width int
}

// Columns is the catalog table layout.
var Columns = []ColumnDesc{
	{Col: ColArtist, Title: "Artist", Kind: KindText, Width: 20},
	{Col: ColName, Title: "Art Pack", Kind: KindText, Width: 32},
	{Col: ColSize, Title: "Size", Kind: KindSize, Width: 10},
}

// Cell is one table value. Text is set for KindText, Size for KindSize.
type Cell struct {
	Kind CellKind
	Text string
	Size int64
}

func (c Cell) String() string {
	if c.Kind == KindSize {
		return FormatSize(c.Size)
	}
	return c.Text
}

// Less orders cells for column sorting; sizes compare numerically.
func (c Cell) Less(o Cell) bool {
	if c.Kind == KindSize && o.Kind == KindSize {
		return c.Size < o.Size
	}
	return c.Text < o.Text
}

func (r Row) Cell(col Column) Cell {
	switch col {
	case ColArtist:
		return Cell{Kind: KindText, Text: r.Artist}
	case ColName:
		return Cell{Kind: KindText, Text: r.Name}
	default:
		return Cell{Kind: KindSize, Size: r.Size}
	}
}
