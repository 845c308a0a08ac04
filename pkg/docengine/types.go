package docengine

// SegmentType distinguishes the four independent index spaces a document
// can contain. Each has its own coordinate system: body starts at index 1
// (slot 0 belongs to the initial section break); header, footer, and
// footnote segments start at index 0.
type SegmentType uint8

const (
	SegmentBody SegmentType = iota
	SegmentHeader
	SegmentFooter
	SegmentFootnote
)

// String renders the segment type the way it appears in the XML contract.
func (t SegmentType) String() string {
	switch t {
	case SegmentBody:
		return "body"
	case SegmentHeader:
		return "header"
	case SegmentFooter:
		return "footer"
	case SegmentFootnote:
		return "footnote"
	default:
		return "unknown"
	}
}

// Document is the root of one parsed Google Doc. It is produced once by
// BlockParser and is read-only thereafter — the aligner and differ only
// ever read two Documents, they never mutate one in place (BlockIndexer is
// the sole exception: it fills in indexes on a freshly parsed Document
// before anything else touches it).
type Document struct {
	DocID string
	Tabs  []*Tab
}

// Tab is one user-visible tab of a Document. Tabs are matched across
// pristine/current by TabID; a tab present on only one side is wholly
// added or deleted.
type Tab struct {
	TabID string
	Title string
	// XML is the tab's full source XML, used verbatim when an entire tab
	// is added (RequestWalker synthesizes "insert everything" nodes from
	// it rather than diffing against an empty tree).
	XML      string
	Segments []*Segment
}

// Segment is one independent index space within a Tab: the body, the
// default header, the default footer, or one footnote body. Each Segment
// owns its own start/end index range, set by BlockIndexer.
type Segment struct {
	Type       SegmentType
	SegmentID  string // empty for body; a header, footer, or footnote carries its id attribute
	Blocks     []StructuralBlock
	StartIndex int
	EndIndex   int
}

// StructuralBlock is the three-way sum `Paragraph | Table | Toc`, the
// top-level children of a Segment. Tagged variants are used instead of an
// inheritance hierarchy; Kind reports which concrete type a StructuralBlock
// holds so callers can type-switch without reflection. Additional variants
// (e.g. for section breaks, currently read-only/unsupported) should be
// added here rather than retrofitted as new interface implementations.
type StructuralBlock interface {
	// Range returns the block's [start, end) index range as assigned by
	// BlockIndexer. Both are zero before indexing.
	Range() (start, end int)
	// SetRange is called exactly once, by BlockIndexer.
	SetRange(start, end int)
	// ContentHash is the key the aligner's first pass matches on: exact
	// content equality (ignoring <comment-ref> tags for paragraphs).
	ContentHash() string
	// StructuralKey is the key the aligner's second pass matches on: a
	// coarser equality that only looks at block shape (tag/kind).
	StructuralKey() string
	// Kind reports which concrete type this StructuralBlock holds.
	Kind() BlockKind
	// RawXML returns the block's raw source XML, verbatim.
	RawXML() string
}

// BlockKind discriminates StructuralBlock implementations.
type BlockKind uint8

const (
	BlockParagraph BlockKind = iota
	BlockTable
	BlockToc
)

// blockRange is embedded by every StructuralBlock implementation to supply
// the Range/SetRange pair uniformly.
type blockRange struct {
	startIndex int
	endIndex   int
}

func (r *blockRange) Range() (start, end int) { return r.startIndex, r.endIndex }
func (r *blockRange) SetRange(start, end int) { r.startIndex, r.endIndex = start, end }

// Paragraph is one semantic paragraph: p, h1-h6, title, subtitle, or li.
type Paragraph struct {
	blockRange
	Tag       string // "p", "h1".."h6", "title", "subtitle", "li"
	XML       string // raw source XML for this paragraph, including inline runs
	Footnotes []FootnoteRef
}

// ContentHash strips <comment-ref ...> tags before hashing: comments do
// not affect text, styles, or indexing, so they must not cause a false
// "modified" classification in the aligner.
func (p *Paragraph) ContentHash() string { return stripCommentRefs(p.XML) }
func (p *Paragraph) StructuralKey() string { return "para:" + p.Tag }
func (p *Paragraph) Kind() BlockKind       { return BlockParagraph }
func (p *Paragraph) RawXML() string        { return p.XML }

// FootnoteRef is an inline footnote marker captured from within a
// paragraph's XML. It is bound to the containing paragraph and also left
// inline in Paragraph.XML (it consumes one index unit there).
type FootnoteRef struct {
	FootnoteID string
	XML        string
}

// Table is a table element: an ordered set of Column definitions and
// Row blocks.
type Table struct {
	blockRange
	TableID string
	XML     string
	Columns []Column
	Rows    []*TableRow
}

func (t *Table) ContentHash() string   { return t.XML }
func (t *Table) StructuralKey() string { return "table" }
func (t *Table) Kind() BlockKind       { return BlockTable }
func (t *Table) RawXML() string         { return t.XML }

// Column is one <col> definition of a Table.
type Column struct {
	ColID string
	// Width holds the raw width attribute text (e.g. "468pt"), or empty if
	// the column has no explicit width (evenly distributed).
	Width string
	Index int
}

// TableRow is one <tr> of a Table.
type TableRow struct {
	blockRange
	RowID    string
	RowIndex int
	XML      string
	Cells    []*TableCell
}

// TableCell is one <td> of a TableRow. Children may themselves contain
// nested paragraphs/tables (cells are parsed recursively), but a nested
// table is not a first-class StructuralBlock of any Segment — its length
// is folded into the owning cell's length instead.
type TableCell struct {
	blockRange
	CellID   string
	ColIndex int
	XML      string
	Children []StructuralBlock
}

// Toc is a read-only table-of-contents block.
type Toc struct {
	blockRange
	XML string
}

func (t *Toc) ContentHash() string   { return t.XML }
func (t *Toc) StructuralKey() string { return "toc" }
func (t *Toc) Kind() BlockKind       { return BlockToc }
func (t *Toc) RawXML() string         { return t.XML }
