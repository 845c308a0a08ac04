package docengine

// ChangeOp classifies how a node differs between the pristine and current
// trees.
type ChangeOp uint8

const (
	Unchanged ChangeOp = iota
	Added
	Deleted
	Modified
)

func (op ChangeOp) String() string {
	switch op {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// NodeType discriminates ChangeNode's role in the change tree.
type NodeType uint8

const (
	NodeDocument NodeType = iota
	NodeTab
	NodeSegment
	NodeContentBlock
	NodeTable
	NodeTableRow
	NodeTableColumn
	NodeTableCell
)

// ChangeNode is a node of the tree TreeDiffer produces. The tree mirrors
// Document structure but only contains nodes that changed, or that are
// ancestors of a changed node — an unchanged leaf never appears. A node
// is only linked into its parent's Children when Op != Unchanged, or when
// it has at least one changed descendant.
type ChangeNode struct {
	Type NodeType
	Op   ChangeOp
	// NodeID disambiguates nodes of the same Type under the same parent
	// (row id, column index as string, table id — meaning depends on Type).
	NodeID string

	BeforeXML string
	AfterXML  string

	// PristineStart/PristineEnd are the node's index range in the
	// pristine document. Zero for nodes with Op == Added (they have no
	// pristine position).
	PristineStart int
	PristineEnd   int

	Children []*ChangeNode

	// TAB-only fields.
	TabID    string
	TabTitle string

	// SEGMENT-only fields.
	SegmentType SegmentType
	SegmentID   string
	SegmentEnd  int

	// BeforeStructuralElement is set by the differ when this content
	// block immediately precedes a non-deleted table, TOC, or other
	// structural element in document order. ContentGenerator consults it
	// to suppress deletion of the content block's trailing newline.
	BeforeStructuralElement bool

	// TABLE-only field: pristine start index of the table itself, used
	// by TableGenerator when none of the table's rows changed but its
	// column widths did.
	TableStart int

	// ROW/COLUMN/CELL fields.
	RowIndex int
	ColIndex int
}

// AlignedPair is one entry of BlockAligner's output: a pairing of indices
// into the pristine and current block slices.
//
//   - {PristineIdx: &i, CurrentIdx: nil}   pristine[i] was deleted
//   - {PristineIdx: nil, CurrentIdx: &j}   current[j] was added
//   - {PristineIdx: &i, CurrentIdx: &j}    pristine[i] matches current[j]
type AlignedPair struct {
	PristineIdx *int
	CurrentIdx  *int
}

// SegmentContext carries the state RequestWalker threads through a single
// segment's backwards walk, so generators can make decisions that depend
// on what lies to one side of the node currently being emitted.
type SegmentContext struct {
	SegmentID   string
	SegmentEnd  int
	TabID       string
	SegmentType SegmentType

	// SegmentEndConsumed tracks whether a prior (higher-index) node in
	// this walk already accounted for the segment's trailing position,
	// so a subsequent ContentGenerator call knows not to double-count it.
	SegmentEndConsumed bool

	// FollowedByAddedTable is set while walking a content block that is
	// immediately followed, in current-document order, by a table that
	// was added at this position.
	FollowedByAddedTable bool

	// BeforeStructuralElement mirrors ChangeNode.BeforeStructuralElement
	// for the node currently being emitted.
	BeforeStructuralElement bool

	// InsideTableCell is true while walking the children of a TableCell,
	// so nested content blocks never emit a trailing newline strip meant
	// for top-level segment content.
	InsideTableCell bool
}
