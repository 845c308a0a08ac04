package docengine

// Request is one Docs API mutation. It mirrors the shape of the real
// API's own batchUpdate Request message (google.golang.org/api/docs/v1's
// Request type): exactly one of these pointer fields is set per value.
// The engine produces and consumes Request/Response as this typed,
// engine-local representation; internal/transport is the only package
// that translates it to and from the wire docspb.Request/Response types,
// so the core pipeline never imports net/http or oauth2.
//
// AddDocumentTab, DeleteTab, and UpdateDocumentTabProperties are not
// part of the public Docs API surface as of this writing — they are
// this engine's own extension for local-file tab lifecycle tracking,
// and internal/transport maps them onto whatever RPC a given backend
// actually exposes (or rejects them outright for backends with no tab
// support).
type Request struct {
	InsertText                 *InsertTextRequest
	DeleteContentRange          *DeleteContentRangeRequest
	UpdateTextStyle             *UpdateTextStyleRequest
	UpdateParagraphStyle        *UpdateParagraphStyleRequest
	CreateParagraphBullets      *CreateParagraphBulletsRequest
	DeleteParagraphBullets      *DeleteParagraphBulletsRequest
	InsertPageBreak             *InsertPageBreakRequest
	InsertSectionBreak          *InsertSectionBreakRequest
	CreateFootnote              *CreateFootnoteRequest
	CreateHeader                *CreateHeaderRequest
	CreateFooter                *CreateFooterRequest
	DeleteHeader                *DeleteHeaderRequest
	DeleteFooter                *DeleteFooterRequest
	AddDocumentTab              *AddDocumentTabRequest
	DeleteTab                   *DeleteTabRequest
	UpdateDocumentTabProperties *UpdateDocumentTabPropertiesRequest
	InsertTable                 *InsertTableRequest
	DeleteTableRow              *DeleteTableRowRequest
	InsertTableRow              *InsertTableRowRequest
	DeleteTableColumn           *DeleteTableColumnRequest
	InsertTableColumn           *InsertTableColumnRequest
	UpdateTableColumnProperties *UpdateTableColumnPropertiesRequest
	UpdateTableCellStyle        *UpdateTableCellStyleRequest

	// PlaceholderFootnoteID is attached to a CreateFootnote request so
	// PushOrchestrator can positionally match this request to the real
	// footnote id returned in the batch's response (§4.8); it is stripped
	// before the request is ever sent to a Transport.
	PlaceholderFootnoteID string
}

// Location addresses a single index within one segment of one tab.
// TabID is empty for the body's own tab-relative addressing rules — the
// walker always fills it in from the enclosing SegmentContext before a
// request leaves RequestWalker.
type Location struct {
	Index     int
	TabID     string
	SegmentID string // empty for body
}

// RangeRef addresses [Start, End) within one segment of one tab.
type RangeRef struct {
	Start, End int
	TabID      string
	SegmentID  string
}

type InsertTextRequest struct {
	Location Location
	Text     string
}

type DeleteContentRangeRequest struct {
	Range RangeRef
}

type UpdateTextStyleRequest struct {
	Range  RangeRef
	Style  TextStyle
	Fields string // comma-joined updateMask field list
}

type UpdateParagraphStyleRequest struct {
	Range  RangeRef
	Style  ParagraphStyle
	Fields string
}

type CreateParagraphBulletsRequest struct {
	Range  RangeRef
	Preset string
}

type DeleteParagraphBulletsRequest struct {
	Range RangeRef
}

type InsertPageBreakRequest struct {
	Location Location
}

type InsertSectionBreakRequest struct {
	Location    Location
	SectionType string // always "CONTINUOUS" for a columnbreak
}

type CreateFootnoteRequest struct {
	Location Location
}

type CreateHeaderRequest struct {
	TabID string
	Type  string // "DEFAULT"

	// PlaceholderSegmentID is the synthetic segment id the differ assigned
	// the new header (spec.md §4.8's "synthetic strings invented by the
	// pull side"). PushOrchestrator matches it positionally against the
	// real headerId returned in this request's batch reply, the same way
	// CreateFootnote.PlaceholderFootnoteID resolves footnote ids.
	PlaceholderSegmentID string
}

type CreateFooterRequest struct {
	TabID string
	Type  string

	// PlaceholderSegmentID mirrors CreateHeaderRequest's field, for footers.
	PlaceholderSegmentID string
}

type DeleteHeaderRequest struct {
	TabID, HeaderID string
}

type DeleteFooterRequest struct {
	TabID, FooterID string
}

type AddDocumentTabRequest struct {
	SyntheticTabID string
	Title          string
}

type DeleteTabRequest struct {
	TabID string
}

type UpdateDocumentTabPropertiesRequest struct {
	TabID string
	Title string
}

type InsertTableRequest struct {
	Location Location
	Rows     int
	Columns  int
}

type DeleteTableRowRequest struct {
	TableStartLocation Location
	RowIndex           int
}

type InsertTableRowRequest struct {
	TableStartLocation Location
	RowIndex           int
	InsertBelow        bool
}

type DeleteTableColumnRequest struct {
	TableStartLocation Location
	ColumnIndex        int
}

type InsertTableColumnRequest struct {
	TableStartLocation Location
	ColumnIndex        int
	InsertRight        bool
}

type UpdateTableColumnPropertiesRequest struct {
	TableStartLocation Location
	ColumnIndices      []int
	WidthType          string // "FIXED_WIDTH" | "EVENLY_DISTRIBUTED"
	WidthMagnitude     float64
	WidthUnit          string
}

type UpdateTableCellStyleRequest struct {
	TableStartLocation Location
	RowIndex, ColIndex int
	Style              TableCellStyle
	Fields             string
}
