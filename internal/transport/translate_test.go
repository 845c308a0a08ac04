package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docspb "google.golang.org/api/docs/v1"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

func Test_ToWire_InsertText_Forces_Index_Send(t *testing.T) {
	t.Parallel()

	wr, err := toWire(docengine.Request{InsertText: &docengine.InsertTextRequest{
		Location: docengine.Location{Index: 0, TabID: "t1", SegmentID: "h.abc"},
		Text:     "Top\n",
	}})
	require.NoError(t, err)

	require.NotNil(t, wr.InsertText)
	assert.Equal(t, int64(0), wr.InsertText.Location.Index)
	assert.Equal(t, "h.abc", wr.InsertText.Location.SegmentId)
	assert.Equal(t, "t1", wr.InsertText.Location.TabId)
	assert.Contains(t, wr.InsertText.Location.ForceSendFields, "Index")
}

func Test_ToWire_DeleteContentRange_Forces_Range_Send(t *testing.T) {
	t.Parallel()

	wr, err := toWire(docengine.Request{DeleteContentRange: &docengine.DeleteContentRangeRequest{
		Range: docengine.RangeRef{Start: 0, End: 1, SegmentID: "kix.fn1"},
	}})
	require.NoError(t, err)

	require.NotNil(t, wr.DeleteContentRange)
	assert.Equal(t, int64(0), wr.DeleteContentRange.Range.StartIndex)
	assert.Equal(t, int64(1), wr.DeleteContentRange.Range.EndIndex)
	assert.Contains(t, wr.DeleteContentRange.Range.ForceSendFields, "StartIndex")
}

func Test_ToWire_Tab_Lifecycle_Is_Rejected(t *testing.T) {
	t.Parallel()

	_, err := toWire(docengine.Request{AddDocumentTab: &docengine.AddDocumentTabRequest{SyntheticTabID: "t2"}})
	require.ErrorIs(t, err, ErrUnsupportedRequest)

	_, err = toWire(docengine.Request{DeleteTab: &docengine.DeleteTabRequest{TabID: "t2"}})
	require.ErrorIs(t, err, ErrUnsupportedRequest)
}

func Test_ToWire_TextStyle_Color_And_Link(t *testing.T) {
	t.Parallel()

	wr, err := toWire(docengine.Request{UpdateTextStyle: &docengine.UpdateTextStyleRequest{
		Range: docengine.RangeRef{Start: 1, End: 5},
		Style: docengine.TextStyle{
			Bold:            true,
			ForegroundColor: "#ff0000",
			LinkURL:         "https://example.com",
			BaselineOffset:  "SUPERSCRIPT",
		},
		Fields: "bold,foregroundColor,link,baselineOffset",
	}})
	require.NoError(t, err)

	ts := wr.UpdateTextStyle.TextStyle
	require.NotNil(t, ts)
	assert.True(t, ts.Bold)
	assert.Equal(t, "SUPERSCRIPT", ts.BaselineOffset)
	require.NotNil(t, ts.Link)
	assert.Equal(t, "https://example.com", ts.Link.Url)

	require.NotNil(t, ts.ForegroundColor)
	rgb := ts.ForegroundColor.Color.RgbColor
	assert.InDelta(t, 1.0, rgb.Red, 0.001)
	assert.InDelta(t, 0.0, rgb.Green, 0.001)
	assert.InDelta(t, 0.0, rgb.Blue, 0.001)
}

func Test_ToWire_Table_Row_And_Column_Ops(t *testing.T) {
	t.Parallel()

	loc := docengine.Location{Index: 3, TabID: "t"}

	wr, err := toWire(docengine.Request{DeleteTableRow: &docengine.DeleteTableRowRequest{
		TableStartLocation: loc, RowIndex: 2,
	}})
	require.NoError(t, err)
	require.NotNil(t, wr.DeleteTableRow)
	assert.Equal(t, int64(2), wr.DeleteTableRow.TableCellLocation.RowIndex)
	assert.Equal(t, int64(3), wr.DeleteTableRow.TableCellLocation.TableStartLocation.Index)

	wr, err = toWire(docengine.Request{InsertTableColumn: &docengine.InsertTableColumnRequest{
		TableStartLocation: loc, ColumnIndex: 0, InsertRight: false,
	}})
	require.NoError(t, err)
	require.NotNil(t, wr.InsertTableColumn)
	assert.Equal(t, int64(0), wr.InsertTableColumn.TableCellLocation.ColumnIndex)
	assert.Contains(t, wr.InsertTableColumn.TableCellLocation.ForceSendFields, "ColumnIndex")
}

func Test_ToWire_Column_Width_Evenly_Distributed_Has_No_Width(t *testing.T) {
	t.Parallel()

	wr, err := toWire(docengine.Request{UpdateTableColumnProperties: &docengine.UpdateTableColumnPropertiesRequest{
		TableStartLocation: docengine.Location{Index: 3},
		ColumnIndices:      []int{1},
		WidthType:          "EVENLY_DISTRIBUTED",
	}})
	require.NoError(t, err)

	props := wr.UpdateTableColumnProperties.TableColumnProperties
	assert.Equal(t, "EVENLY_DISTRIBUTED", props.WidthType)
	assert.Nil(t, props.Width)
}

func Test_FromWireReplies_Maps_Created_IDs_Positionally(t *testing.T) {
	t.Parallel()

	out := fromWireReplies(nil)
	assert.Empty(t, out.Replies)

	out = fromWireReplies(&docspb.BatchUpdateDocumentResponse{Replies: []*docspb.Response{
		{CreateHeader: &docspb.CreateHeaderResponse{HeaderId: "h.1"}},
		nil,
		{CreateFootnote: &docspb.CreateFootnoteResponse{FootnoteId: "fn.1"}},
	}})
	require.Len(t, out.Replies, 3)
	assert.Equal(t, "h.1", out.Replies[0].HeaderID)
	assert.Equal(t, docengine.Reply{}, out.Replies[1])
	assert.Equal(t, "fn.1", out.Replies[2].FootnoteID)
}
