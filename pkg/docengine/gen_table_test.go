package docengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

func Test_TableGenerator_Added_Emits_InsertTable_Then_Populates_Cells(t *testing.T) {
	t.Parallel()

	gen := docengine.TableGenerator{}
	afterXML := `<table id="t1">` +
		`<col id="c1"/><col id="c2"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td><td id="c2"><p>B</p></td></tr>` +
		`</table>`

	reqs, err := gen.GenerateAdded(afterXML, 5, docengine.Location{})
	require.NoError(t, err)
	require.NotEmpty(t, reqs)

	require.NotNil(t, reqs[0].InsertTable)
	assert.Equal(t, 1, reqs[0].InsertTable.Rows)
	assert.Equal(t, 2, reqs[0].InsertTable.Columns)
	assert.Equal(t, 5, reqs[0].InsertTable.Location.Index)

	var sawInsertText bool
	for _, r := range reqs[1:] {
		if r.InsertText != nil {
			sawInsertText = true
		}
	}
	assert.True(t, sawInsertText)
}

func Test_TableGenerator_Deleted_Emits_Single_DeleteContentRange(t *testing.T) {
	t.Parallel()

	gen := docengine.TableGenerator{}
	reqs := gen.GenerateDeleted(10, 20, docengine.Location{})
	require.Len(t, reqs, 1)
	assert.Equal(t, 10, reqs[0].DeleteContentRange.Range.Start)
	assert.Equal(t, 20, reqs[0].DeleteContentRange.Range.End)
}

func Test_TableGenerator_Deleted_Skips_Empty_Range(t *testing.T) {
	t.Parallel()

	gen := docengine.TableGenerator{}
	reqs := gen.GenerateDeleted(10, 10, docengine.Location{})
	assert.Empty(t, reqs)
}

// diffOneTable parses two <doc> documents each holding a single table and
// returns the differ's ChangeNode for that table, the way RequestWalker
// would find it among a modified segment's children.
func diffOneTable(t *testing.T, beforeTable, afterTable string) *docengine.ChangeNode {
	t.Helper()
	pDoc := parseAndIndex(t, `<doc id="d"><tab id="t"><body>`+beforeTable+`</body></tab></doc>`)
	cDoc := parseAndIndex(t, `<doc id="d"><tab id="t"><body>`+afterTable+`</body></tab></doc>`)

	tree := docengine.TreeDiffer{}.Diff(pDoc, cDoc)
	for _, tabNode := range tree.Children {
		for _, segNode := range tabNode.Children {
			for _, n := range segNode.Children {
				if n.Type == docengine.NodeTable {
					return n
				}
			}
		}
	}
	t.Fatal("no table ChangeNode found")
	return nil
}

func Test_TableGenerator_Modified_Deletes_Removed_Row_Highest_Index_First(t *testing.T) {
	t.Parallel()

	before := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td></tr>` +
		`<tr id="r2"><td id="c1"><p>B</p></td></tr>` +
		`</table>`
	after := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td></tr>` +
		`</table>`

	node := diffOneTable(t, before, after)

	gen := docengine.TableGenerator{}
	reqs, err := gen.GenerateModified(node, docengine.Location{})
	require.NoError(t, err)

	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].DeleteTableRow)
	assert.Equal(t, 1, reqs[0].DeleteTableRow.RowIndex)
}

func Test_TableGenerator_Modified_Emits_Column_Width_Update(t *testing.T) {
	t.Parallel()

	before := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td></tr>` +
		`</table>`
	after := `<table id="t1">` +
		`<col id="c1" width="200pt"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td></tr>` +
		`</table>`

	node := diffOneTable(t, before, after)

	gen := docengine.TableGenerator{}
	reqs, err := gen.GenerateModified(node, docengine.Location{})
	require.NoError(t, err)

	var sawWidth bool
	for _, r := range reqs {
		if r.UpdateTableColumnProperties != nil {
			sawWidth = true
			assert.Equal(t, "FIXED_WIDTH", r.UpdateTableColumnProperties.WidthType)
			assert.InDelta(t, 200, r.UpdateTableColumnProperties.WidthMagnitude, 0.001)
		}
	}
	assert.True(t, sawWidth)
}

func Test_TableGenerator_Modified_Updates_Changed_Cell_Content(t *testing.T) {
	t.Parallel()

	before := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>Old</p></td></tr>` +
		`</table>`
	after := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>New</p></td></tr>` +
		`</table>`

	node := diffOneTable(t, before, after)

	gen := docengine.TableGenerator{}
	reqs, err := gen.GenerateModified(node, docengine.Location{})
	require.NoError(t, err)

	var sawDelete, sawInsert bool
	for _, r := range reqs {
		if r.DeleteContentRange != nil {
			sawDelete = true
		}
		if r.InsertText != nil && r.InsertText.Text == "New\n" {
			sawInsert = true
		}
	}
	assert.True(t, sawDelete)
	assert.True(t, sawInsert)
}

func Test_TableGenerator_Modified_Emits_Cell_Style_Update_On_Class_Change(t *testing.T) {
	t.Parallel()

	catalog, err := docengine.ParseStyleCatalog(
		`<styles><style id="cell-a1b2c" bg="#cccccc" valign="middle"/></styles>`)
	require.NoError(t, err)

	before := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td></tr>` +
		`</table>`
	after := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1" class="cell-a1b2c"><p>A</p></td></tr>` +
		`</table>`

	node := diffOneTable(t, before, after)

	gen := docengine.TableGenerator{Content: docengine.ContentGenerator{Styles: catalog}}
	reqs, err := gen.GenerateModified(node, docengine.Location{})
	require.NoError(t, err)

	var style *docengine.UpdateTableCellStyleRequest
	for _, r := range reqs {
		if r.UpdateTableCellStyle != nil {
			style = r.UpdateTableCellStyle
		}
	}
	require.NotNil(t, style)
	assert.Equal(t, 0, style.RowIndex)
	assert.Equal(t, 0, style.ColIndex)
	assert.Equal(t, "#cccccc", style.Style.BackgroundColor)
	assert.Equal(t, "MIDDLE", style.Style.ContentAlignment)
	assert.Contains(t, style.Fields, "backgroundColor")
}

func Test_TableGenerator_Modified_Removed_Cell_Class_Resets_Style(t *testing.T) {
	t.Parallel()

	before := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1" class="cell-a1b2c"><p>A</p></td></tr>` +
		`</table>`
	after := `<table id="t1">` +
		`<col id="c1"/>` +
		`<tr id="r1"><td id="c1"><p>A</p></td></tr>` +
		`</table>`

	node := diffOneTable(t, before, after)

	gen := docengine.TableGenerator{}
	reqs, err := gen.GenerateModified(node, docengine.Location{})
	require.NoError(t, err)

	var style *docengine.UpdateTableCellStyleRequest
	for _, r := range reqs {
		if r.UpdateTableCellStyle != nil {
			style = r.UpdateTableCellStyle
		}
	}
	require.NotNil(t, style)
	assert.Empty(t, style.Style.BackgroundColor)
	assert.Contains(t, style.Fields, "contentAlignment")
}
