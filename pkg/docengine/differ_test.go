package docengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

func diffDocs(t *testing.T, pristineXML, currentXML string) *docengine.ChangeNode {
	t.Helper()
	pristine := parseAndIndex(t, pristineXML)
	current := parseAndIndex(t, currentXML)
	return docengine.TreeDiffer{}.Diff(pristine, current)
}

func Test_TreeDiffer_Pure_Text_Edit_Produces_One_Modified_Content_Block(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t"><body><p>Hello</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t"><body><p>World</p></body></tab></doc>`,
	)

	require.Len(t, root.Children, 1)
	tab := root.Children[0]
	require.Equal(t, docengine.NodeTab, tab.Type)
	require.Len(t, tab.Children, 1)

	seg := tab.Children[0]
	require.Equal(t, docengine.NodeSegment, seg.Type)
	require.Len(t, seg.Children, 1)

	block := seg.Children[0]
	assert.Equal(t, docengine.NodeContentBlock, block.Type)
	assert.Equal(t, docengine.Modified, block.Op)
}

func Test_TreeDiffer_Unchanged_Document_Produces_No_Children(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t"><body><p>Same</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t"><body><p>Same</p></body></tab></doc>`,
	)
	assert.Empty(t, root.Children)
}

func Test_TreeDiffer_Delete_Row_From_Table_Produces_Single_Row_Delete(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t"><body><table id="tbl1">
			<tr id="r0"><td><p>a</p></td><td><p>b</p></td></tr>
			<tr id="r1"><td><p>c</p></td><td><p>d</p></td></tr>
		</table></body></tab></doc>`,
		`<doc id="d1"><tab id="t"><body><table id="tbl1">
			<tr id="r1"><td><p>c</p></td><td><p>d</p></td></tr>
		</table></body></tab></doc>`,
	)

	table := root.Children[0].Children[0].Children[0]
	require.Equal(t, docengine.NodeTable, table.Type)
	require.Equal(t, docengine.Modified, table.Op)
	require.Len(t, table.Children, 1)
	assert.Equal(t, docengine.NodeTableRow, table.Children[0].Type)
	assert.Equal(t, docengine.Deleted, table.Children[0].Op)
	assert.Equal(t, "r0", table.Children[0].NodeID)
}

func Test_TreeDiffer_New_Tab_Is_Reported_Added_With_Full_XML(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body><p>Hi</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body><p>Hi</p></body></tab>
		 <tab id="t2"><body><p>New</p></body></tab></doc>`,
	)

	require.Len(t, root.Children, 1)
	tab := root.Children[0]
	assert.Equal(t, docengine.Added, tab.Op)
	assert.Equal(t, "t2", tab.TabID)
	assert.NotEmpty(t, tab.AfterXML)
}

func Test_TreeDiffer_Suppresses_Empty_Paragraph_Delete_Before_Table(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t"><body>
			<p></p>
			<table id="tbl1"><tr id="r0"><td><p>a</p></td></tr></table>
		</body></tab></doc>`,
		`<doc id="d1"><tab id="t"><body>
			<table id="tbl1"><tr id="r0"><td><p>a</p></td></tr></table>
		</body></tab></doc>`,
	)

	// The empty paragraph's "deletion" is reclassified as unchanged, so the
	// only surviving change is whatever (if anything) differs in the table
	// — here, nothing, so there should be no segment-level node at all.
	assert.Empty(t, root.Children)
}

func Test_TreeDiffer_Footnote_Added_Inline_Is_Reported_As_Child_Of_Content_Block(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t"><body><p>Hello</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t"><body><p>Hello<footnote id="f1"><p>note</p></footnote></p></body></tab></doc>`,
	)

	block := root.Children[0].Children[0].Children[0]
	require.Equal(t, docengine.NodeContentBlock, block.Type)
	require.Len(t, block.Children, 1)
	assert.Equal(t, docengine.Added, block.Children[0].Op)
	assert.Equal(t, "f1", block.Children[0].NodeID)
	assert.Equal(t, docengine.SegmentFootnote, block.Children[0].SegmentType)
}
