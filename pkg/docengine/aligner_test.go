package docengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

func blocksOf(t *testing.T, doc *docengine.Document) []docengine.StructuralBlock {
	t.Helper()
	return doc.Tabs[0].Segments[0].Blocks
}

func Test_BlockAligner_Matches_Unchanged_Content_By_Hash(t *testing.T) {
	t.Parallel()

	pristine := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><p>Same</p></body></tab></doc>`)
	current := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><p>Same</p></body></tab></doc>`)

	aligned := docengine.BlockAligner{}.Align(blocksOf(t, pristine), blocksOf(t, current))

	require.Len(t, aligned, 1)
	require.NotNil(t, aligned[0].PristineIdx)
	require.NotNil(t, aligned[0].CurrentIdx)
	assert.Equal(t, 0, *aligned[0].PristineIdx)
	assert.Equal(t, 0, *aligned[0].CurrentIdx)
}

func Test_BlockAligner_Matches_Modified_Paragraph_By_Structural_Key(t *testing.T) {
	t.Parallel()

	pristine := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><p>Hello</p></body></tab></doc>`)
	current := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><p>World</p></body></tab></doc>`)

	aligned := docengine.BlockAligner{}.Align(blocksOf(t, pristine), blocksOf(t, current))

	require.Len(t, aligned, 1)
	require.NotNil(t, aligned[0].PristineIdx)
	require.NotNil(t, aligned[0].CurrentIdx)
}

func Test_BlockAligner_Reports_Pure_Addition_And_Deletion(t *testing.T) {
	t.Parallel()

	pristine := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><p>Gone</p></body></tab></doc>`)
	current := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><h1>New</h1></body></tab></doc>`)

	aligned := docengine.BlockAligner{}.Align(blocksOf(t, pristine), blocksOf(t, current))

	require.Len(t, aligned, 2)
	var sawDeletion, sawAddition bool
	for _, a := range aligned {
		if a.PristineIdx != nil && a.CurrentIdx == nil {
			sawDeletion = true
		}
		if a.PristineIdx == nil && a.CurrentIdx != nil {
			sawAddition = true
		}
	}
	assert.True(t, sawDeletion)
	assert.True(t, sawAddition)
}

func Test_BlockAligner_Preserves_Current_Order_With_Interleaved_Deletion(t *testing.T) {
	t.Parallel()

	pristine := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body>
		<p>First</p><p>DeleteMe</p><p>Third</p>
	</body></tab></doc>`)
	current := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body>
		<p>First</p><p>Third</p>
	</body></tab></doc>`)

	aligned := docengine.BlockAligner{}.Align(blocksOf(t, pristine), blocksOf(t, current))
	require.Len(t, aligned, 3)

	// "First" matches, then the deletion of "DeleteMe" (pristine idx 1)
	// must appear before the match of "Third", preserving ascending
	// pristine order between matches.
	assert.Equal(t, 0, *aligned[0].PristineIdx)
	assert.Equal(t, 0, *aligned[0].CurrentIdx)
	assert.Equal(t, 1, *aligned[1].PristineIdx)
	assert.Nil(t, aligned[1].CurrentIdx)
	assert.Equal(t, 2, *aligned[2].PristineIdx)
	assert.Equal(t, 1, *aligned[2].CurrentIdx)
}

func Test_BlockAligner_AlignRows_Matches_By_RowID_With_Positional_Fallback(t *testing.T) {
	t.Parallel()

	pristine := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><table id="tbl1">
		<tr id="dup"><td><p>a</p></td></tr>
		<tr id="dup"><td><p>b</p></td></tr>
	</table></body></tab></doc>`)
	current := parseAndIndex(t, `<doc id="d1"><tab id="t1"><body><table id="tbl1">
		<tr id="dup"><td><p>a2</p></td></tr>
	</table></body></tab></doc>`)

	pRows := blocksOf(t, pristine)[0].(*docengine.Table).Rows
	cRows := blocksOf(t, current)[0].(*docengine.Table).Rows

	aligned := docengine.BlockAligner{}.AlignRows(pRows, cRows)
	require.Len(t, aligned, 2)

	assert.Equal(t, 0, *aligned[0].PristineIdx)
	assert.Equal(t, 0, *aligned[0].CurrentIdx)
	assert.Equal(t, 1, *aligned[1].PristineIdx)
	assert.Nil(t, aligned[1].CurrentIdx)
}
