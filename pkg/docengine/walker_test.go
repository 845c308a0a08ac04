package docengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

func newWalker() docengine.RequestWalker {
	return docengine.RequestWalker{}
}

func Test_RequestWalker_Text_Edit_Deletes_Old_Text_Then_Inserts_New(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t"><body><p>Hello</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t"><body><p>World</p></body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)

	require.NotNil(t, reqs[0].DeleteContentRange)
	assert.Equal(t, 1, reqs[0].DeleteContentRange.Range.Start)
	assert.Equal(t, 6, reqs[0].DeleteContentRange.Range.End)

	var insert *docengine.InsertTextRequest
	for _, r := range reqs {
		if r.InsertText != nil {
			insert = r.InsertText
			break
		}
	}
	require.NotNil(t, insert)
	assert.Equal(t, "World", insert.Text)
	assert.Equal(t, 1, insert.Location.Index)
}

func Test_RequestWalker_Added_Tab_Emits_AddDocumentTab_Then_Fills_Body(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body><p>Keep</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body><p>Keep</p></body></tab>`+
			`<tab id="t2" title="New"><body><p>Fresh</p></body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)
	require.NotEmpty(t, reqs)

	require.NotNil(t, reqs[0].AddDocumentTab)
	assert.Equal(t, "t2", reqs[0].AddDocumentTab.SyntheticTabID)
	assert.Equal(t, "New", reqs[0].AddDocumentTab.Title)

	var insert *docengine.InsertTextRequest
	for _, r := range reqs[1:] {
		if r.InsertText != nil {
			insert = r.InsertText
			break
		}
	}
	require.NotNil(t, insert)
	assert.Equal(t, "Fresh", insert.Text)
	assert.Equal(t, "t2", insert.Location.TabID)
	assert.Equal(t, 1, insert.Location.Index)
}

func Test_RequestWalker_Deleted_Tab_Emits_DeleteTab_Only(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body><p>Keep</p></body></tab>`+
			`<tab id="t2"><body><p>Gone</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body><p>Keep</p></body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].DeleteTab)
	assert.Equal(t, "t2", reqs[0].DeleteTab.TabID)
}

func Test_RequestWalker_Tab_Title_Change_Alone_Emits_UpdateDocumentTabProperties(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1" title="Old"><body><p>Same</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t1" title="New"><body><p>Same</p></body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].UpdateDocumentTabProperties)
	assert.Equal(t, "t1", reqs[0].UpdateDocumentTabProperties.TabID)
	assert.Equal(t, "New", reqs[0].UpdateDocumentTabProperties.Title)
}

func Test_RequestWalker_Added_Header_Creates_It_Then_Fills_Content(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body><p>Body</p></body></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body><p>Body</p></body>`+
			`<header id="h1"><p>Head</p></header></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)

	var sawCreate bool
	var insert *docengine.InsertTextRequest
	for _, r := range reqs {
		if r.CreateHeader != nil {
			sawCreate = true
			assert.Equal(t, "t1", r.CreateHeader.TabID)
		}
		if r.InsertText != nil && r.InsertText.Text == "Head" {
			insert = r.InsertText
		}
	}
	assert.True(t, sawCreate)
	require.NotNil(t, insert)
	assert.Equal(t, "h1", insert.Location.SegmentID)
	assert.Equal(t, 0, insert.Location.Index)
}

func Test_RequestWalker_Deleted_Footer_Emits_DeleteFooter(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body><p>Body</p></body>`+
			`<footer id="f1"><p>Foot</p></footer></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body><p>Body</p></body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)

	var found bool
	for _, r := range reqs {
		if r.DeleteFooter != nil {
			found = true
			assert.Equal(t, "t1", r.DeleteFooter.TabID)
			assert.Equal(t, "f1", r.DeleteFooter.FooterID)
		}
	}
	assert.True(t, found)
}

func Test_RequestWalker_Modified_Table_Dispatches_To_TableGenerator(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body><table id="tb1">`+
			`<col id="c1"/>`+
			`<tr id="r1"><td id="c1"><p>A</p></td></tr>`+
			`<tr id="r2"><td id="c1"><p>B</p></td></tr>`+
			`</table></body></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body><table id="tb1">`+
			`<col id="c1"/>`+
			`<tr id="r1"><td id="c1"><p>A</p></td></tr>`+
			`</table></body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)

	var found bool
	for _, r := range reqs {
		if r.DeleteTableRow != nil {
			found = true
			assert.Equal(t, 1, r.DeleteTableRow.RowIndex)
		}
	}
	assert.True(t, found)
}

func Test_RequestWalker_Deleted_Footnote_Reference_Emits_Single_Unit_Delete(t *testing.T) {
	t.Parallel()

	root := diffDocs(t,
		`<doc id="d1"><tab id="t1"><body>`+
			`<p>Hello<footnote id="fn1"><p>note</p></footnote> World</p>`+
			`</body></tab></doc>`,
		`<doc id="d1"><tab id="t1"><body>`+
			`<p>Hello World</p>`+
			`</body></tab></doc>`,
	)

	reqs, err := newWalker().Walk(root)
	require.NoError(t, err)

	var found bool
	for _, r := range reqs {
		if r.DeleteContentRange != nil && r.DeleteContentRange.Range.End-r.DeleteContentRange.Range.Start == 1 {
			found = true
		}
	}
	assert.True(t, found)
}
