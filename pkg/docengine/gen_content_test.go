package docengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

func Test_ContentGenerator_Add_Emits_InsertText_Then_Reset(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs, consumed, err := gen.GenerateAdd(`<p>World</p>`, 1, false, docengine.Location{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(reqs), 3)

	require.NotNil(t, reqs[0].InsertText)
	assert.Equal(t, "World\n", reqs[0].InsertText.Text)
	assert.Equal(t, 1, reqs[0].InsertText.Location.Index)

	require.NotNil(t, reqs[1].UpdateTextStyle)
	assert.Equal(t, 1, reqs[1].UpdateTextStyle.Range.Start)
	assert.Equal(t, 7, reqs[1].UpdateTextStyle.Range.End)

	assert.Equal(t, 6, consumed) // "World\n" is 6 UTF-16 units
}

func Test_ContentGenerator_Add_Emits_Heading_Style(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs, _, err := gen.GenerateAdd(`<h1>Title</h1>`, 1, false, docengine.Location{})
	require.NoError(t, err)

	var sawHeading bool
	for _, r := range reqs {
		if r.UpdateParagraphStyle != nil && r.UpdateParagraphStyle.Style.NamedStyleType == "HEADING_1" {
			sawHeading = true
		}
	}
	assert.True(t, sawHeading)
}

func Test_ContentGenerator_Add_Merges_Contiguous_Bullets_Into_One_Request(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs, _, err := gen.GenerateAdd(
		`<li type="bullet">One</li><li type="bullet">Two</li><li type="bullet">Three</li>`,
		1, false, docengine.Location{},
	)
	require.NoError(t, err)

	var bulletReqs int
	for _, r := range reqs {
		if r.CreateParagraphBullets != nil {
			bulletReqs++
			assert.Equal(t, "BULLET_DISC_CIRCLE_SQUARE", r.CreateParagraphBullets.Preset)
		}
	}
	assert.Equal(t, 1, bulletReqs)
}

func Test_ContentGenerator_Add_Emits_DeleteParagraphBullets_For_Non_Bullet(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs, _, err := gen.GenerateAdd(`<p>Plain</p>`, 1, false, docengine.Location{})
	require.NoError(t, err)

	var sawDelete bool
	for _, r := range reqs {
		if r.DeleteParagraphBullets != nil {
			sawDelete = true
		}
	}
	assert.True(t, sawDelete)
}

func Test_ContentGenerator_Add_Attaches_Placeholder_Footnote_Id(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs, _, err := gen.GenerateAdd(`<p>Hello<footnote id="f1"><p>note</p></footnote></p>`, 1, false, docengine.Location{})
	require.NoError(t, err)

	var found bool
	for _, r := range reqs {
		if r.CreateFootnote != nil {
			found = true
			assert.Equal(t, "f1", r.PlaceholderFootnoteID)
		}
	}
	assert.True(t, found)
}

func Test_ContentGenerator_Delete_Clamps_Before_Segment_End(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs := gen.GenerateDelete(1, 10, 10, false, docengine.Location{})
	require.Len(t, reqs, 1)
	assert.Equal(t, 9, reqs[0].DeleteContentRange.Range.End)
}

func Test_ContentGenerator_Delete_Clamps_Before_Structural_Element(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs := gen.GenerateDelete(1, 6, 100, true, docengine.Location{})
	require.Len(t, reqs, 1)
	assert.Equal(t, 5, reqs[0].DeleteContentRange.Range.End)
}

func Test_ContentGenerator_Delete_Skips_Empty_Clamped_Range(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs := gen.GenerateDelete(5, 6, 6, false, docengine.Location{})
	assert.Empty(t, reqs)
}

func Test_ContentGenerator_Add_Strips_Trailing_Newline_When_Requested(t *testing.T) {
	t.Parallel()

	gen := docengine.ContentGenerator{}
	reqs, consumed, err := gen.GenerateAdd(`<p>World</p>`, 1, true, docengine.Location{})
	require.NoError(t, err)

	require.NotNil(t, reqs[0].InsertText)
	assert.Equal(t, "World", reqs[0].InsertText.Text)
	assert.Equal(t, 5, consumed) // "World" without its trailing newline
}
