package xmlconv_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docspb "google.golang.org/api/docs/v1"

	"github.com/calvinalkan/docsync/internal/xmlconv"
	"github.com/calvinalkan/docsync/pkg/docengine"
)

func textParagraph(text string) *docspb.StructuralElement {
	return &docspb.StructuralElement{Paragraph: &docspb.Paragraph{
		Elements: []*docspb.ParagraphElement{{TextRun: &docspb.TextRun{Content: text + "\n"}}},
		ParagraphStyle: &docspb.ParagraphStyle{NamedStyleType: "NORMAL_TEXT"},
	}}
}

func tabbedDoc(tabs ...*docspb.Tab) *docspb.Document {
	return &docspb.Document{
		DocumentId: "doc1",
		Title:      "Test Doc",
		RevisionId: "rev1",
		Tabs:       tabs,
	}
}

func Test_Convert_Simple_Paragraph(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0", Title: "Main"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{textParagraph("Hello")}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, `<doc id="doc1" revision="rev1">`)
	assert.Contains(t, res.DocumentXML, `<tab id="t.0" title="Main">`)
	assert.Contains(t, res.DocumentXML, "<p>Hello</p>")
	assert.Equal(t, 1, res.TabCount)
	assert.Equal(t, "rev1", res.Revision)
}

func Test_Convert_Output_Parses_And_Indexes(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{
				textParagraph("Hello"),
				textParagraph("World"),
			}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	parsed, err := docengine.BlockParser{}.Parse(res.DocumentXML)
	require.NoError(t, err)
	require.NoError(t, docengine.BlockIndexer{}.Compute(parsed))

	require.Len(t, parsed.Tabs, 1)
	body := parsed.Tabs[0].Segments[0]
	require.Len(t, body.Blocks, 2)

	start, end := body.Blocks[0].Range()
	assert.Equal(t, 1, start)
	assert.Equal(t, 7, end) // "Hello" + newline
	start, _ = body.Blocks[1].Range()
	assert.Equal(t, 7, start)
}

func Test_Convert_Named_Styles_Map_To_Heading_Tags(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{
				{Paragraph: &docspb.Paragraph{
					Elements:       []*docspb.ParagraphElement{{TextRun: &docspb.TextRun{Content: "Top\n"}}},
					ParagraphStyle: &docspb.ParagraphStyle{NamedStyleType: "HEADING_1"},
				}},
				{Paragraph: &docspb.Paragraph{
					Elements:       []*docspb.ParagraphElement{{TextRun: &docspb.TextRun{Content: "Sub\n"}}},
					ParagraphStyle: &docspb.ParagraphStyle{NamedStyleType: "SUBTITLE"},
				}},
			}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, "<h1>Top</h1>")
	assert.Contains(t, res.DocumentXML, "<subtitle>Sub</subtitle>")
}

func Test_Convert_Bold_And_Styled_Runs(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{
				{Paragraph: &docspb.Paragraph{Elements: []*docspb.ParagraphElement{
					{TextRun: &docspb.TextRun{Content: "plain "}},
					{TextRun: &docspb.TextRun{
						Content:   "loud",
						TextStyle: &docspb.TextStyle{Bold: true},
					}},
					{TextRun: &docspb.TextRun{
						Content: "red\n",
						TextStyle: &docspb.TextStyle{
							ForegroundColor: &docspb.OptionalColor{Color: &docspb.Color{RgbColor: &docspb.RgbColor{Red: 1}}},
						},
					}},
				}}},
			}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, "<b>loud</b>")
	assert.Contains(t, res.DocumentXML, `<span class="`)
	assert.Contains(t, res.StylesXML, `color="#ff0000"`)
}

func Test_Convert_Bullet_List_Items(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Lists: map[string]docspb.List{
				"list1": {ListProperties: &docspb.ListProperties{NestingLevels: []*docspb.NestingLevel{
					{GlyphType: "DECIMAL"},
				}}},
			},
			Body: &docspb.Body{Content: []*docspb.StructuralElement{
				{Paragraph: &docspb.Paragraph{
					Elements: []*docspb.ParagraphElement{{TextRun: &docspb.TextRun{Content: "First\n"}}},
					Bullet:   &docspb.Bullet{ListId: "list1", NestingLevel: 0},
				}},
			}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, `<li type="decimal" level="0">First</li>`)
}

func Test_Convert_Inlines_Footnote_Bodies(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Footnotes: map[string]docspb.Footnote{
				"fn1": {Content: []*docspb.StructuralElement{textParagraph("the note")}},
			},
			Body: &docspb.Body{Content: []*docspb.StructuralElement{
				{Paragraph: &docspb.Paragraph{Elements: []*docspb.ParagraphElement{
					{TextRun: &docspb.TextRun{Content: "see"}},
					{FootnoteReference: &docspb.FootnoteReference{FootnoteId: "fn1"}},
					{TextRun: &docspb.TextRun{Content: "\n"}},
				}}},
			}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, `see<footnote id="fn1"><p>the note</p></footnote>`)
}

func Test_Convert_Table_Gets_Stable_Content_Hash_IDs(t *testing.T) {
	t.Parallel()

	table := &docspb.StructuralElement{Table: &docspb.Table{
		TableRows: []*docspb.TableRow{
			{TableCells: []*docspb.TableCell{
				{Content: []*docspb.StructuralElement{textParagraph("A")}},
				{Content: []*docspb.StructuralElement{textParagraph("B")}},
			}},
		},
	}}

	mk := func() *docspb.Document {
		return tabbedDoc(&docspb.Tab{
			TabProperties: &docspb.TabProperties{TabId: "t.0"},
			DocumentTab: &docspb.DocumentTab{
				Body: &docspb.Body{Content: []*docspb.StructuralElement{textParagraph("before"), table}},
			},
		})
	}

	a, err := xmlconv.Convert(mk())
	require.NoError(t, err)
	b, err := xmlconv.Convert(mk())
	require.NoError(t, err)

	assert.Equal(t, a.DocumentXML, b.DocumentXML, "ids must be stable across pulls")
	assert.Contains(t, a.DocumentXML, "<table id=")
	assert.Contains(t, a.DocumentXML, "<tr id=")
	assert.Contains(t, a.DocumentXML, "<td id=")
}

func Test_Convert_Special_Elements(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{
				{Paragraph: &docspb.Paragraph{Elements: []*docspb.ParagraphElement{
					{HorizontalRule: &docspb.HorizontalRule{}},
					{PageBreak: &docspb.PageBreak{}},
					{StartIndex: 3, EndIndex: 8, Equation: &docspb.Equation{}},
					{TextRun: &docspb.TextRun{Content: "\n"}},
				}}},
			}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, "<hr/>")
	assert.Contains(t, res.DocumentXML, "<pagebreak/>")
	assert.Contains(t, res.DocumentXML, `<equation length="5"/>`)
}

func Test_Convert_Legacy_Document_Synthesizes_Tab(t *testing.T) {
	t.Parallel()

	doc := &docspb.Document{
		DocumentId: "doc1",
		RevisionId: "rev1",
		Body:       &docspb.Body{Content: []*docspb.StructuralElement{textParagraph("legacy")}},
	}

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, `<tab id="t.0">`)
	assert.Contains(t, res.DocumentXML, "<p>legacy</p>")
}

func Test_Convert_Headers_And_Footers(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{textParagraph("body")}},
			Headers: map[string]docspb.Header{
				"h1": {Content: []*docspb.StructuralElement{textParagraph("top")}},
			},
			Footers: map[string]docspb.Footer{
				"f1": {Content: []*docspb.StructuralElement{textParagraph("bottom")}},
			},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, `<header id="h1">`)
	assert.Contains(t, res.DocumentXML, `<footer id="f1">`)

	headerAt := strings.Index(res.DocumentXML, "<header")
	bodyEndAt := strings.Index(res.DocumentXML, "</body>")
	assert.Greater(t, headerAt, bodyEndAt, "headers come after the body")
}

func Test_Convert_Escapes_Markup_In_Text(t *testing.T) {
	t.Parallel()

	doc := tabbedDoc(&docspb.Tab{
		TabProperties: &docspb.TabProperties{TabId: "t.0"},
		DocumentTab: &docspb.DocumentTab{
			Body: &docspb.Body{Content: []*docspb.StructuralElement{textParagraph(`a < b & "c"`)}},
		},
	})

	res, err := xmlconv.Convert(doc)
	require.NoError(t, err)

	assert.Contains(t, res.DocumentXML, "a &lt; b &amp; &quot;c&quot;")
}
