package docengine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

// byteStream decodes fuzz bytes into bounded values deterministically;
// running out of bytes yields zeros, which still decode to a valid (if
// boring) document pair.
type byteStream struct {
	data []byte
	pos  int
}

func (s *byteStream) next() byte {
	if s.pos >= len(s.data) {
		return 0
	}

	b := s.data[s.pos]
	s.pos++

	return b
}

func (s *byteStream) intn(n int) int {
	if n <= 0 {
		return 0
	}

	return int(s.next()) % n
}

var oracleTags = []string{"p", "p", "p", "h1", "h2", "h3", "title", "subtitle"}

var oracleWords = []string{
	"alpha", "beta", "gamma", "delta", "", "x", "hello world",
	"résumé", "naïve", "日本語", "𝄞clef", "tabs\tinside", "  spaced  ",
}

func (s *byteStream) paragraph() docengine.OracleParagraph {
	return docengine.OracleParagraph{
		Tag:  oracleTags[s.intn(len(oracleTags))],
		Text: oracleWords[s.intn(len(oracleWords))],
	}
}

// document decodes up to max paragraphs.
func (s *byteStream) document(max int) docengine.Oracle {
	n := s.intn(max + 1)

	var o docengine.Oracle
	for i := 0; i < n; i++ {
		o.Paragraphs = append(o.Paragraphs, s.paragraph())
	}

	return o
}

// mutate derives a "current" document from a pristine one: a mix of
// keeps, drops, edits, and fresh insertions, driven by the stream.
func (s *byteStream) mutate(pristine docengine.Oracle) docengine.Oracle {
	var out docengine.Oracle

	for _, p := range pristine.Paragraphs {
		switch s.intn(4) {
		case 0: // drop
		case 1: // edit text
			p.Text = oracleWords[s.intn(len(oracleWords))]
			out.Paragraphs = append(out.Paragraphs, p)
		default: // keep
			out.Paragraphs = append(out.Paragraphs, p)
		}

		if s.intn(4) == 0 {
			out.Paragraphs = append(out.Paragraphs, s.paragraph())
		}
	}

	if s.intn(3) == 0 {
		out.Paragraphs = append(out.Paragraphs, s.paragraph())
	}

	return out
}

func pipelineRequests(t *testing.T, pristine, current docengine.Oracle) []docengine.Request {
	t.Helper()

	root := diffDocs(t, pristine.XML(), current.XML())

	reqs, err := docengine.RequestWalker{}.Walk(root)
	require.NoError(t, err)

	return reqs
}

// checkInvariants asserts the universal properties every request list
// must satisfy, whatever the input pair was.
func checkInvariants(t *testing.T, pristine docengine.Oracle, reqs []docengine.Request) {
	t.Helper()

	segmentEnd := pristine.SegmentEnd()

	lastStart := -1

	for i, r := range reqs {
		if r.DeleteContentRange != nil {
			rng := r.DeleteContentRange.Range

			assert.Less(t, rng.End, segmentEnd,
				"request %d deletes the segment's terminal newline", i)
			assert.Less(t, rng.Start, rng.End, "request %d has an empty delete range", i)
		}

		// Backwards-walk order: delete request start indexes never increase.
		if r.DeleteContentRange != nil {
			start := r.DeleteContentRange.Range.Start
			if lastStart >= 0 {
				assert.LessOrEqual(t, start, lastStart,
					"request %d breaks the backwards-walk order", i)
			}

			lastStart = start
		}
	}
}

func Fuzz_Diff_Then_Apply_Reproduces_Current_Document(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{3, 1, 2, 0, 1, 1, 2, 3})
	f.Add([]byte{5, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	f.Add([]byte{2, 7, 9, 3, 3, 3, 0, 0, 255, 128, 64, 32})

	f.Fuzz(func(t *testing.T, data []byte) {
		s := &byteStream{data: data}

		pristine := s.document(6)
		current := s.mutate(pristine)

		reqs := pipelineRequests(t, pristine, current)
		checkInvariants(t, pristine, reqs)

		applied, err := docengine.ApplyText(pristine.BodyText(), reqs)
		require.NoError(t, err)
		assert.Equal(t, current.BodyText(), applied,
			"pristine:\n%s\ncurrent:\n%s", pristine.XML(), current.XML())
	})
}

func Test_Oracle_Round_Trip_Identity(t *testing.T) {
	t.Parallel()

	docs := []docengine.Oracle{
		{},
		{Paragraphs: []docengine.OracleParagraph{{Tag: "p", Text: "one"}}},
		{Paragraphs: []docengine.OracleParagraph{
			{Tag: "h1", Text: "Heading"},
			{Tag: "p", Text: ""},
			{Tag: "p", Text: "résumé 日本語"},
		}},
	}

	for _, d := range docs {
		reqs := pipelineRequests(t, d, d)
		assert.Empty(t, reqs, "diff(X, X) must be empty for %s", d.XML())
	}
}

func Test_Oracle_Apply_Pure_Text_Edit(t *testing.T) {
	t.Parallel()

	pristine := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{{Tag: "p", Text: "Hello"}}}
	current := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{{Tag: "p", Text: "World"}}}

	reqs := pipelineRequests(t, pristine, current)
	checkInvariants(t, pristine, reqs)

	applied, err := docengine.ApplyText(pristine.BodyText(), reqs)
	require.NoError(t, err)
	assert.Equal(t, "World\n", applied)
}

func Test_Oracle_Apply_Insert_And_Delete_Mix(t *testing.T) {
	t.Parallel()

	pristine := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{
		{Tag: "p", Text: "first"},
		{Tag: "p", Text: "second"},
		{Tag: "p", Text: "third"},
	}}
	current := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{
		{Tag: "h1", Text: "intro"},
		{Tag: "p", Text: "first"},
		{Tag: "p", Text: "third"},
		{Tag: "p", Text: "coda"},
	}}

	reqs := pipelineRequests(t, pristine, current)
	checkInvariants(t, pristine, reqs)

	applied, err := docengine.ApplyText(pristine.BodyText(), reqs)
	require.NoError(t, err)
	assert.Equal(t, current.BodyText(), applied)
}

func Test_Oracle_Surrogate_Pair_Text_Counts_As_Two_Units(t *testing.T) {
	t.Parallel()

	// 𝄞 is outside the BMP: two UTF-16 units.
	pristine := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{{Tag: "p", Text: "𝄞"}}}
	assert.Equal(t, 1+3, pristine.SegmentEnd())

	current := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{{Tag: "p", Text: "x"}}}

	reqs := pipelineRequests(t, pristine, current)

	applied, err := docengine.ApplyText(pristine.BodyText(), reqs)
	require.NoError(t, err)
	assert.Equal(t, "x\n", applied)
}

func Test_Oracle_Comment_Refs_Are_Transparent(t *testing.T) {
	t.Parallel()

	pristineXML := `<doc id="d"><tab id="t"><body><p>annotated text</p></body></tab></doc>`
	currentXML := `<doc id="d"><tab id="t"><body><p>annotated <comment-ref id="c1">text</comment-ref></p></body></tab></doc>`

	root := diffDocs(t, pristineXML, currentXML)

	reqs, err := docengine.RequestWalker{}.Walk(root)
	require.NoError(t, err)
	assert.Empty(t, reqs, "comment-ref changes must not produce requests")
}

func Test_Oracle_Tab_Characters_Survive_Round_Trip(t *testing.T) {
	t.Parallel()

	pristine := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{{Tag: "p", Text: "a\tb"}}}
	current := docengine.Oracle{Paragraphs: []docengine.OracleParagraph{
		{Tag: "p", Text: "a\tb"},
		{Tag: "p", Text: strings.Repeat("x", 3)},
	}}

	reqs := pipelineRequests(t, pristine, current)

	applied, err := docengine.ApplyText(pristine.BodyText(), reqs)
	require.NoError(t, err)
	assert.Equal(t, current.BodyText(), applied)
}
