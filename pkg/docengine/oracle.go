package docengine

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// Oracle is an in-memory model of a single-tab document body, used by the
// property and fuzz tests as the source of truth for what a correct diff
// must do. If the pipeline disagrees with the oracle, the pipeline is
// wrong.
//
// The model deliberately covers only plain paragraph content — no tables,
// bullets, or special elements. That keeps ApplyText obviously correct by
// inspection: a body is exactly the concatenation of its paragraphs'
// UTF-16 text, each terminated by one newline, starting at index 1.
//
// Design principles (mirroring the rest of the test oracles in this
// repository): simple over performant, explicit over clever, no
// dependencies beyond the standard library, panics indicate bugs in the
// oracle itself.
type Oracle struct {
	Paragraphs []OracleParagraph
}

// OracleParagraph is one modeled paragraph.
type OracleParagraph struct {
	Tag  string // "p", "h1".."h6", "title", "subtitle"
	Text string // plain text, no markup, no newline
}

// XML renders the model as a document.xml body the parser accepts.
func (o Oracle) XML() string {
	var b strings.Builder

	b.WriteString(`<doc id="oracle"><tab id="t"><body>`)

	for _, p := range o.Paragraphs {
		tag := p.Tag
		if tag == "" {
			tag = "p"
		}

		b.WriteString("<" + tag + ">")
		b.WriteString(escapeOracleText(p.Text))
		b.WriteString("</" + tag + ">")
	}

	b.WriteString(`</body></tab></doc>`)

	return b.String()
}

// BodyText is the body's full content in the remote coordinate system:
// every paragraph's text plus its trailing newline. Index i of the
// segment corresponds to UTF-16 unit i-1 of this string (index 0 is the
// initial section break slot and has no text).
func (o Oracle) BodyText() string {
	var b strings.Builder

	for _, p := range o.Paragraphs {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}

	return b.String()
}

// SegmentEnd is the body's end index: 1 (start) + UTF-16 length of the
// content.
func (o Oracle) SegmentEnd() int {
	return 1 + len(utf16.Encode([]rune(o.BodyText())))
}

// ApplyText replays a request list's text mutations (insertText and
// deleteContentRange only; style and bullet requests carry no text) over
// a body's content, in request order, exactly the way the remote server
// would. pristine is the BodyText of the left-hand document. It returns
// the resulting body text.
//
// Requests addressing any segment other than the body (footnotes created
// mid-batch) are ignored: the oracle models one segment.
func ApplyText(pristine string, requests []Request) (string, error) {
	units := utf16.Encode([]rune(pristine))

	for i, r := range requests {
		switch {
		case r.DeleteContentRange != nil:
			rng := r.DeleteContentRange.Range
			if rng.SegmentID != "" {
				continue
			}

			start, end := rng.Start-1, rng.End-1
			if start < 0 || end > len(units) || start > end {
				return "", fmt.Errorf("request %d: delete [%d,%d) out of range (len %d)", i, rng.Start, rng.End, len(units)+1)
			}

			units = append(units[:start:start], units[end:]...)

		case r.InsertText != nil:
			loc := r.InsertText.Location
			if loc.SegmentID != "" {
				continue
			}

			at := loc.Index - 1
			if at < 0 || at > len(units) {
				return "", fmt.Errorf("request %d: insert at %d out of range (len %d)", i, loc.Index, len(units)+1)
			}

			ins := utf16.Encode([]rune(r.InsertText.Text))
			units = append(units[:at:at], append(ins, units[at:]...)...)
		}
	}

	return string(utf16.Decode(units)), nil
}

func escapeOracleText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
