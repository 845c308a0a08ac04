package docengine

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// runStyle is the accumulated inline formatting in effect for one text run:
// the boolean flags come straight from nesting tags, classID is resolved
// against a StyleCatalog by the caller (content_generator has no catalog of
// its own — ContentGenerator is handed one).
type runStyle struct {
	bold, italic, underline, strikethrough bool
	superscript, subscript                 bool
	linkURL                                string
	classID                                string
}

func (s runStyle) isZero() bool {
	return !s.bold && !s.italic && !s.underline && !s.strikethrough &&
		!s.superscript && !s.subscript && s.linkURL == "" && s.classID == ""
}

type textRun struct {
	Text       string
	Start, End int
	Style      runStyle
}

type specialElement struct {
	Tag        string
	Offset     int
	Attrs      map[string]string
	UnitLength int // this engine's index-length accounting (1, or equation's n)
}

type footnoteInsert struct {
	FootnoteID string
	Offset     int
	BodyXML    string // concatenation of the footnote's child paragraph XML
}

type paragraphInfo struct {
	Tag         string
	Start, End  int
	Attrs       map[string]string
	BulletType  string
	BulletLevel int
	// PageBreakOnly marks a paragraph whose entire body is a single
	// <pagebreak/>: its text (empty) and newline are never part of the
	// plain-text insertText call, because insertPageBreak alone supplies
	// both of its index units in the real document.
	PageBreakOnly bool
}

type parsedContent struct {
	PlainText  string
	Runs       []textRun
	Paragraphs []paragraphInfo
	Specials   []specialElement
	Footnotes  []footnoteInsert
}

// parseContentXML parses a ContentBlock's XML (a bare sequence of paragraph
// elements, the form ChangeNode.AfterXML takes for an added/modified
// content block) into a parsedContent ready for request generation.
//
// Two passes run over the same source: an ordered token walk computes
// plain text, run offsets, and special-element offsets (xmlNode's
// DirectText does not preserve text/child interleaving, which this needs);
// a structural parseXMLTree pass locates footnote bodies, since those are
// generated as a separate, later content-insertion call once the
// createFootnote reply supplies a real footnote id.
func parseContentXML(xmlContent string) (parsedContent, error) {
	trimmed := strings.TrimSpace(xmlContent)
	if trimmed == "" {
		return parsedContent{}, nil
	}

	wrapped := "<root>" + xmlContent + "</root>"

	dec := xml.NewDecoder(strings.NewReader(wrapped))
	if _, err := dec.Token(); err != nil { // consume <root>
		return parsedContent{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var pc parsedContent
	var textParts []string
	offset := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return parsedContent{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.EndElement: // </root>
			goto done
		case xml.CharData:
			continue // whitespace between sibling paragraphs
		case xml.StartElement:
			tag := t.Name.Local
			attrs := attrMap(t.Attr)
			start := offset

			bulletType, bulletLevel := "", 0
			if tag == "li" {
				bulletType = attrOrDefault(attrs, "type", "bullet")
				bulletLevel, _ = strconv.Atoi(attrOrDefault(attrs, "level", "0"))
			}

			if bulletLevel > 0 {
				tabs := strings.Repeat("\t", bulletLevel)
				textParts = append(textParts, tabs)
				offset += utf16Len(tabs)
			}

			specialsBefore := len(pc.Specials)
			var paraParts []string
			if err := walkContentTokens(dec, runStyle{}, &offset, &paraParts, &pc.Runs, &pc.Specials); err != nil {
				return parsedContent{}, err
			}
			newSpecials := pc.Specials[specialsBefore:]
			pageBreakOnly := bulletLevel == 0 && len(newSpecials) == 1 &&
				newSpecials[0].Tag == "pagebreak" && strings.TrimSpace(strings.Join(paraParts, "")) == ""

			if !pageBreakOnly {
				textParts = append(textParts, paraParts...)
			}

			end := offset + 1 // the paragraph's own newline
			pc.Paragraphs = append(pc.Paragraphs, paragraphInfo{
				Tag: tag, Start: start, End: end, Attrs: attrs,
				BulletType: bulletType, BulletLevel: bulletLevel,
				PageBreakOnly: pageBreakOnly,
			})
			offset = end
			if !pageBreakOnly {
				textParts = append(textParts, "\n")
			}
		}
	}
done:

	pc.PlainText = strings.Join(textParts, "")

	footnotes, err := extractFootnoteBodies(wrapped, pc.Specials)
	if err != nil {
		return parsedContent{}, err
	}
	pc.Footnotes = footnotes

	return pc, nil
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func attrOrDefault(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// walkContentTokens recurses over dec's token stream until it consumes the
// EndElement that matches the StartElement the caller just read, threading
// inherited inline style down through nested b/i/u/s/sup/sub/a/span tags
// and recording special elements without descending into them (a
// footnote's body is generated separately, once a real footnote id
// exists).
func walkContentTokens(dec *xml.Decoder, style runStyle, offset *int, parts *[]string, runs *[]textRun, specials *[]specialElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil

		case xml.CharData:
			text := string(t)
			if text == "" {
				continue
			}
			*parts = append(*parts, text)
			if !style.isZero() {
				*runs = append(*runs, textRun{Text: text, Start: *offset, End: *offset + utf16Len(text), Style: style})
			}
			*offset += utf16Len(text)

		case xml.StartElement:
			tag := t.Name.Local
			if specialTags[tag] {
				length := 1
				attrs := attrMap(t.Attr)
				if tag == "equation" {
					if n, err := strconv.Atoi(attrs["length"]); err == nil && n > 0 {
						length = n
					}
				}
				*specials = append(*specials, specialElement{Tag: tag, Offset: *offset, Attrs: attrs, UnitLength: length})
				*offset += length
				if err := skipElement(dec); err != nil {
					return err
				}
				continue
			}

			child := style
			switch tag {
			case "b":
				child.bold = true
			case "i":
				child.italic = true
			case "u":
				child.underline = true
			case "s":
				child.strikethrough = true
			case "sup":
				child.superscript = true
			case "sub":
				child.subscript = true
			case "a":
				child.linkURL = attrMapValue(t.Attr, "href")
			case "span":
				child.classID = attrMapValue(t.Attr, "class")
			}
			if err := walkContentTokens(dec, child, offset, parts, runs, specials); err != nil {
				return err
			}
		}
	}
}

func attrMapValue(attrs []xml.Attr, key string) string {
	for _, a := range attrs {
		if a.Name.Local == key {
			return a.Value
		}
	}
	return ""
}

func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// extractFootnoteBodies finds every <footnote id=…> element (at any depth)
// via the structural xmlNode tree and joins its children's raw XML into a
// BodyXML string, matched back to the offset the ordered walk recorded for
// the same footnote id.
func extractFootnoteBodies(wrapped string, specials []specialElement) ([]footnoteInsert, error) {
	offsetByID := make(map[string]int)
	for _, s := range specials {
		if s.Tag == "footnote" {
			offsetByID[s.Attrs["id"]] = s.Offset
		}
	}
	if len(offsetByID) == 0 {
		return nil, nil
	}

	root, err := parseXMLTree(wrapped)
	if err != nil {
		return nil, err
	}

	var out []footnoteInsert
	var walk func(n *xmlNode)
	walk = func(n *xmlNode) {
		for _, child := range n.Children {
			if child.Tag == "footnote" {
				id := child.attr("id")
				var body strings.Builder
				for _, grandchild := range child.Children {
					body.WriteString(grandchild.Raw)
				}
				out = append(out, footnoteInsert{FootnoteID: id, Offset: offsetByID[id], BodyXML: body.String()})
			}
			walk(child)
		}
	}
	walk(root)

	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}
