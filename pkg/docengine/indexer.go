package docengine

import "unicode/utf16"

// specialTags are inline elements that each consume exactly one UTF-16
// index unit regardless of their own text content.
var specialTags = map[string]bool{
	"hr": true, "pagebreak": true, "columnbreak": true, "image": true,
	"footnote": true, "person": true, "date": true, "richlink": true,
	"autotext": true,
}

// BlockIndexer computes UTF-16 start/end indexes for every block in a
// Document, mutating the tree in place. It must run exactly once, after
// BlockParser and before BlockAligner or TreeDiffer touch the tree.
type BlockIndexer struct{}

// Compute assigns indexes to every tab's segments. Body segments start at
// index 1 (slot 0 belongs to the document's initial section break);
// header, footer, and footnote segments start at 0.
func (BlockIndexer) Compute(doc *Document) error {
	for _, tab := range doc.Tabs {
		for _, seg := range tab.Segments {
			start := 0
			if seg.Type == SegmentBody {
				start = 1
			}
			if err := indexSegment(seg, start); err != nil {
				return err
			}
		}
	}
	return nil
}

func indexSegment(seg *Segment, start int) error {
	current := start
	seg.StartIndex = current

	for _, block := range seg.Blocks {
		switch b := block.(type) {
		case *Paragraph:
			length := paragraphLength(b.XML)
			b.SetRange(current, current+length)
			current += length

		case *Table:
			length := indexTable(b, current)
			current += length

		case *Toc:
			length := tocLength(b.XML)
			b.SetRange(current, current+length)
			current += length
		}
	}

	seg.EndIndex = current
	return nil
}

// indexTable sets start/end indexes on a table and all of its rows and
// cells (and recursively, any structural children those cells contain),
// returning the table's total UTF-16 length.
//
//	length = 1 (table start marker)
//	       + Σ row length, where row length = 1 (row marker) + Σ cell length
//	       + 1 (table end marker)
func indexTable(t *Table, start int) int {
	t.SetRange(start, start) // end fixed up below
	current := start + 1     // past the table start marker

	for _, row := range t.Rows {
		row.SetRange(current, current)
		current++ // row marker

		for _, cell := range row.Cells {
			current++ // cell marker
			cellStart := current
			cellLen := indexCellContent(cell, cellStart)
			cell.SetRange(cellStart, cellStart+cellLen)
			current = cellStart + cellLen
		}
		row.SetRange(row.startIndex, current)
	}

	current++ // table end marker
	t.SetRange(start, current)
	return current - start
}

// indexCellContent assigns indexes to a cell's structural children and
// returns the cell's content length (at least 1 — an empty cell still
// holds a default paragraph's worth of newline).
func indexCellContent(cell *TableCell, start int) int {
	if len(cell.Children) == 0 {
		return 1
	}

	current := start
	total := 0
	for _, child := range cell.Children {
		switch c := child.(type) {
		case *Paragraph:
			length := paragraphLength(c.XML)
			c.SetRange(current, current+length)
			current += length
			total += length

		case *Table:
			// A nested table inside a cell is not a first-class,
			// independently indexed StructuralBlock of any Segment: only
			// its total consumed length counts toward the owning cell.
			length := nestedTableLength(c)
			current += length
			total += length

		case *Toc:
			length := tocLength(c.XML)
			c.SetRange(current, current+length)
			current += length
			total += length
		}
	}

	if total < 1 {
		total = 1
	}
	return total
}

// nestedTableLength computes a table's total length without assigning
// any indexes to it or its descendants.
func nestedTableLength(t *Table) int {
	length := 1 // table start marker
	for _, row := range t.Rows {
		length++ // row marker
		rowLen := 0
		for _, cell := range row.Cells {
			rowLen++ // cell marker
			rowLen += nestedCellContentLength(cell)
		}
		length += rowLen
	}
	length++ // table end marker
	return length
}

func nestedCellContentLength(cell *TableCell) int {
	if len(cell.Children) == 0 {
		return 1
	}
	total := 0
	for _, child := range cell.Children {
		switch c := child.(type) {
		case *Paragraph:
			total += paragraphLength(c.XML)
		case *Table:
			total += nestedTableLength(c)
		case *Toc:
			total += tocLength(c.XML)
		}
	}
	if total < 1 {
		total = 1
	}
	return total
}

// paragraphLength computes length = text_content + special_elements +
// Σ equation.length + 1 (trailing newline). A malformed paragraph XML
// fragment is opaque: it contributes a minimum length of 1 and never
// yields partial generator requests.
func paragraphLength(paraXML string) int {
	root, err := parseXMLTree(paraXML)
	if err != nil {
		return 1
	}

	textLen := textLength(root)
	special := 0
	equation := 0
	walkNodes(root, func(n *xmlNode) {
		if specialTags[n.Tag] {
			special++
		}
		if n.Tag == "equation" {
			equation += equationLength(n)
		}
	})

	return textLen + special + equation + 1
}

func equationLength(n *xmlNode) int {
	raw := n.attrOr("length", "1")
	length := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 1
		}
		length = length*10 + int(r-'0')
	}
	if length == 0 {
		return 1
	}
	return length
}

// tocLength mirrors paragraphLength's logic for each paragraph-like child
// of a TOC, bracketed by its own start/end markers. A malformed TOC
// fragment contributes the minimum length of 2 (start + end marker).
func tocLength(tocXML string) int {
	root, err := parseXMLTree(tocXML)
	if err != nil {
		return 2
	}

	length := 1 // TOC start marker
	for _, child := range root.Children {
		if !paragraphTags[child.Tag] {
			continue
		}
		length += paragraphLength(child.Raw)
	}
	length++ // TOC end marker
	return length
}

// textLength recursively sums the UTF-16 length of text content under n,
// skipping the contribution of special elements and equations (they are
// counted separately, as fixed-width markers).
func textLength(n *xmlNode) int {
	length := utf16Len(n.DirectText)
	for _, child := range n.Children {
		if !specialTags[child.Tag] && child.Tag != "equation" {
			length += textLength(child)
		}
	}
	return length
}

// utf16Len returns the UTF-16 code-unit length of s, counting characters
// outside the Basic Multilingual Plane as two units each.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// walkNodes calls fn for every descendant of n (not including n itself).
func walkNodes(n *xmlNode, fn func(*xmlNode)) {
	for _, child := range n.Children {
		fn(child)
		walkNodes(child, fn)
	}
}
