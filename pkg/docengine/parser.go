package docengine

import "fmt"

// paragraphTags are the XML tags BlockParser recognizes as paragraph-like
// structural blocks.
var paragraphTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "title": true, "subtitle": true, "li": true,
}

// BlockParser turns one document.xml source string into a typed
// Document tree. It is stateless — a zero-value BlockParser is ready to
// use — and produces no indexes; that is BlockIndexer's job.
//
// The root element is <doc id=…>, containing one or more <tab> children.
// Each tab contains exactly one <body>, plus zero or more <header>,
// <footer>, and <footnote> siblings. Elements this parser does not
// recognize (section breaks, and any future tag) are silently skipped
// rather than rejected: the engine is read-mostly and forward-compatible
// with document features it does not yet mutate.
type BlockParser struct{}

// Parse parses a full document.xml source string into a Document.
func (BlockParser) Parse(xmlContent string) (*Document, error) {
	root, err := parseXMLTree(xmlContent)
	if err != nil {
		return nil, err
	}
	if root.Tag != "doc" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <doc>", ErrParse, root.Tag)
	}

	doc := &Document{DocID: root.attr("id")}
	for _, tabNode := range root.childrenOf("tab") {
		tab, err := parseTab(tabNode)
		if err != nil {
			return nil, err
		}
		doc.Tabs = append(doc.Tabs, tab)
	}
	return doc, nil
}

func parseTab(n *xmlNode) (*Tab, error) {
	tab := &Tab{
		TabID: n.attr("id"),
		Title: n.attr("title"),
		XML:   n.Raw,
	}

	for _, child := range n.Children {
		switch child.Tag {
		case "body":
			seg, err := parseSegment(child, SegmentBody, "")
			if err != nil {
				return nil, err
			}
			tab.Segments = append(tab.Segments, seg)
		case "header":
			seg, err := parseSegment(child, SegmentHeader, child.attr("id"))
			if err != nil {
				return nil, err
			}
			tab.Segments = append(tab.Segments, seg)
		case "footer":
			seg, err := parseSegment(child, SegmentFooter, child.attr("id"))
			if err != nil {
				return nil, err
			}
			tab.Segments = append(tab.Segments, seg)
		case "footnote":
			seg, err := parseSegment(child, SegmentFootnote, child.attr("id"))
			if err != nil {
				return nil, err
			}
			tab.Segments = append(tab.Segments, seg)
		}
	}
	return tab, nil
}

func parseSegment(n *xmlNode, typ SegmentType, id string) (*Segment, error) {
	seg := &Segment{Type: typ, SegmentID: id}
	blocks, err := parseStructuralElements(n.Children)
	if err != nil {
		return nil, err
	}
	seg.Blocks = blocks
	return seg, nil
}

// parseStructuralElements parses the direct children of a segment or cell
// element into StructuralBlocks. A <style class=…> wrapper is transparent
// here — its children are lifted to this level exactly as if unwrapped in
// the source, since class/style resolution is a pull-side concern (see
// internal/stylefactor) and plays no role in diffing or push.
func parseStructuralElements(children []*xmlNode) ([]StructuralBlock, error) {
	var blocks []StructuralBlock
	for _, child := range children {
		switch {
		case paragraphTags[child.Tag]:
			blocks = append(blocks, parseParagraph(child))
		case child.Tag == "table":
			table, err := parseTable(child)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, table)
		case child.Tag == "toc":
			blocks = append(blocks, &Toc{XML: child.Raw})
		case child.Tag == "style":
			nested, err := parseStructuralElements(child.Children)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, nested...)
		// section breaks and any other unrecognized element are ignored:
		// they are currently read-only and carry no index-bearing content
		// this engine needs to track.
		default:
		}
	}
	return blocks, nil
}

func parseParagraph(n *xmlNode) *Paragraph {
	p := &Paragraph{Tag: n.Tag, XML: n.Raw}
	collectFootnotes(n, &p.Footnotes)
	return p
}

// collectFootnotes walks n's subtree (not just direct children — a
// footnote may sit inside an inline formatting run) collecting every
// <footnote id=…> element it finds, in document order.
func collectFootnotes(n *xmlNode, out *[]FootnoteRef) {
	for _, child := range n.Children {
		if child.Tag == "footnote" {
			*out = append(*out, FootnoteRef{FootnoteID: child.attr("id"), XML: child.Raw})
		}
		collectFootnotes(child, out)
	}
}

func parseTable(n *xmlNode) (*Table, error) {
	table := &Table{TableID: n.attr("id"), XML: n.Raw}

	cols := n.childrenOf("col")
	for i, col := range cols {
		table.Columns = append(table.Columns, Column{
			ColID: col.attrOr("id", col.attrOr("index", fmt.Sprint(i))),
			Width: col.attr("width"),
			Index: i,
		})
	}

	rows := n.childrenOf("tr")
	for rowIdx, tr := range rows {
		row := &TableRow{
			RowID:    tr.attrOr("id", fmt.Sprintf("r%d", rowIdx)),
			RowIndex: rowIdx,
			XML:      tr.Raw,
		}
		cells := tr.childrenOf("td")
		for colIdx, td := range cells {
			children, err := parseStructuralElements(td.Children)
			if err != nil {
				return nil, err
			}
			row.Cells = append(row.Cells, &TableCell{
				CellID:   td.attrOr("id", fmt.Sprintf("%d,%d", rowIdx, colIdx)),
				ColIndex: colIdx,
				XML:      td.Raw,
				Children: children,
			})
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
