// Package xmlconv converts a Google Docs API document (the JSON form
// documents.get returns) into the semantic XML consumed by
// docengine.BlockParser, factorizing repeated inline styles into classes
// along the way. It is pull-side only — the push side never regenerates
// XML, it only consumes it.
package xmlconv

import (
	"fmt"
	"sort"
	"strings"

	docspb "google.golang.org/api/docs/v1"

	"github.com/calvinalkan/docsync/internal/stylefactor"
)

// Result is one converted document: the document.xml and styles.xml
// bodies, ready for xmlio.
type Result struct {
	DocumentXML string
	StylesXML   string
	Title       string
	Revision    string
	TabCount    int
}

// Convert renders doc as semantic XML. Comments are not converted — the
// engine treats <comment-ref> as transparent, and pull-side comment
// emission is out of scope for this revision.
func Convert(doc *docspb.Document) (Result, error) {
	if doc == nil {
		return Result{}, fmt.Errorf("nil document")
	}

	c := &converter{
		factorizer: stylefactor.New(),
		namedStyleDefaults: namedStyleParagraphDefaults(doc),
	}

	var b strings.Builder

	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<doc id=\"%s\" revision=\"%s\">\n", escape(doc.DocumentId), escape(doc.RevisionId))
	b.WriteString("  <meta>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", escape(doc.Title))
	b.WriteString("  </meta>\n")

	tabs := flattenTabs(doc.Tabs)
	if len(tabs) == 0 && doc.Body != nil {
		// Legacy format (no includeTabsContent): synthesize a tab.
		tabs = []*docspb.Tab{{
			TabProperties: &docspb.TabProperties{TabId: "t.0"},
			DocumentTab: &docspb.DocumentTab{
				Body:          doc.Body,
				Headers:       doc.Headers,
				Footers:       doc.Footers,
				Footnotes:     doc.Footnotes,
				Lists:         doc.Lists,
				InlineObjects: doc.InlineObjects,
			},
		}}
	}

	for _, tab := range tabs {
		c.writeTab(&b, tab)
	}

	b.WriteString("</doc>\n")

	return Result{
		DocumentXML: b.String(),
		StylesXML:   c.factorizer.StylesXML(),
		Title:       doc.Title,
		Revision:    doc.RevisionId,
		TabCount:    len(tabs),
	}, nil
}

// converter carries per-conversion state: the style factorizer and the
// current tab's footnote/list/object maps (each tab swaps its own in).
type converter struct {
	factorizer         *stylefactor.Factorizer
	namedStyleDefaults map[string]map[string]string

	footnotes     map[string]docspb.Footnote
	lists         map[string]docspb.List
	inlineObjects map[string]docspb.InlineObject
}

// flattenTabs walks child tabs depth-first so nested tabs appear after
// their parent in document order.
func flattenTabs(tabs []*docspb.Tab) []*docspb.Tab {
	var out []*docspb.Tab

	for _, t := range tabs {
		if t == nil {
			continue
		}

		out = append(out, t)
		out = append(out, flattenTabs(t.ChildTabs)...)
	}

	return out
}

func (c *converter) writeTab(b *strings.Builder, tab *docspb.Tab) {
	var tabID, title string

	if tab.TabProperties != nil {
		tabID = tab.TabProperties.TabId
		title = tab.TabProperties.Title
	}

	dt := tab.DocumentTab
	if dt == nil {
		dt = &docspb.DocumentTab{}
	}

	c.footnotes = dt.Footnotes
	c.lists = dt.Lists
	c.inlineObjects = dt.InlineObjects

	fmt.Fprintf(b, "  <tab id=\"%s\"", escape(tabID))

	if title != "" {
		fmt.Fprintf(b, " title=\"%s\"", escape(title))
	}

	b.WriteString(">\n    <body>\n")

	if dt.Body != nil {
		c.writeContent(b, dt.Body.Content, "      ")
	}

	b.WriteString("    </body>\n")

	for _, id := range sortedKeysHeader(dt.Headers) {
		h := dt.Headers[id]
		fmt.Fprintf(b, "    <header id=\"%s\">\n", escape(id))
		c.writeContent(b, h.Content, "      ")
		b.WriteString("    </header>\n")
	}

	for _, id := range sortedKeysFooter(dt.Footers) {
		f := dt.Footers[id]
		fmt.Fprintf(b, "    <footer id=\"%s\">\n", escape(id))
		c.writeContent(b, f.Content, "      ")
		b.WriteString("    </footer>\n")
	}

	// Footnotes are not emitted as tab-level segments: each is inlined in
	// the body at its reference, which is where the push side expects it.
	b.WriteString("  </tab>\n")
}

func sortedKeysHeader(m map[string]docspb.Header) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func sortedKeysFooter(m map[string]docspb.Footer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// writeContent renders a structural element list, one block per line.
// Section breaks are skipped — the pipeline is read-only for them.
func (c *converter) writeContent(b *strings.Builder, content []*docspb.StructuralElement, indent string) {
	for _, el := range content {
		switch {
		case el == nil || el.SectionBreak != nil:
			continue

		case el.Paragraph != nil:
			b.WriteString(indent)
			b.WriteString(c.paragraphXML(el.Paragraph))
			b.WriteString("\n")

		case el.Table != nil:
			c.writeTable(b, el.Table, indent)

		case el.TableOfContents != nil:
			b.WriteString(indent)
			b.WriteString("<toc>\n")
			c.writeContent(b, el.TableOfContents.Content, indent+"  ")
			b.WriteString(indent)
			b.WriteString("</toc>\n")
		}
	}
}

// inlineContent renders structural elements without indentation or
// newlines, for inlined footnote bodies and single-paragraph cells.
func (c *converter) inlineContent(content []*docspb.StructuralElement) string {
	var b strings.Builder

	for _, el := range content {
		switch {
		case el == nil || el.SectionBreak != nil:
			continue
		case el.Paragraph != nil:
			b.WriteString(c.paragraphXML(el.Paragraph))
		case el.Table != nil:
			c.writeTable(&b, el.Table, "")
		}
	}

	return b.String()
}

func (c *converter) paragraphXML(p *docspb.Paragraph) string {
	style := p.ParagraphStyle
	named := "NORMAL_TEXT"

	if style != nil && style.NamedStyleType != "" {
		named = style.NamedStyleType
	}

	// A paragraph with no elements but a drawn bottom border is how the
	// API represents a horizontal rule.
	if len(p.Elements) == 0 && style != nil && style.BorderBottom != nil &&
		(style.BorderBottom.Width != nil && style.BorderBottom.Width.Magnitude > 0 || style.BorderBottom.Color != nil) {
		return "<p><hr/></p>"
	}

	content := c.paragraphElementsXML(p.Elements)

	if p.Bullet != nil {
		listType := c.listType(p.Bullet)
		attrs := c.paragraphOverrideAttrs(style, "NORMAL_TEXT")

		return fmt.Sprintf("<li type=\"%s\" level=\"%d\"%s>%s</li>",
			listType, p.Bullet.NestingLevel, attrs, content)
	}

	tag := tagForNamedStyle(named)
	attrs := c.paragraphOverrideAttrs(style, named)

	return fmt.Sprintf("<%s%s>%s</%s>", tag, attrs, content, tag)
}

func tagForNamedStyle(named string) string {
	switch named {
	case "TITLE":
		return "title"
	case "SUBTITLE":
		return "subtitle"
	case "HEADING_1":
		return "h1"
	case "HEADING_2":
		return "h2"
	case "HEADING_3":
		return "h3"
	case "HEADING_4":
		return "h4"
	case "HEADING_5":
		return "h5"
	case "HEADING_6":
		return "h6"
	default:
		return "p"
	}
}

func (c *converter) listType(bullet *docspb.Bullet) string {
	list, ok := c.lists[bullet.ListId]
	if !ok || list.ListProperties == nil {
		return "bullet"
	}

	levels := list.ListProperties.NestingLevels
	if int(bullet.NestingLevel) >= len(levels) || levels[bullet.NestingLevel] == nil {
		return "bullet"
	}

	level := levels[bullet.NestingLevel]

	switch level.GlyphType {
	case "DECIMAL":
		return "decimal"
	case "ALPHA", "UPPER_ALPHA":
		return "alpha"
	case "ROMAN", "UPPER_ROMAN":
		return "roman"
	}

	switch level.GlyphSymbol {
	case "☐", "☑", "☒":
		return "checkbox"
	}

	return "bullet"
}

func (c *converter) paragraphElementsXML(elements []*docspb.ParagraphElement) string {
	var parts []string

	for _, el := range elements {
		switch {
		case el == nil:
			continue

		case el.TextRun != nil:
			parts = append(parts, c.textRunXML(el.TextRun))

		case el.HorizontalRule != nil:
			parts = append(parts, "<hr/>")

		case el.PageBreak != nil:
			parts = append(parts, "<pagebreak/>")

		case el.ColumnBreak != nil:
			parts = append(parts, "<columnbreak/>")

		case el.FootnoteReference != nil:
			parts = append(parts, c.footnoteXML(el.FootnoteReference))

		case el.InlineObjectElement != nil:
			parts = append(parts, c.inlineObjectXML(el.InlineObjectElement))

		case el.Person != nil:
			var email, name string
			if el.Person.PersonProperties != nil {
				email = el.Person.PersonProperties.Email
				name = el.Person.PersonProperties.Name
			}
			if name == "" {
				name = email
			}
			parts = append(parts, fmt.Sprintf("<person email=\"%s\" name=\"%s\"/>", escape(email), escape(name)))

		case el.RichLink != nil:
			var url, title string
			if el.RichLink.RichLinkProperties != nil {
				url = el.RichLink.RichLinkProperties.Uri
				title = el.RichLink.RichLinkProperties.Title
			}
			if title == "" {
				title = url
			}
			parts = append(parts, fmt.Sprintf("<richlink url=\"%s\" title=\"%s\"/>", escape(url), escape(title)))

		case el.Equation != nil:
			// Equations are opaque — the API exposes no content, only the
			// index span, which the block indexer needs to account for.
			parts = append(parts, fmt.Sprintf("<equation length=\"%d\"/>", el.EndIndex-el.StartIndex))

		case el.AutoText != nil:
			parts = append(parts, fmt.Sprintf("<autotext type=\"%s\"/>", escape(el.AutoText.Type)))
		}
	}

	return strings.Join(parts, "")
}

func (c *converter) footnoteXML(ref *docspb.FootnoteReference) string {
	id := ref.FootnoteId

	fn, ok := c.footnotes[id]
	if !ok {
		return fmt.Sprintf("<footnote id=\"%s\"></footnote>", escape(id))
	}

	inner := strings.TrimSpace(c.inlineContent(fn.Content))

	return fmt.Sprintf("<footnote id=\"%s\">%s</footnote>", escape(id), inner)
}

func (c *converter) inlineObjectXML(el *docspb.InlineObjectElement) string {
	obj, ok := c.inlineObjects[el.InlineObjectId]
	if !ok || obj.InlineObjectProperties == nil || obj.InlineObjectProperties.EmbeddedObject == nil {
		return fmt.Sprintf("<image data-id=\"%s\"/>", escape(el.InlineObjectId))
	}

	embedded := obj.InlineObjectProperties.EmbeddedObject
	if embedded.ImageProperties == nil {
		return fmt.Sprintf("<image data-id=\"%s\"/>", escape(el.InlineObjectId))
	}

	url := embedded.ImageProperties.ContentUri
	if url == "" {
		url = embedded.ImageProperties.SourceUri
	}

	attrs := []string{fmt.Sprintf("src=\"%s\"", escape(url))}

	if embedded.Size != nil {
		if w := embedded.Size.Width; w != nil && w.Magnitude > 0 {
			attrs = append(attrs, fmt.Sprintf("width=\"%gpt\"", w.Magnitude))
		}

		if h := embedded.Size.Height; h != nil && h.Magnitude > 0 {
			attrs = append(attrs, fmt.Sprintf("height=\"%gpt\"", h.Magnitude))
		}
	}

	if embedded.Title != "" {
		attrs = append(attrs, fmt.Sprintf("title=\"%s\"", escape(embedded.Title)))
	}

	if embedded.Description != "" {
		attrs = append(attrs, fmt.Sprintf("alt=\"%s\"", escape(embedded.Description)))
	}

	return fmt.Sprintf("<image %s/>", strings.Join(attrs, " "))
}

func (c *converter) textRunXML(run *docspb.TextRun) string {
	content := strings.TrimSuffix(run.Content, "\n")
	if content == "" {
		return ""
	}

	result := escape(content)
	style := run.TextStyle

	if style == nil {
		return result
	}

	href := ""

	if style.Link != nil {
		switch {
		case style.Link.Url != "":
			href = style.Link.Url
		case style.Link.HeadingId != "":
			href = "#" + style.Link.HeadingId
		case style.Link.BookmarkId != "":
			href = "#" + style.Link.BookmarkId
		}

		if href != "" {
			result = fmt.Sprintf("<a href=\"%s\">%s</a>", escape(href), result)
		}
	}

	// Nested innermost to outermost; links are already underlined, so the
	// redundant <u> is dropped for them.
	if style.Strikethrough {
		result = "<s>" + result + "</s>"
	}

	if style.Underline && href == "" {
		result = "<u>" + result + "</u>"
	}

	if style.Italic {
		result = "<i>" + result + "</i>"
	}

	if style.Bold {
		result = "<b>" + result + "</b>"
	}

	switch style.BaselineOffset {
	case "SUPERSCRIPT":
		result = "<sup>" + result + "</sup>"
	case "SUBSCRIPT":
		result = "<sub>" + result + "</sub>"
	}

	if attrs := textStyleAttrs(style); len(attrs) > 0 {
		if classID := c.factorizer.TextClass(attrs); classID != stylefactor.BaseID {
			result = fmt.Sprintf("<span class=\"%s\">%s</span>", classID, result)
		}
	}

	return result
}

func (c *converter) writeTable(b *strings.Builder, t *docspb.Table, indent string) {
	// Column width definitions, only for fixed-width columns.
	var colLines []string

	if t.TableStyle != nil {
		for i, cp := range t.TableStyle.TableColumnProperties {
			if cp == nil || cp.WidthType != "FIXED_WIDTH" || cp.Width == nil {
				continue
			}

			width := fmt.Sprintf("%g%s", cp.Width.Magnitude, strings.ToLower(orDefault(cp.Width.Unit, "pt")))
			colID := contentHashID(fmt.Sprintf("col:%d:%s", i, width))
			colLines = append(colLines, fmt.Sprintf("  <col id=\"%s\" index=\"%d\" width=\"%s\"/>", colID, i, width))
		}
	}

	// Rows bottom-up: cell ids from cell content, row ids from their
	// cells, the table id from everything — stable across pulls whenever
	// the content is unchanged.
	var rowLines []string

	for _, row := range t.TableRows {
		if row == nil {
			continue
		}

		var cellLines []string

		for _, cell := range row.TableCells {
			if cell == nil {
				continue
			}

			cellXML := c.inlineContent(cell.Content)
			cellID := contentHashID(cellXML)

			attrs := []string{fmt.Sprintf("id=\"%s\"", cellID)}

			if cell.TableCellStyle != nil {
				if classID := c.factorizer.CellClass(cellStyleAttrs(cell.TableCellStyle)); classID != "" {
					attrs = append(attrs, fmt.Sprintf("class=\"%s\"", classID))
				}

				if cell.TableCellStyle.ColumnSpan > 1 {
					attrs = append(attrs, fmt.Sprintf("colspan=\"%d\"", cell.TableCellStyle.ColumnSpan))
				}

				if cell.TableCellStyle.RowSpan > 1 {
					attrs = append(attrs, fmt.Sprintf("rowspan=\"%d\"", cell.TableCellStyle.RowSpan))
				}
			}

			cellLines = append(cellLines, fmt.Sprintf("    <td %s>%s</td>", strings.Join(attrs, " "), cellXML))
		}

		rowID := contentHashID(strings.Join(cellLines, "\n"))
		rowLines = append(rowLines, fmt.Sprintf("  <tr id=\"%s\">", rowID))
		rowLines = append(rowLines, cellLines...)
		rowLines = append(rowLines, "  </tr>")
	}

	tableID := contentHashID(strings.Join(append(append([]string{}, colLines...), rowLines...), "\n"))

	lines := make([]string, 0, len(colLines)+len(rowLines)+2)
	lines = append(lines, fmt.Sprintf("<table id=\"%s\">", tableID))
	lines = append(lines, colLines...)
	lines = append(lines, rowLines...)
	lines = append(lines, "</table>")

	for _, line := range lines {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
