package docengine

// StructuralGenerator emits the requests RequestWalker needs for the
// structural events ContentGenerator/TableGenerator don't cover: tab
// lifecycle, header/footer lifecycle, and the footnote reference character.
//
// A footnote's own lifecycle has no dedicated API call — the Docs API
// creates a footnote's segment as a side effect of createFootnote and
// removes it automatically once its last reference character is deleted
// — so the only footnote-shaped work left for this generator is deleting
// that one reference character when a footnote disappears from a modified
// paragraph (an added footnote's createFootnote, and its body content, are
// generated inline by ContentGenerator as part of the paragraph that
// references it).
type StructuralGenerator struct{}

// EmitTab handles an Added or Deleted NodeTab change node.
func (g StructuralGenerator) EmitTab(node *ChangeNode) []Request {
	switch node.Op {
	case Added:
		title := node.TabTitle
		if title == "" {
			title = tabTitleFromXML(node.AfterXML)
		}
		return []Request{{AddDocumentTab: &AddDocumentTabRequest{
			SyntheticTabID: node.TabID, Title: title,
		}}}
	case Deleted:
		return []Request{{DeleteTab: &DeleteTabRequest{TabID: node.TabID}}}
	default:
		return nil
	}
}

func tabTitleFromXML(raw string) string {
	node, err := parseXMLTree(raw)
	if err != nil {
		return ""
	}
	return node.attr("title")
}

// EmitHeaderFooter handles an Added or Deleted header/footer NodeSegment
// change node.
func (g StructuralGenerator) EmitHeaderFooter(node *ChangeNode, tabID string) []Request {
	switch node.Op {
	case Added:
		if node.SegmentType == SegmentHeader {
			return []Request{{CreateHeader: &CreateHeaderRequest{
				TabID: tabID, Type: "DEFAULT", PlaceholderSegmentID: node.SegmentID,
			}}}
		}
		return []Request{{CreateFooter: &CreateFooterRequest{
			TabID: tabID, Type: "DEFAULT", PlaceholderSegmentID: node.SegmentID,
		}}}
	case Deleted:
		if node.SegmentType == SegmentHeader {
			return []Request{{DeleteHeader: &DeleteHeaderRequest{TabID: tabID, HeaderID: node.SegmentID}}}
		}
		return []Request{{DeleteFooter: &DeleteFooterRequest{TabID: tabID, FooterID: node.SegmentID}}}
	default:
		return nil
	}
}

// EmitFootnoteSegment handles an Added or Deleted footnote NodeSegment at
// the tab level. Both cases are no-ops: an Added footnote segment's
// createFootnote and body content are already emitted inline by
// ContentGenerator when it walks the paragraph that references it; a
// Deleted footnote segment disappears server-side once
// EmitFootnoteRefDelete removes its last reference character.
func (g StructuralGenerator) EmitFootnoteSegment(node *ChangeNode) []Request {
	return nil
}

// EmitFootnoteRefDelete deletes the single-unit reference character for a
// footnote that a modified paragraph no longer references. contentBeforeXML
// is the enclosing content block's BeforeXML (where the reference last
// appeared); baseIndex is that block's position in the real document.
func (g StructuralGenerator) EmitFootnoteRefDelete(contentBeforeXML, footnoteID string, baseIndex int, loc Location) ([]Request, error) {
	pc, err := parseContentXML(contentBeforeXML)
	if err != nil {
		return nil, err
	}
	for _, f := range pc.Footnotes {
		if f.FootnoteID != footnoteID {
			continue
		}
		pos := baseIndex + f.Offset
		return []Request{{DeleteContentRange: &DeleteContentRangeRequest{
			Range: RangeRef{Start: pos, End: pos + 1, TabID: loc.TabID, SegmentID: loc.SegmentID},
		}}}, nil
	}
	return nil, nil
}
