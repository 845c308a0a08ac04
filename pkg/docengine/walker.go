package docengine

import "sort"

// RequestWalker performs the backwards walk over a ChangeNode tree
// (TreeDiffer's output) and produces the flat, ordered Request list
// PushOrchestrator will later split into batches. "Backwards" means every
// segment's children are visited from the highest pristine index to the
// lowest: an insertion or deletion never shifts the index of anything this
// walk has not yet visited, because everything below it is still in its
// pristine position and everything above it has already reached its final
// shape.
type RequestWalker struct {
	Content    ContentGenerator
	Table      TableGenerator
	Structural StructuralGenerator
}

// Walk visits the DOCUMENT root's TAB children and returns every request
// needed to turn the pristine document into the current one.
func (w RequestWalker) Walk(root *ChangeNode) ([]Request, error) {
	var reqs []Request
	for _, tabNode := range root.Children {
		if tabNode.Type != NodeTab {
			continue
		}
		switch tabNode.Op {
		case Added:
			reqs = append(reqs, w.Structural.EmitTab(tabNode)...)
			bodyReqs, err := w.walkAddedTabBody(tabNode)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, bodyReqs...)
		case Deleted:
			reqs = append(reqs, w.Structural.EmitTab(tabNode)...)
		case Modified:
			tabReqs, err := w.walkTab(tabNode)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, tabReqs...)
		}
	}
	return reqs, nil
}

// walkTab walks one Modified tab's segment children.
func (w RequestWalker) walkTab(tabNode *ChangeNode) ([]Request, error) {
	var reqs []Request
	tabID := tabNode.TabID

	if tabNode.TabTitle != "" {
		reqs = append(reqs, Request{UpdateDocumentTabProperties: &UpdateDocumentTabPropertiesRequest{
			TabID: tabID, Title: tabNode.TabTitle,
		}})
	}

	for _, segNode := range tabNode.Children {
		if segNode.Type != NodeSegment {
			continue
		}

		if segNode.Op == Added || segNode.Op == Deleted {
			switch segNode.SegmentType {
			case SegmentHeader, SegmentFooter:
				reqs = append(reqs, w.Structural.EmitHeaderFooter(segNode, tabID)...)
				if segNode.Op == Added && segNode.AfterXML != "" {
					fillReqs, err := w.emitNewSegmentContent(segNode, tabID)
					if err != nil {
						return nil, err
					}
					reqs = append(reqs, fillReqs...)
				}
			case SegmentFootnote:
				reqs = append(reqs, w.Structural.EmitFootnoteSegment(segNode)...)
			}
			continue
		}

		segReqs, err := w.walkSegment(segNode, tabID)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, segReqs...)
	}
	return reqs, nil
}

// emitNewSegmentContent fills a just-created header/footer with its
// content, walking a synthetic Modified segment whose children are the
// added segment's own content, as if it were inserted into a currently
// empty segment (segment_end = 1, index 0 — the convention a new
// header/footer starts at).
func (w RequestWalker) emitNewSegmentContent(segNode *ChangeNode, tabID string) ([]Request, error) {
	children, err := contentChildrenFromSegmentXML(segNode.AfterXML)
	if err != nil || len(children) == 0 {
		return nil, err
	}
	synthetic := &ChangeNode{
		Type: NodeSegment, Op: Modified,
		SegmentType: segNode.SegmentType, SegmentID: segNode.SegmentID,
		SegmentEnd: 1, Children: children,
	}
	return w.walkSegment(synthetic, tabID)
}

// walkAddedTabBody synthesizes "insert everything" nodes for a brand new
// tab's body and any headers/footers it carries, from the tab's full
// AfterXML, then walks each as an empty segment being filled for the
// first time.
func (w RequestWalker) walkAddedTabBody(tabNode *ChangeNode) ([]Request, error) {
	if tabNode.AfterXML == "" {
		return nil, nil
	}
	root, err := parseXMLTree(tabNode.AfterXML)
	if err != nil {
		return nil, err
	}
	tabID := tabNode.TabID

	var reqs []Request

	if body := root.firstChild("body"); body != nil {
		children, err := contentChildrenFromNodes(body.Children)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			synthetic := &ChangeNode{
				Type: NodeSegment, Op: Modified,
				SegmentType: SegmentBody, SegmentEnd: 2, Children: children,
			}
			segReqs, err := w.walkSegment(synthetic, tabID)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, segReqs...)
		}
	}

	for _, sec := range []struct {
		tag string
		typ SegmentType
	}{{"header", SegmentHeader}, {"footer", SegmentFooter}} {
		section := root.firstChild(sec.tag)
		if section == nil {
			continue
		}
		sectionID := section.attr("id")
		hfNode := &ChangeNode{
			Type: NodeSegment, Op: Added,
			SegmentType: sec.typ, SegmentID: sectionID, AfterXML: section.Raw,
		}
		reqs = append(reqs, w.Structural.EmitHeaderFooter(hfNode, tabID)...)
		fillReqs, err := w.emitNewSegmentContent(hfNode, tabID)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, fillReqs...)
	}

	return reqs, nil
}

// contentChildrenFromSegmentXML parses a segment placeholder's AfterXML
// (e.g. `<header id="h1"/>` or the unwrapped contents beneath it, depending
// on caller) into CONTENT_BLOCK/TABLE children for a synthetic "insert
// everything" ChangeNode.
func contentChildrenFromSegmentXML(raw string) ([]*ChangeNode, error) {
	root, err := parseXMLTree(raw)
	if err != nil {
		return nil, err
	}
	return contentChildrenFromNodes(root.Children)
}

// contentChildrenFromNodes builds CONTENT_BLOCK/TABLE children from a
// segment's direct children, grouping consecutive paragraph-like elements
// into a single CONTENT_BLOCK the same way the differ would for a purely
// additive segment.
func contentChildrenFromNodes(nodes []*xmlNode) ([]*ChangeNode, error) {
	var children []*ChangeNode
	var paraGroup []string

	flush := func() {
		if len(paraGroup) == 0 {
			return
		}
		children = append(children, &ChangeNode{
			Type: NodeContentBlock, Op: Added,
			AfterXML: joinXML(paraGroup),
		})
		paraGroup = nil
	}

	for _, n := range nodes {
		switch {
		case n.Tag == "table":
			flush()
			children = append(children, &ChangeNode{Type: NodeTable, Op: Added, AfterXML: n.Raw})
		case paragraphTags[n.Tag]:
			paraGroup = append(paraGroup, n.Raw)
		case n.Tag == "style":
			for _, styled := range n.Children {
				if styled.Tag == "table" {
					flush()
					children = append(children, &ChangeNode{Type: NodeTable, Op: Added, AfterXML: styled.Raw})
				} else if paragraphTags[styled.Tag] {
					paraGroup = append(paraGroup, styled.Raw)
				}
			}
		}
	}
	flush()
	return children, nil
}

func joinXML(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += p
	}
	return out
}

// walkSegment walks one Modified segment's children from the highest
// pristine_start to the lowest.
func (w RequestWalker) walkSegment(segNode *ChangeNode, tabID string) ([]Request, error) {
	var reqs []Request

	segmentID := resolveSegmentID(segNode)
	loc := Location{TabID: tabID, SegmentID: segmentID}
	segmentEndConsumed := false

	type indexed struct {
		node *ChangeNode
		pos  int
	}
	items := make([]indexed, len(segNode.Children))
	for i, c := range segNode.Children {
		items[i] = indexed{c, i}
	}
	// Descending pristine_start; ties break on descending original
	// position, so same-start siblings emit in an order that lets earlier
	// (in this walk) inserts push later-in-document-order ones into place.
	sort.Slice(items, func(i, j int) bool {
		if items[i].node.PristineStart != items[j].node.PristineStart {
			return items[i].node.PristineStart > items[j].node.PristineStart
		}
		return items[i].pos > items[j].pos
	})

	followedByAddedTable := false
	beforeStructuralElement := false

	for _, it := range items {
		child := it.node
		switch child.Type {
		case NodeTable:
			tableReqs, err := w.emitTable(child, loc)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, tableReqs...)
			followedByAddedTable = child.Op == Added
			beforeStructuralElement = child.Op != Deleted

		case NodeContentBlock:
			for _, fn := range child.Children {
				if fn.Type == NodeSegment && fn.SegmentType == SegmentFootnote && fn.Op == Deleted {
					baseIndex := child.PristineStart
					if baseIndex == 0 {
						baseIndex = segmentOrigin(segmentID)
					}
					delReqs, err := w.Structural.EmitFootnoteRefDelete(child.BeforeXML, fn.SegmentID, baseIndex, loc)
					if err != nil {
						return nil, err
					}
					reqs = append(reqs, delReqs...)
				}
			}

			blockReqs, consumed, err := w.emitContentBlock(child, segNode.SegmentEnd, segmentEndConsumed,
				followedByAddedTable, beforeStructuralElement || child.BeforeStructuralElement, loc)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, blockReqs...)
			if consumed {
				segmentEndConsumed = true
			}
			followedByAddedTable = false
			beforeStructuralElement = false
		}
	}
	return reqs, nil
}

// segmentOrigin is the first valid index of a segment's own coordinate
// space: 1 for the body, 0 for every other segment type.
func segmentOrigin(segmentID string) int {
	if segmentID == "" {
		return 1
	}
	return 0
}

func resolveSegmentID(segNode *ChangeNode) string {
	if segNode.SegmentType == SegmentBody {
		return ""
	}
	return segNode.SegmentID
}

func (w RequestWalker) emitTable(node *ChangeNode, loc Location) ([]Request, error) {
	switch node.Op {
	case Added:
		return w.Table.GenerateAdded(node.AfterXML, node.PristineStart, loc)
	case Deleted:
		return w.Table.GenerateDeleted(node.PristineStart, node.PristineEnd, loc), nil
	case Modified:
		return w.Table.GenerateModified(node, loc)
	default:
		return nil, nil
	}
}

// emitContentBlock implements the CONTENT_BLOCK dispatch per node.Op,
// computing the insertion index and trailing-newline strip decision the
// same way ContentGenerator's own clamp logic protects a segment's final
// newline and the newline before a non-deleted structural element.
// Returns (requests, segmentEndConsumed).
func (w RequestWalker) emitContentBlock(node *ChangeNode, segmentEnd int, segmentEndConsumed, followedByAddedTable, beforeStructuralElement bool, loc Location) ([]Request, bool, error) {
	var reqs []Request

	deleteEnd := node.PristineStart // no delete by default
	deletedSomething := false
	if node.Op == Deleted || node.Op == Modified {
		if node.BeforeXML != "" && node.PristineEnd > node.PristineStart {
			delReqs := w.Content.GenerateDelete(node.PristineStart, node.PristineEnd, segmentEnd, beforeStructuralElement, loc)
			reqs = append(reqs, delReqs...)
			if len(delReqs) > 0 {
				deleteEnd = delReqs[0].DeleteContentRange.Range.End
				deletedSomething = true
			}
		}
	}
	if node.Op == Deleted {
		return reqs, false, nil
	}

	// node.Op is Added or Modified from here on.
	if node.AfterXML == "" {
		return reqs, false, nil
	}

	segmentStart := segmentOrigin(loc.SegmentID)
	insertIdx := node.PristineStart
	if insertIdx <= 0 {
		insertIdx = segmentStart
	}
	if segmentEnd > 0 && insertIdx > segmentEnd-1 {
		insertIdx = segmentEnd - 1
	}

	atSegEnd := segmentEnd > 0 && insertIdx >= segmentEnd-1
	stripForSegEnd := atSegEnd && !segmentEndConsumed
	deletesToSegEnd := deletedSomething && segmentEnd > 0 && deleteEnd >= segmentEnd-1
	clampedBeforeStructural := beforeStructuralElement && deletedSomething && deleteEnd < node.PristineEnd

	stripNL := followedByAddedTable || stripForSegEnd || deletesToSegEnd || clampedBeforeStructural

	addReqs, _, err := w.Content.GenerateAdd(node.AfterXML, insertIdx, stripNL, loc)
	if err != nil {
		return nil, false, err
	}
	reqs = append(reqs, addReqs...)

	return reqs, stripForSegEnd, nil
}
