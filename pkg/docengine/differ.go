package docengine

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// TreeDiffer builds a ChangeNode tree from a pristine/current Document
// pair. It delegates block-level pairing to BlockAligner and only emits
// nodes for actual differences: an unchanged leaf never appears, though
// its ancestors do whenever any descendant changed.
type TreeDiffer struct {
	Aligner BlockAligner
}

// Diff returns a DOCUMENT-rooted ChangeNode whose children are TAB nodes,
// one per tab that changed (or was wholly added/deleted).
func (d TreeDiffer) Diff(pristine, current *Document) *ChangeNode {
	root := &ChangeNode{Type: NodeDocument, Op: Unchanged, NodeID: pristine.DocID}

	for _, tp := range matchTabs(pristine, current) {
		switch {
		case tp.p == nil && tp.c != nil:
			root.Children = append(root.Children, &ChangeNode{
				Type: NodeTab, Op: Added, NodeID: tp.c.TabID,
				TabID: tp.c.TabID, AfterXML: tp.c.XML,
			})
		case tp.p != nil && tp.c == nil:
			root.Children = append(root.Children, &ChangeNode{
				Type: NodeTab, Op: Deleted, NodeID: tp.p.TabID,
				TabID: tp.p.TabID, BeforeXML: tp.p.XML,
			})
		case tp.p != nil && tp.c != nil:
			if node := d.diffTab(tp.p, tp.c); node != nil {
				root.Children = append(root.Children, node)
			}
		}
	}
	return root
}

type tabPair struct{ p, c *Tab }

func matchTabs(pristine, current *Document) []tabPair {
	pMap := make(map[string]*Tab, len(pristine.Tabs))
	for _, t := range pristine.Tabs {
		pMap[t.TabID] = t
	}
	cMap := make(map[string]*Tab, len(current.Tabs))
	for _, t := range current.Tabs {
		cMap[t.TabID] = t
	}

	var order []string
	seen := make(map[string]bool)
	for _, t := range pristine.Tabs {
		if !seen[t.TabID] {
			seen[t.TabID] = true
			order = append(order, t.TabID)
		}
	}
	for _, t := range current.Tabs {
		if !seen[t.TabID] {
			seen[t.TabID] = true
			order = append(order, t.TabID)
		}
	}

	pairs := make([]tabPair, 0, len(order))
	for _, id := range order {
		pairs = append(pairs, tabPair{pMap[id], cMap[id]})
	}
	return pairs
}

func (d TreeDiffer) diffTab(pTab, cTab *Tab) *ChangeNode {
	var children []*ChangeNode
	for _, sp := range matchSegments(pTab, cTab) {
		switch {
		case sp.p == nil && sp.c != nil:
			children = append(children, &ChangeNode{
				Type: NodeSegment, Op: Added, NodeID: sp.c.SegmentID,
				SegmentType: sp.c.Type, SegmentID: sp.c.SegmentID,
				AfterXML: segmentPlaceholderXML(sp.c),
			})
		case sp.p != nil && sp.c == nil:
			children = append(children, &ChangeNode{
				Type: NodeSegment, Op: Deleted, NodeID: sp.p.SegmentID,
				SegmentType: sp.p.Type, SegmentID: sp.p.SegmentID,
				BeforeXML: segmentPlaceholderXML(sp.p),
			})
		case sp.p != nil && sp.c != nil:
			if node := d.diffSegment(sp.p, sp.c); node != nil {
				children = append(children, node)
			}
		}
	}
	titleChanged := pTab.Title != cTab.Title
	if len(children) == 0 && !titleChanged {
		return nil
	}
	node := &ChangeNode{Type: NodeTab, Op: Modified, NodeID: pTab.TabID, TabID: pTab.TabID, Children: children}
	if titleChanged {
		node.TabTitle = cTab.Title
	}
	return node
}

// segmentPlaceholderXML wraps a wholly added/deleted segment's blocks in a
// synthetic element named after its type, carrying its real content (so the
// walker can synthesize "insert everything"/"delete everything" sub-trees
// from it) plus the id StructuralGenerator needs for header/footer lifecycle
// requests.
func segmentPlaceholderXML(seg *Segment) string {
	var body strings.Builder
	for _, b := range seg.Blocks {
		body.WriteString(b.RawXML())
	}
	return fmt.Sprintf(`<%s id=%q>%s</%s>`, seg.Type.String(), seg.SegmentID, body.String(), seg.Type.String())
}

type segPair struct{ p, c *Segment }

// matchSegments pairs segments by (type, id) — headers and footers match
// by type alone, since a tab has at most one default header/footer.
func matchSegments(pristine, current *Tab) []segPair {
	key := func(s *Segment) string {
		if s.Type == SegmentHeader || s.Type == SegmentFooter {
			return s.Type.String() + "|"
		}
		return s.Type.String() + "|" + s.SegmentID
	}

	pMap := make(map[string]*Segment)
	for _, s := range pristine.Segments {
		pMap[key(s)] = s
	}
	cMap := make(map[string]*Segment)
	for _, s := range current.Segments {
		cMap[key(s)] = s
	}

	keySet := make(map[string]bool, len(pMap)+len(cMap))
	for k := range pMap {
		keySet[k] = true
	}
	for k := range cMap {
		keySet[k] = true
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]segPair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, segPair{pMap[k], cMap[k]})
	}
	return pairs
}

func (d TreeDiffer) diffSegment(pSeg, cSeg *Segment) *ChangeNode {
	children := d.diffStructuralElements(pSeg.Blocks, cSeg.Blocks, pSeg.StartIndex)
	if len(children) == 0 {
		return nil
	}
	return &ChangeNode{
		Type: NodeSegment, Op: Modified, NodeID: pSeg.SegmentID,
		SegmentType: pSeg.Type, SegmentID: pSeg.SegmentID,
		SegmentEnd: pSeg.EndIndex, Children: children,
	}
}

// rawEntry is one aligned pair, reclassified into a change operation.
// op == nil means "unchanged" — the entry only acts as a group separator
// and position tracker, it never becomes a node of its own.
type rawEntry struct {
	op         *ChangeOp
	pBlock     StructuralBlock
	cBlock     StructuralBlock
	currentIdx *int
}

func (d TreeDiffer) diffStructuralElements(pChildren, cChildren []StructuralBlock, segStart int) []*ChangeNode {
	alignment := d.Aligner.Align(pChildren, cChildren)

	raw := make([]rawEntry, 0, len(alignment))
	for _, a := range alignment {
		switch {
		case a.PristineIdx == nil && a.CurrentIdx != nil:
			idx := *a.CurrentIdx
			op := Added
			raw = append(raw, rawEntry{op: &op, cBlock: cChildren[idx], currentIdx: &idx})
		case a.PristineIdx != nil && a.CurrentIdx == nil:
			op := Deleted
			raw = append(raw, rawEntry{op: &op, pBlock: pChildren[*a.PristineIdx]})
		case a.PristineIdx != nil && a.CurrentIdx != nil:
			pBlock := pChildren[*a.PristineIdx]
			cBlock := cChildren[*a.CurrentIdx]
			idx := *a.CurrentIdx
			if pBlock.ContentHash() != cBlock.ContentHash() {
				op := Modified
				raw = append(raw, rawEntry{op: &op, pBlock: pBlock, cBlock: cBlock, currentIdx: &idx})
			} else {
				raw = append(raw, rawEntry{pBlock: pBlock, cBlock: cBlock, currentIdx: &idx})
			}
		}
	}

	return groupIntoChangeNodes(raw, segStart)
}

// groupEntry is one paragraph change folded into the current run.
type groupEntry struct {
	op    ChangeOp
	pPara *Paragraph
	cPara *Paragraph
}

// changeGroupState accumulates a run of consecutive same-op,
// same-tag paragraphs into a single CONTENT_BLOCK node, and tracks the
// pristine position needed to place ADDED nodes that have no pristine
// anchor of their own.
type changeGroupState struct {
	nodes []*ChangeNode

	group           []groupEntry
	groupOp         ChangeOp
	haveGroupOp     bool
	lastCurrentIdx  *int
	lastPristineEnd int

	// flushBeforeStruct is set just before flushing a group whose
	// trailing newline immediately precedes a non-deleted table — that
	// newline is the one the Docs API forbids deleting.
	flushBeforeStruct bool
}

func (s *changeGroupState) flush() {
	if len(s.group) == 0 {
		s.flushBeforeStruct = false
		return
	}

	var beforeParts, afterParts []string
	pStart, pEnd := 0, 0

	for _, e := range s.group {
		if e.pPara != nil && e.pPara.XML != "" {
			beforeParts = append(beforeParts, e.pPara.XML)
			if pStart == 0 {
				pStart, _ = e.pPara.Range()
			}
			_, pEnd = e.pPara.Range()
			s.lastPristineEnd = pEnd
		}
		if e.cPara != nil && e.cPara.XML != "" {
			afterParts = append(afterParts, e.cPara.XML)
		}
	}

	if pStart == 0 && s.groupOp == Added {
		pStart = s.lastPristineEnd
		pEnd = s.lastPristineEnd
	}

	node := &ChangeNode{
		Type:                    NodeContentBlock,
		Op:                      s.groupOp,
		PristineStart:           pStart,
		PristineEnd:             pEnd,
		Children:                collectFootnoteChanges(s.group),
		BeforeStructuralElement: s.flushBeforeStruct,
	}
	if len(beforeParts) > 0 {
		node.BeforeXML = strings.Join(beforeParts, "\n")
	}
	if len(afterParts) > 0 {
		node.AfterXML = strings.Join(afterParts, "\n")
	}
	s.nodes = append(s.nodes, node)

	s.group = nil
	s.haveGroupOp = false
	s.lastCurrentIdx = nil
	s.flushBeforeStruct = false
}

func groupIntoChangeNodes(raw []rawEntry, segStart int) []*ChangeNode {
	suppressDeletesBeforeTables(raw)

	st := &changeGroupState{lastPristineEnd: segStart}

	for _, e := range raw {
		if e.op == nil {
			block := e.cBlock
			if block == nil {
				block = e.pBlock
			}
			if len(st.group) > 0 {
				if _, isParagraph := block.(*Paragraph); !isParagraph {
					st.flushBeforeStruct = true
				}
			}
			st.flush()
			if e.pBlock != nil {
				if _, end := e.pBlock.Range(); end > 0 {
					st.lastPristineEnd = end
				}
			}
			continue
		}

		block := e.cBlock
		if block == nil {
			block = e.pBlock
		}

		if _, isParagraph := block.(*Paragraph); isParagraph {
			appendParagraphEntry(st, e)
			continue
		}

		appendNonParagraphEntry(st, e)
	}

	st.flush()
	return st.nodes
}

// suppressDeletesBeforeTables reclassifies a deleted empty paragraph as
// unchanged when it immediately precedes a non-deleted table: that empty
// paragraph is the mandatory newline the table needs, not a real edit.
func suppressDeletesBeforeTables(raw []rawEntry) {
	for i := range raw {
		if raw[i].op == nil || *raw[i].op != Deleted {
			continue
		}
		para, ok := raw[i].pBlock.(*Paragraph)
		if !ok || !isEmptyParagraph(para) {
			continue
		}
		if i+1 >= len(raw) {
			continue
		}
		next := raw[i+1]
		nextBlock := next.cBlock
		if nextBlock == nil {
			nextBlock = next.pBlock
		}
		_, isTable := nextBlock.(*Table)
		if isTable && (next.op == nil || *next.op != Deleted) {
			raw[i].op = nil
			raw[i].cBlock = nil
			raw[i].currentIdx = nil
		}
	}
}

func appendParagraphEntry(st *changeGroupState, e rawEntry) {
	var pPara, cPara *Paragraph
	if p, ok := e.pBlock.(*Paragraph); ok {
		pPara = p
	}
	if c, ok := e.cBlock.(*Paragraph); ok {
		cPara = c
	}
	block := cPara
	if block == nil {
		block = pPara
	}

	isAdjacent := st.lastCurrentIdx == nil || e.currentIdx == nil || *e.currentIdx == *st.lastCurrentIdx+1

	sameType := true
	if len(st.group) > 0 {
		last := st.group[len(st.group)-1]
		lastBlk := last.cPara
		if lastBlk == nil {
			lastBlk = last.pPara
		}
		if lastBlk != nil {
			sameType = block.Tag == lastBlk.Tag
		}
	}

	if st.haveGroupOp && st.groupOp == *e.op && isAdjacent && sameType {
		st.group = append(st.group, groupEntry{op: *e.op, pPara: pPara, cPara: cPara})
		if e.currentIdx != nil {
			st.lastCurrentIdx = e.currentIdx
		}
		return
	}

	st.flush()
	st.group = []groupEntry{{op: *e.op, pPara: pPara, cPara: cPara}}
	st.groupOp = *e.op
	st.haveGroupOp = true
	st.lastCurrentIdx = e.currentIdx
}

func appendNonParagraphEntry(st *changeGroupState, e rawEntry) {
	if len(st.group) > 0 && *e.op != Deleted {
		st.flushBeforeStruct = true
	}
	st.flush()

	switch *e.op {
	case Added:
		table := e.cBlock.(*Table)
		st.nodes = append(st.nodes, &ChangeNode{
			Type: NodeTable, Op: Added, AfterXML: table.XML,
			PristineStart: st.lastPristineEnd, PristineEnd: st.lastPristineEnd,
			TableStart: st.lastPristineEnd,
		})

	case Deleted:
		table := e.pBlock.(*Table)
		start, end := table.Range()
		st.nodes = append(st.nodes, &ChangeNode{
			Type: NodeTable, Op: Deleted, BeforeXML: table.XML,
			PristineStart: start, PristineEnd: end, TableStart: start,
		})
		st.lastPristineEnd = end

	case Modified:
		pTable := e.pBlock.(*Table)
		cTable := e.cBlock.(*Table)
		if node := diffTable(pTable, cTable); node != nil {
			st.nodes = append(st.nodes, node)
		}
		_, end := pTable.Range()
		st.lastPristineEnd = end
	}
}

// collectFootnoteChanges detects added/deleted/modified inline footnotes
// across a whole paragraph group, keyed by footnote id.
func collectFootnoteChanges(group []groupEntry) []*ChangeNode {
	pFootnotes := make(map[string]string)
	cFootnotes := make(map[string]string)
	var pOrder, cOrder []string

	for _, e := range group {
		if e.pPara != nil {
			for _, fn := range e.pPara.Footnotes {
				if _, ok := pFootnotes[fn.FootnoteID]; !ok {
					pOrder = append(pOrder, fn.FootnoteID)
				}
				pFootnotes[fn.FootnoteID] = fn.XML
			}
		}
		if e.cPara != nil {
			for _, fn := range e.cPara.Footnotes {
				if _, ok := cFootnotes[fn.FootnoteID]; !ok {
					cOrder = append(cOrder, fn.FootnoteID)
				}
				cFootnotes[fn.FootnoteID] = fn.XML
			}
		}
	}

	var children []*ChangeNode
	for _, id := range cOrder {
		if _, ok := pFootnotes[id]; !ok {
			children = append(children, &ChangeNode{
				Type: NodeSegment, Op: Added, NodeID: id,
				SegmentType: SegmentFootnote, SegmentID: id, AfterXML: cFootnotes[id],
			})
		}
	}
	for _, id := range pOrder {
		if _, ok := cFootnotes[id]; !ok {
			children = append(children, &ChangeNode{
				Type: NodeSegment, Op: Deleted, NodeID: id,
				SegmentType: SegmentFootnote, SegmentID: id, BeforeXML: pFootnotes[id],
			})
		}
	}
	for _, id := range pOrder {
		if cXML, ok := cFootnotes[id]; ok && cXML != pFootnotes[id] {
			children = append(children, &ChangeNode{
				Type: NodeSegment, Op: Modified, NodeID: id,
				SegmentType: SegmentFootnote, SegmentID: id,
				BeforeXML: pFootnotes[id], AfterXML: cXML,
			})
		}
	}
	return children
}

func diffTable(p, c *Table) *ChangeNode {
	var children []*ChangeNode

	colChanges, colAlignment := diffColumns(p, c)
	children = append(children, colChanges...)
	children = append(children, diffRows(p, c, colAlignment)...)

	if len(children) == 0 && !hasColumnWidthChanges(p, c) {
		return nil
	}

	pStart, pEnd := p.Range()
	return &ChangeNode{
		Type: NodeTable, Op: Modified,
		BeforeXML: p.XML, AfterXML: c.XML,
		PristineStart: pStart, PristineEnd: pEnd, TableStart: pStart,
		Children: children,
	}
}

func hasColumnWidthChanges(p, c *Table) bool {
	pWidths := make(map[string]string, len(p.Columns))
	for _, col := range p.Columns {
		pWidths[col.ColID] = col.Width
	}
	cWidths := make(map[string]string, len(c.Columns))
	for _, col := range c.Columns {
		cWidths[col.ColID] = col.Width
	}
	return !maps.Equal(pWidths, cWidths)
}

// diffColumns matches columns by ColID (first unclaimed match wins) and
// returns both the ADDED/DELETED column nodes and the underlying
// alignment, which diffRows/diffCells reuse to skip cells that belong to
// a structurally added or deleted column.
func diffColumns(p, c *Table) ([]*ChangeNode, []AlignedPair) {
	pIDToIdx := make(map[string]int)
	for i, col := range p.Columns {
		if _, ok := pIDToIdx[col.ColID]; !ok {
			pIDToIdx[col.ColID] = i
		}
	}

	matchedP := make(map[int]bool)
	var alignment []AlignedPair

	for cI, col := range c.Columns {
		if pI, ok := pIDToIdx[col.ColID]; ok && !matchedP[pI] {
			alignment = append(alignment, pair(pI, cI))
			matchedP[pI] = true
		} else {
			alignment = append(alignment, pair(-1, cI))
		}
	}
	for pI := range p.Columns {
		if !matchedP[pI] {
			alignment = append(alignment, pair(pI, -1))
		}
	}

	var changes []*ChangeNode
	for _, a := range alignment {
		switch {
		case a.PristineIdx == nil && a.CurrentIdx != nil:
			changes = append(changes, &ChangeNode{Type: NodeTableColumn, Op: Added, ColIndex: *a.CurrentIdx})
		case a.PristineIdx != nil && a.CurrentIdx == nil:
			changes = append(changes, &ChangeNode{Type: NodeTableColumn, Op: Deleted, ColIndex: *a.PristineIdx})
		}
	}
	return changes, alignment
}

func diffRows(p, c *Table, colAlignment []AlignedPair) []*ChangeNode {
	var changes []*ChangeNode
	rowAlignment := BlockAligner{}.AlignRows(p.Rows, c.Rows)

	pStart, _ := p.Range()
	lastPristineEnd := pStart + 1

	for _, a := range rowAlignment {
		var pRow, cRow *TableRow
		if a.PristineIdx != nil {
			pRow = p.Rows[*a.PristineIdx]
		}
		if a.CurrentIdx != nil {
			cRow = c.Rows[*a.CurrentIdx]
		}

		rowIdx := 0
		switch {
		case a.CurrentIdx != nil:
			rowIdx = *a.CurrentIdx
		case a.PristineIdx != nil:
			rowIdx = *a.PristineIdx
		}

		switch {
		case pRow == nil && cRow != nil:
			changes = append(changes, &ChangeNode{
				Type: NodeTableRow, Op: Added, NodeID: cRow.RowID, RowIndex: rowIdx,
				AfterXML: cRow.XML, PristineStart: lastPristineEnd, PristineEnd: lastPristineEnd,
			})

		case pRow != nil && cRow == nil:
			start, end := pRow.Range()
			changes = append(changes, &ChangeNode{
				Type: NodeTableRow, Op: Deleted, NodeID: pRow.RowID, RowIndex: rowIdx,
				BeforeXML: pRow.XML, PristineStart: start, PristineEnd: end,
			})

		case pRow != nil && cRow != nil:
			cellChildren := diffCells(pRow, cRow, colAlignment)
			idDiffers := pRow.RowID != cRow.RowID
			contentDiffers := pRow.XML != cRow.XML
			if idDiffers || contentDiffers || len(cellChildren) > 0 {
				start, end := pRow.Range()
				changes = append(changes, &ChangeNode{
					Type: NodeTableRow, Op: Modified, NodeID: pRow.RowID, RowIndex: rowIdx,
					BeforeXML: pRow.XML, AfterXML: cRow.XML,
					PristineStart: start, PristineEnd: end, Children: cellChildren,
				})
			}
		}

		if pRow != nil {
			_, end := pRow.Range()
			lastPristineEnd = end
		}
	}

	return changes
}

func diffCells(pRow, cRow *TableRow, colAlignment []AlignedPair) []*ChangeNode {
	pCells, cCells := pRow.Cells, cRow.Cells

	alignment := colAlignment
	if len(alignment) == 0 {
		maxLen := len(pCells)
		if len(cCells) > maxLen {
			maxLen = len(cCells)
		}
		alignment = make([]AlignedPair, maxLen)
		for i := 0; i < maxLen; i++ {
			p, c := -1, -1
			if i < len(pCells) {
				p = i
			}
			if i < len(cCells) {
				c = i
			}
			alignment[i] = pair(p, c)
		}
	}

	colsAdded := make(map[int]bool)
	colsDeleted := make(map[int]bool)
	for _, a := range alignment {
		if a.PristineIdx == nil && a.CurrentIdx != nil {
			colsAdded[*a.CurrentIdx] = true
		}
		if a.PristineIdx != nil && a.CurrentIdx == nil {
			colsDeleted[*a.PristineIdx] = true
		}
	}

	var changes []*ChangeNode
	for _, a := range alignment {
		var pCell, cCell *TableCell
		if a.PristineIdx != nil && *a.PristineIdx < len(pCells) {
			pCell = pCells[*a.PristineIdx]
		}
		if a.CurrentIdx != nil && *a.CurrentIdx < len(cCells) {
			cCell = cCells[*a.CurrentIdx]
		}

		colIdx := 0
		switch {
		case a.CurrentIdx != nil:
			colIdx = *a.CurrentIdx
		case a.PristineIdx != nil:
			colIdx = *a.PristineIdx
		}
		if colsAdded[colIdx] || colsDeleted[colIdx] {
			continue
		}

		switch {
		case pCell == nil && cCell != nil:
			_, rowEnd := pRow.Range()
			changes = append(changes, &ChangeNode{
				Type: NodeTableCell, Op: Added, NodeID: cCell.CellID, ColIndex: colIdx,
				AfterXML: cCell.XML, PristineStart: rowEnd, PristineEnd: rowEnd,
			})

		case pCell != nil && cCell == nil:
			start, end := pCell.Range()
			changes = append(changes, &ChangeNode{
				Type: NodeTableCell, Op: Deleted, NodeID: pCell.CellID, ColIndex: colIdx,
				BeforeXML: pCell.XML, PristineStart: start, PristineEnd: end,
			})

		case pCell != nil && cCell != nil && strings.TrimSpace(pCell.XML) != strings.TrimSpace(cCell.XML):
			start, end := pCell.Range()
			changes = append(changes, &ChangeNode{
				Type: NodeTableCell, Op: Modified, NodeID: pCell.CellID, ColIndex: colIdx,
				BeforeXML: pCell.XML, AfterXML: cCell.XML, PristineStart: start, PristineEnd: end,
			})
		}
	}

	return changes
}

// isEmptyParagraph reports whether a paragraph's entire visible text
// (recursively, across all nested inline elements) is blank.
func isEmptyParagraph(p *Paragraph) bool {
	root, err := parseXMLTree(p.XML)
	if err != nil {
		return false
	}
	return strings.TrimSpace(allText(root)) == ""
}

func allText(n *xmlNode) string {
	var b strings.Builder
	b.WriteString(n.DirectText)
	for _, c := range n.Children {
		b.WriteString(allText(c))
	}
	return b.String()
}
