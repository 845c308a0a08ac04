package docengine

import "sort"

// parseTableXML parses one <table>...</table> fragment (as captured in a
// table ChangeNode's BeforeXML/AfterXML) back into a Table value.
func parseTableXML(raw string) (*Table, error) {
	node, err := parseXMLTree(raw)
	if err != nil {
		return nil, err
	}
	return parseTable(node)
}

// TableGenerator turns a table ChangeNode into the Requests that
// reproduce it server-side, per the five-phase modify order: column
// deletes, row deletes, cell mods + row inserts (bottom-to-top), column
// inserts, column widths.
//
// Structural decisions (what was added/deleted/modified) come straight
// from the diffed ChangeNode tree, which already carries real pristine
// indices for every surviving node. Insertion points for brand-new
// content reuse BlockIndexer's own layout math: re-indexing the "after"
// table at its pristine start yields exactly the positions those cells
// occupy once every earlier (higher-priority) structural op in this
// table has already applied — the same backwards-walk principle
// ContentGenerator's shift tables rely on.
type TableGenerator struct {
	Content ContentGenerator
}

// GenerateAdded emits insertTable followed by a right-to-left/bottom-to-top
// population pass over the newly inserted (empty) table's cells.
func (g TableGenerator) GenerateAdded(afterXML string, insertIndex int, loc Location) ([]Request, error) {
	table, err := parseTableXML(afterXML)
	if err != nil {
		return nil, err
	}
	rows, cols := len(table.Rows), len(table.Columns)
	if rows == 0 {
		rows = 1
	}
	if cols == 0 {
		cols = 1
	}

	reqs := []Request{{InsertTable: &InsertTableRequest{
		Location: Location{Index: insertIndex, TabID: loc.TabID, SegmentID: loc.SegmentID},
		Rows:     rows, Columns: cols,
	}}}

	// A freshly inserted table has the same structure (and therefore the
	// same index layout) BlockIndexer would assign to an empty table of
	// this shape: reuse it to locate every cell's content start.
	indexTable(table, insertIndex)

	for rowIdx := len(table.Rows) - 1; rowIdx >= 0; rowIdx-- {
		row := table.Rows[rowIdx]
		for colIdx := len(row.Cells) - 1; colIdx >= 0; colIdx-- {
			addReqs, err := g.populateCell(row.Cells[colIdx], loc)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, addReqs...)
		}
	}
	return reqs, nil
}

// GenerateDeleted emits the single deleteContentRange spanning the whole
// table, [start, end).
func (g TableGenerator) GenerateDeleted(start, end int, loc Location) []Request {
	if start >= end {
		return nil
	}
	return []Request{{DeleteContentRange: &DeleteContentRangeRequest{
		Range: RangeRef{Start: start, End: end, TabID: loc.TabID, SegmentID: loc.SegmentID},
	}}}
}

// GenerateModified implements the five-phase modify order for one table
// ChangeNode (Op Modified, Children already classified by the differ into
// NodeTableColumn/NodeTableRow/NodeTableCell nodes, TableStart the
// table's pristine start index).
func (g TableGenerator) GenerateModified(node *ChangeNode, loc Location) ([]Request, error) {
	current, err := parseTableXML(node.AfterXML)
	if err != nil {
		return nil, err
	}
	indexTable(current, node.TableStart)

	tblLoc := Location{Index: node.TableStart, TabID: loc.TabID, SegmentID: loc.SegmentID}
	var reqs []Request

	// 1. column deletes, highest index first.
	var colDeletes []int
	for _, c := range node.Children {
		if c.Type == NodeTableColumn && c.Op == Deleted {
			colDeletes = append(colDeletes, c.ColIndex)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(colDeletes)))
	for _, ci := range colDeletes {
		reqs = append(reqs, Request{DeleteTableColumn: &DeleteTableColumnRequest{
			TableStartLocation: tblLoc, ColumnIndex: ci,
		}})
	}

	// 2. row deletes, highest index first.
	var rowDeletes []*ChangeNode
	for _, c := range node.Children {
		if c.Type == NodeTableRow && c.Op == Deleted {
			rowDeletes = append(rowDeletes, c)
		}
	}
	sort.Slice(rowDeletes, func(i, j int) bool { return rowDeletes[i].RowIndex > rowDeletes[j].RowIndex })
	for _, rn := range rowDeletes {
		reqs = append(reqs, Request{DeleteTableRow: &DeleteTableRowRequest{
			TableStartLocation: tblLoc, RowIndex: rn.RowIndex,
		}})
	}

	// 3. cell mods (bottom row to top row, right cell to left cell) +
	// row inserts, anchored on the nearest still-surviving row and
	// deferred so their population runs after the insertTableRow that
	// creates them.
	var rowNodes []*ChangeNode
	for _, c := range node.Children {
		if c.Type == NodeTableRow && c.Op != Deleted {
			rowNodes = append(rowNodes, c)
		}
	}

	type rowInsert struct {
		node        *ChangeNode
		anchorIndex int
		insertBelow bool
	}
	var inserts []rowInsert
	anchorIdx, haveAnchor := 0, false
	for _, rn := range rowNodes {
		if rn.Op == Added {
			anchor, below := 0, false
			if haveAnchor {
				anchor, below = anchorIdx, true
			}
			inserts = append(inserts, rowInsert{node: rn, anchorIndex: anchor, insertBelow: below})
		} else {
			anchorIdx, haveAnchor = rn.RowIndex, true
		}
	}

	for i := len(rowNodes) - 1; i >= 0; i-- {
		rn := rowNodes[i]
		if rn.Op != Modified {
			continue
		}
		cellReqs, err := g.generateCellModsFromNode(rn, current, loc)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, cellReqs...)
	}

	for i := len(inserts) - 1; i >= 0; i-- {
		ins := inserts[i]
		reqs = append(reqs, Request{InsertTableRow: &InsertTableRowRequest{
			TableStartLocation: tblLoc, RowIndex: ins.anchorIndex, InsertBelow: ins.insertBelow,
		}})
	}
	for i := len(inserts) - 1; i >= 0; i-- {
		ins := inserts[i]
		if ins.node.RowIndex >= len(current.Rows) {
			continue
		}
		row := current.Rows[ins.node.RowIndex]
		for colIdx := len(row.Cells) - 1; colIdx >= 0; colIdx-- {
			addReqs, err := g.populateCell(row.Cells[colIdx], loc)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, addReqs...)
		}
	}

	// 4. column inserts, highest index first, then populate every row's
	// new cell in that column.
	var colInserts []int
	for _, c := range node.Children {
		if c.Type == NodeTableColumn && c.Op == Added {
			colInserts = append(colInserts, c.ColIndex)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(colInserts)))
	for _, ci := range colInserts {
		if ci == 0 {
			reqs = append(reqs, Request{InsertTableColumn: &InsertTableColumnRequest{
				TableStartLocation: tblLoc, ColumnIndex: 0, InsertRight: false,
			}})
		} else {
			reqs = append(reqs, Request{InsertTableColumn: &InsertTableColumnRequest{
				TableStartLocation: tblLoc, ColumnIndex: ci - 1, InsertRight: true,
			}})
		}
	}
	for _, ci := range colInserts {
		for rowIdx := len(current.Rows) - 1; rowIdx >= 0; rowIdx-- {
			row := current.Rows[rowIdx]
			if ci >= len(row.Cells) {
				continue
			}
			addReqs, err := g.populateCell(row.Cells[ci], loc)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, addReqs...)
		}
	}

	// 5. column widths, anywhere in the batch.
	pristine, err := parseTableXML(node.BeforeXML)
	if err != nil {
		return nil, err
	}
	reqs = append(reqs, g.generateColumnWidthUpdates(pristine, current, node.TableStart, loc)...)

	return reqs, nil
}

// generateCellModsFromNode emits delete+insert for every NodeTableCell
// child marked Modified, right-to-left, using the cell's real pristine
// range for the delete and its position in the re-indexed current table
// for the insert.
func (g TableGenerator) generateCellModsFromNode(rowNode *ChangeNode, current *Table, loc Location) ([]Request, error) {
	var cells []*ChangeNode
	for _, c := range rowNode.Children {
		if c.Type == NodeTableCell && c.Op == Modified {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].ColIndex > cells[j].ColIndex })

	var reqs []Request
	delLoc := Location{TabID: loc.TabID, SegmentID: loc.SegmentID}
	tableStart, _ := current.Range()
	tblLoc := Location{Index: tableStart, TabID: loc.TabID, SegmentID: loc.SegmentID}
	for _, cn := range cells {
		// A cell's own end acts as its "segment end": GenerateDelete's
		// existing boundary clamp keeps the cell's mandatory trailing
		// paragraph newline intact, exactly as it would for a real segment.
		reqs = append(reqs, g.Content.GenerateDelete(cn.PristineStart, cn.PristineEnd, cn.PristineEnd, false, delLoc)...)

		if styleReq, ok := g.cellStyleUpdate(cn, tblLoc, rowNode.RowIndex); ok {
			reqs = append(reqs, styleReq)
		}

		if rowNode.RowIndex >= len(current.Rows) || cn.ColIndex >= len(current.Rows[rowNode.RowIndex].Cells) {
			continue
		}
		cell := current.Rows[rowNode.RowIndex].Cells[cn.ColIndex]
		addReqs, err := g.populateCell(cell, loc)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, addReqs...)
	}
	return reqs, nil
}

// tableCellStyleFields is the full cell-style surface one update can set;
// listing every field clears whatever the previous class carried.
const tableCellStyleFields = "backgroundColor,contentAlignment,paddingTop,paddingBottom," +
	"paddingLeft,paddingRight,borderTop,borderBottom,borderLeft,borderRight"

// cellStyleUpdate emits an updateTableCellStyle when the modified cell's
// class attribute changed. The class resolves through the content
// generator's catalog (cell-* entries); an unknown or removed class still
// emits, with the zero style plus the full field mask, which resets the
// cell to defaults.
func (g TableGenerator) cellStyleUpdate(cn *ChangeNode, tblLoc Location, rowIndex int) (Request, bool) {
	beforeClass := cellClassAttr(cn.BeforeXML)
	afterClass := cellClassAttr(cn.AfterXML)
	if beforeClass == afterClass {
		return Request{}, false
	}

	var style TableCellStyle
	if afterClass != "" && g.Content.Styles != nil {
		if resolved, ok := g.Content.Styles.CellStyleFor(afterClass); ok {
			style = resolved
		}
	}

	return Request{UpdateTableCellStyle: &UpdateTableCellStyleRequest{
		TableStartLocation: tblLoc,
		RowIndex:           rowIndex,
		ColIndex:           cn.ColIndex,
		Style:              style,
		Fields:             tableCellStyleFields,
	}}, true
}

// cellClassAttr reads the class attribute off a <td> fragment.
func cellClassAttr(raw string) string {
	if raw == "" {
		return ""
	}
	node, err := parseXMLTree(raw)
	if err != nil {
		return ""
	}
	return node.attr("class")
}

// populateCell emits the ContentGenerator requests that fill one already-
// indexed (possibly just-inserted) cell with its final content.
func (g TableGenerator) populateCell(cell *TableCell, loc Location) ([]Request, error) {
	contentXML := cellChildrenXML(cell)
	if contentXML == "" {
		return nil, nil
	}
	cellStart, _ := cell.Range() // already past the cell marker, see indexCellContent
	contentLoc := Location{TabID: loc.TabID, SegmentID: loc.SegmentID}
	reqs, _, err := g.Content.GenerateAdd(contentXML, cellStart, false, contentLoc)
	return reqs, err
}

// generateColumnWidthUpdates diffs <col width=> by id and emits one
// updateTableColumnProperties per changed column.
func (g TableGenerator) generateColumnWidthUpdates(pristine, current *Table, tableStart int, loc Location) []Request {
	curByID := make(map[string]Column, len(current.Columns))
	for _, c := range current.Columns {
		curByID[c.ColID] = c
	}
	var reqs []Request
	for _, pCol := range pristine.Columns {
		cCol, ok := curByID[pCol.ColID]
		if !ok || cCol.Width == pCol.Width {
			continue
		}
		req := UpdateTableColumnPropertiesRequest{
			TableStartLocation: Location{Index: tableStart, TabID: loc.TabID, SegmentID: loc.SegmentID},
			ColumnIndices:      []int{cCol.Index},
		}
		if cCol.Width == "" {
			req.WidthType = "EVENLY_DISTRIBUTED"
		} else if d, ok := parseDimension(cCol.Width); ok {
			req.WidthType = "FIXED_WIDTH"
			req.WidthMagnitude = d.Magnitude
			req.WidthUnit = d.Unit
		}
		reqs = append(reqs, Request{UpdateTableColumnProperties: &req})
	}
	return reqs
}

// cellChildrenXML concatenates a TableCell's children's raw XML — the
// ContentGenerator input for populating one cell.
func cellChildrenXML(cell *TableCell) string {
	var out string
	for _, child := range cell.Children {
		switch b := child.(type) {
		case *Paragraph:
			out += b.XML
		case *Table:
			out += b.XML
		case *Toc:
			out += b.XML
		}
	}
	return out
}
