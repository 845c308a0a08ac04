package docengine

import (
	"context"
	"fmt"
)

// Transport is the collaborator PushOrchestrator suspends on. It is the
// single point in the whole package that talks to a real document backend;
// everything upstream of it (parser, indexer, aligner, differ, walker) is
// pure and synchronous. pkg/docengine never imports
// google.golang.org/api/docs/v1 directly — internal/transport is the sole
// boundary that translates this engine-local Request/BatchUpdateResult
// pair to and from the wire docspb types.
type Transport interface {
	BatchUpdate(ctx context.Context, docID string, requests []Request) (BatchUpdateResult, error)
}

// BatchUpdateResult carries one Reply per request in the batch, positional
// against the request slice passed to BatchUpdate — the same convention
// the real API uses between its Requests and Replies fields.
type BatchUpdateResult struct {
	Replies []Reply
}

// Reply is one batchUpdate reply entry. At most one field is populated,
// matching whichever request produced it: AddDocumentTab sets TabID,
// CreateHeader sets HeaderID, CreateFooter sets FooterID, CreateFootnote
// sets FootnoteID. Every other request kind has no reply payload.
type Reply struct {
	TabID      string
	HeaderID   string
	FooterID   string
	FootnoteID string
}

// PushResult summarizes one Push invocation. ChangesApplied counts
// requests that were part of a batch Transport.BatchUpdate returned
// successfully for, including batches before a later failure — push is
// not atomic across batches, so a caller can tell how much landed.
type PushResult struct {
	Success        bool
	DocumentID     string
	ChangesApplied int
	Message        string
}

// PushOrchestrator walks a ChangeNode tree into a flat request list and
// executes it against a Transport in up to four dependent steps,
// resolving server-assigned ids between them. It is the only component in
// the package that suspends: every Transport.BatchUpdate call is a
// cooperative suspension point, and nothing else here blocks. Batches run
// strictly in sequence; a caller that wants to cancel a push may only do
// so between them (ctx is checked at each step boundary, never mid-batch).
//
// A single Push call moves through the following states, in order,
// skipping any state whose batch would be empty:
//
//  1. submitTabs            - addDocumentTab requests only. Captures the
//     real tabId assigned to each synthetic tab id the differ invented.
//  2. submitHeaderFooters   - createHeader/createFooter requests, with
//     step 1's tab ids already substituted in. Captures the real
//     headerId/footerId assigned to each synthetic segment id.
//  3. submitMainBatch       - every remaining request except footnote
//     body content, with steps 1-2's ids substituted in. Captures the
//     real footnoteId assigned to each placeholder footnote id, and sets
//     aside the footnote content requests for step 4.
//  4. submitFootnoteContent - for each footnote created in step 3: one
//     deleteContentRange(0,1) to remove the server's default empty
//     paragraph, followed by that footnote's own content requests with
//     their segment id substituted.
//
// A failure at any step short-circuits the remaining steps; PushResult
// reflects whatever was applied before the failure.
type PushOrchestrator struct {
	Walker    RequestWalker
	Transport Transport
}

// Push resolves root (the output of Align+Diff) into requests and submits
// them to Transport, in the batch sequence documented on PushOrchestrator.
func (o PushOrchestrator) Push(ctx context.Context, docID string, root *ChangeNode) (PushResult, error) {
	if ctx == nil {
		return PushResult{}, fmt.Errorf("push: context is nil")
	}
	if o.Transport == nil {
		return PushResult{}, fmt.Errorf("push: transport is nil")
	}

	requests, err := o.Walker.Walk(root)
	if err != nil {
		return PushResult{DocumentID: docID, Message: err.Error()}, fmt.Errorf("push: walk: %w", err)
	}
	if len(requests) == 0 {
		return PushResult{Success: true, DocumentID: docID, Message: "no changes"}, nil
	}

	applied := 0

	tabIDs, n, err := o.submitTabs(ctx, docID, requests)
	applied += n
	if err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, err
	}
	requests = rewriteTabIDs(requests, tabIDs)

	if err := ctx.Err(); err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, fmt.Errorf("push: %w", err)
	}

	hfIDs, n, err := o.submitHeaderFooters(ctx, docID, requests)
	applied += n
	if err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, err
	}
	requests = rewriteSegmentIDs(requests, hfIDs)

	if err := ctx.Err(); err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, fmt.Errorf("push: %w", err)
	}

	footnoteIDs, footnoteContent, n, err := o.submitMainBatch(ctx, docID, requests)
	applied += n
	if err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, err
	}

	if err := ctx.Err(); err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, fmt.Errorf("push: %w", err)
	}

	n, err = o.submitFootnoteContent(ctx, docID, footnoteContent, footnoteIDs)
	applied += n
	if err != nil {
		return PushResult{DocumentID: docID, ChangesApplied: applied, Message: err.Error()}, err
	}

	return PushResult{Success: true, DocumentID: docID, ChangesApplied: applied}, nil
}

// submitTabs is push state submitTabs.
func (o PushOrchestrator) submitTabs(ctx context.Context, docID string, requests []Request) (map[string]string, int, error) {
	var batch []Request
	for _, r := range requests {
		if r.AddDocumentTab != nil {
			batch = append(batch, r)
		}
	}
	if len(batch) == 0 {
		return nil, 0, nil
	}

	resp, err := o.Transport.BatchUpdate(ctx, docID, batch)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: submit tabs: %v", ErrTransport, err)
	}

	ids := make(map[string]string, len(batch))
	for i, r := range batch {
		if i >= len(resp.Replies) || resp.Replies[i].TabID == "" {
			continue
		}
		ids[r.AddDocumentTab.SyntheticTabID] = resp.Replies[i].TabID
	}
	return ids, len(batch), nil
}

// submitHeaderFooters is push state submitHeaderFooters.
func (o PushOrchestrator) submitHeaderFooters(ctx context.Context, docID string, requests []Request) (map[string]string, int, error) {
	var batch []Request
	for _, r := range requests {
		if r.CreateHeader != nil || r.CreateFooter != nil {
			batch = append(batch, r)
		}
	}
	if len(batch) == 0 {
		return nil, 0, nil
	}

	resp, err := o.Transport.BatchUpdate(ctx, docID, stripPlaceholders(batch))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: submit headers/footers: %v", ErrTransport, err)
	}

	ids := make(map[string]string, len(batch))
	for i, r := range batch {
		if i >= len(resp.Replies) {
			continue
		}
		switch {
		case r.CreateHeader != nil && r.CreateHeader.PlaceholderSegmentID != "" && resp.Replies[i].HeaderID != "":
			ids[r.CreateHeader.PlaceholderSegmentID] = resp.Replies[i].HeaderID
		case r.CreateFooter != nil && r.CreateFooter.PlaceholderSegmentID != "" && resp.Replies[i].FooterID != "":
			ids[r.CreateFooter.PlaceholderSegmentID] = resp.Replies[i].FooterID
		}
	}
	return ids, len(batch), nil
}

// submitMainBatch is push state submitMainBatch. It also splits off the
// footnote content requests (identified by their scope's segment id
// matching a CreateFootnote's placeholder in this same request list) so
// Push can hand them to submitFootnoteContent once their real footnote
// ids are known.
func (o PushOrchestrator) submitMainBatch(ctx context.Context, docID string, requests []Request) (footnoteIDs map[string]string, footnoteContent []Request, applied int, err error) {
	footnotePlaceholders := make(map[string]bool)
	for _, r := range requests {
		if r.CreateFootnote != nil && r.PlaceholderFootnoteID != "" {
			footnotePlaceholders[r.PlaceholderFootnoteID] = true
		}
	}

	var batch []Request
	for _, r := range requests {
		if r.AddDocumentTab != nil || r.CreateHeader != nil || r.CreateFooter != nil {
			continue // already submitted
		}
		if _, segID := requestScope(r); footnotePlaceholders[segID] {
			footnoteContent = append(footnoteContent, r)
			continue
		}
		batch = append(batch, r)
	}
	if len(batch) == 0 {
		return nil, footnoteContent, 0, nil
	}

	resp, err := o.Transport.BatchUpdate(ctx, docID, stripPlaceholders(batch))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: submit main batch: %v", ErrTransport, err)
	}

	footnoteIDs = make(map[string]string)
	for i, r := range batch {
		if i < len(resp.Replies) && r.CreateFootnote != nil && r.PlaceholderFootnoteID != "" {
			footnoteIDs[r.PlaceholderFootnoteID] = resp.Replies[i].FootnoteID
		}
	}
	return footnoteIDs, footnoteContent, len(batch), nil
}

// submitFootnoteContent is push state submitFootnoteContent. Every
// footnote created in submitMainBatch gets a deleteContentRange(0,1)
// ahead of its own content, whether or not that footnote actually has
// content requests — the server always seeds a new footnote with one
// empty paragraph that has to go.
func (o PushOrchestrator) submitFootnoteContent(ctx context.Context, docID string, content []Request, footnoteIDs map[string]string) (int, error) {
	if len(footnoteIDs) == 0 {
		return 0, nil
	}

	rewritten := rewriteSegmentIDs(content, footnoteIDs)

	var order []string
	seen := make(map[string]bool, len(footnoteIDs))
	for _, r := range content {
		if _, segID := requestScope(r); !seen[segID] {
			seen[segID] = true
			order = append(order, segID)
		}
	}
	for placeholder := range footnoteIDs {
		if !seen[placeholder] {
			seen[placeholder] = true
			order = append(order, placeholder)
		}
	}

	var final []Request
	for _, placeholder := range order {
		real, ok := footnoteIDs[placeholder]
		if !ok || real == "" {
			continue
		}

		tabID := ""
		for _, r := range rewritten {
			if t, segID := requestScope(r); segID == real {
				tabID = t
				break
			}
		}

		final = append(final, Request{DeleteContentRange: &DeleteContentRangeRequest{
			Range: RangeRef{Start: 0, End: 1, TabID: tabID, SegmentID: real},
		}})
		for _, r := range rewritten {
			if _, segID := requestScope(r); segID == real {
				final = append(final, r)
			}
		}
	}
	if len(final) == 0 {
		return 0, nil
	}

	if _, err := o.Transport.BatchUpdate(ctx, docID, final); err != nil {
		return 0, fmt.Errorf("%w: submit footnote content: %v", ErrTransport, err)
	}
	return len(final), nil
}

// stripPlaceholders clears the bookkeeping fields a Transport should never
// see: PlaceholderFootnoteID and CreateHeader/CreateFooter's
// PlaceholderSegmentID. It copies rather than mutates so callers can still
// read those fields off the original slice once the batch returns.
func stripPlaceholders(requests []Request) []Request {
	out := make([]Request, len(requests))
	for i, r := range requests {
		r.PlaceholderFootnoteID = ""
		if r.CreateHeader != nil {
			cp := *r.CreateHeader
			cp.PlaceholderSegmentID = ""
			r.CreateHeader = &cp
		}
		if r.CreateFooter != nil {
			cp := *r.CreateFooter
			cp.PlaceholderSegmentID = ""
			r.CreateFooter = &cp
		}
		out[i] = r
	}
	return out
}

// requestScope returns the (tabID, segmentID) a request addresses, so
// PushOrchestrator can classify and rewrite requests without a type
// switch at every call site. Requests with no natural segment (tab and
// header/footer lifecycle ops) return an empty segmentID.
func requestScope(r Request) (tabID, segmentID string) {
	switch {
	case r.InsertText != nil:
		return r.InsertText.Location.TabID, r.InsertText.Location.SegmentID
	case r.DeleteContentRange != nil:
		return r.DeleteContentRange.Range.TabID, r.DeleteContentRange.Range.SegmentID
	case r.UpdateTextStyle != nil:
		return r.UpdateTextStyle.Range.TabID, r.UpdateTextStyle.Range.SegmentID
	case r.UpdateParagraphStyle != nil:
		return r.UpdateParagraphStyle.Range.TabID, r.UpdateParagraphStyle.Range.SegmentID
	case r.CreateParagraphBullets != nil:
		return r.CreateParagraphBullets.Range.TabID, r.CreateParagraphBullets.Range.SegmentID
	case r.DeleteParagraphBullets != nil:
		return r.DeleteParagraphBullets.Range.TabID, r.DeleteParagraphBullets.Range.SegmentID
	case r.InsertPageBreak != nil:
		return r.InsertPageBreak.Location.TabID, r.InsertPageBreak.Location.SegmentID
	case r.InsertSectionBreak != nil:
		return r.InsertSectionBreak.Location.TabID, r.InsertSectionBreak.Location.SegmentID
	case r.CreateFootnote != nil:
		return r.CreateFootnote.Location.TabID, r.CreateFootnote.Location.SegmentID
	case r.CreateHeader != nil:
		return r.CreateHeader.TabID, ""
	case r.CreateFooter != nil:
		return r.CreateFooter.TabID, ""
	case r.DeleteHeader != nil:
		return r.DeleteHeader.TabID, r.DeleteHeader.HeaderID
	case r.DeleteFooter != nil:
		return r.DeleteFooter.TabID, r.DeleteFooter.FooterID
	case r.AddDocumentTab != nil:
		return r.AddDocumentTab.SyntheticTabID, ""
	case r.DeleteTab != nil:
		return r.DeleteTab.TabID, ""
	case r.UpdateDocumentTabProperties != nil:
		return r.UpdateDocumentTabProperties.TabID, ""
	case r.InsertTable != nil:
		return r.InsertTable.Location.TabID, r.InsertTable.Location.SegmentID
	case r.DeleteTableRow != nil:
		return r.DeleteTableRow.TableStartLocation.TabID, r.DeleteTableRow.TableStartLocation.SegmentID
	case r.InsertTableRow != nil:
		return r.InsertTableRow.TableStartLocation.TabID, r.InsertTableRow.TableStartLocation.SegmentID
	case r.DeleteTableColumn != nil:
		return r.DeleteTableColumn.TableStartLocation.TabID, r.DeleteTableColumn.TableStartLocation.SegmentID
	case r.InsertTableColumn != nil:
		return r.InsertTableColumn.TableStartLocation.TabID, r.InsertTableColumn.TableStartLocation.SegmentID
	case r.UpdateTableColumnProperties != nil:
		return r.UpdateTableColumnProperties.TableStartLocation.TabID, r.UpdateTableColumnProperties.TableStartLocation.SegmentID
	case r.UpdateTableCellStyle != nil:
		return r.UpdateTableCellStyle.TableStartLocation.TabID, r.UpdateTableCellStyle.TableStartLocation.SegmentID
	default:
		return "", ""
	}
}

// rewriteTabIDs returns a copy of requests with every TabID-bearing field
// rewritten through ids, wherever a request's current tab id is a key in
// ids. Requests whose tab id isn't in ids pass through unchanged.
func rewriteTabIDs(requests []Request, ids map[string]string) []Request {
	if len(ids) == 0 {
		return requests
	}
	rewrite := func(tabID string) string {
		if real, ok := ids[tabID]; ok {
			return real
		}
		return tabID
	}

	out := make([]Request, len(requests))
	for i, r := range requests {
		switch {
		case r.InsertText != nil:
			cp := *r.InsertText
			cp.Location.TabID = rewrite(cp.Location.TabID)
			r.InsertText = &cp
		case r.DeleteContentRange != nil:
			cp := *r.DeleteContentRange
			cp.Range.TabID = rewrite(cp.Range.TabID)
			r.DeleteContentRange = &cp
		case r.UpdateTextStyle != nil:
			cp := *r.UpdateTextStyle
			cp.Range.TabID = rewrite(cp.Range.TabID)
			r.UpdateTextStyle = &cp
		case r.UpdateParagraphStyle != nil:
			cp := *r.UpdateParagraphStyle
			cp.Range.TabID = rewrite(cp.Range.TabID)
			r.UpdateParagraphStyle = &cp
		case r.CreateParagraphBullets != nil:
			cp := *r.CreateParagraphBullets
			cp.Range.TabID = rewrite(cp.Range.TabID)
			r.CreateParagraphBullets = &cp
		case r.DeleteParagraphBullets != nil:
			cp := *r.DeleteParagraphBullets
			cp.Range.TabID = rewrite(cp.Range.TabID)
			r.DeleteParagraphBullets = &cp
		case r.InsertPageBreak != nil:
			cp := *r.InsertPageBreak
			cp.Location.TabID = rewrite(cp.Location.TabID)
			r.InsertPageBreak = &cp
		case r.InsertSectionBreak != nil:
			cp := *r.InsertSectionBreak
			cp.Location.TabID = rewrite(cp.Location.TabID)
			r.InsertSectionBreak = &cp
		case r.CreateFootnote != nil:
			cp := *r.CreateFootnote
			cp.Location.TabID = rewrite(cp.Location.TabID)
			r.CreateFootnote = &cp
		case r.CreateHeader != nil:
			cp := *r.CreateHeader
			cp.TabID = rewrite(cp.TabID)
			r.CreateHeader = &cp
		case r.CreateFooter != nil:
			cp := *r.CreateFooter
			cp.TabID = rewrite(cp.TabID)
			r.CreateFooter = &cp
		case r.DeleteHeader != nil:
			cp := *r.DeleteHeader
			cp.TabID = rewrite(cp.TabID)
			r.DeleteHeader = &cp
		case r.DeleteFooter != nil:
			cp := *r.DeleteFooter
			cp.TabID = rewrite(cp.TabID)
			r.DeleteFooter = &cp
		case r.DeleteTab != nil:
			cp := *r.DeleteTab
			cp.TabID = rewrite(cp.TabID)
			r.DeleteTab = &cp
		case r.UpdateDocumentTabProperties != nil:
			cp := *r.UpdateDocumentTabProperties
			cp.TabID = rewrite(cp.TabID)
			r.UpdateDocumentTabProperties = &cp
		case r.InsertTable != nil:
			cp := *r.InsertTable
			cp.Location.TabID = rewrite(cp.Location.TabID)
			r.InsertTable = &cp
		case r.DeleteTableRow != nil:
			cp := *r.DeleteTableRow
			cp.TableStartLocation.TabID = rewrite(cp.TableStartLocation.TabID)
			r.DeleteTableRow = &cp
		case r.InsertTableRow != nil:
			cp := *r.InsertTableRow
			cp.TableStartLocation.TabID = rewrite(cp.TableStartLocation.TabID)
			r.InsertTableRow = &cp
		case r.DeleteTableColumn != nil:
			cp := *r.DeleteTableColumn
			cp.TableStartLocation.TabID = rewrite(cp.TableStartLocation.TabID)
			r.DeleteTableColumn = &cp
		case r.InsertTableColumn != nil:
			cp := *r.InsertTableColumn
			cp.TableStartLocation.TabID = rewrite(cp.TableStartLocation.TabID)
			r.InsertTableColumn = &cp
		case r.UpdateTableColumnProperties != nil:
			cp := *r.UpdateTableColumnProperties
			cp.TableStartLocation.TabID = rewrite(cp.TableStartLocation.TabID)
			r.UpdateTableColumnProperties = &cp
		case r.UpdateTableCellStyle != nil:
			cp := *r.UpdateTableCellStyle
			cp.TableStartLocation.TabID = rewrite(cp.TableStartLocation.TabID)
			r.UpdateTableCellStyle = &cp
		}
		out[i] = r
	}
	return out
}

// rewriteSegmentIDs returns a copy of requests with every SegmentID-bearing
// field rewritten through ids. Used both for header/footer placeholder ids
// (after submitHeaderFooters) and footnote placeholder ids (after
// submitMainBatch) — the two cases where a segment only gets its real id
// partway through a push.
func rewriteSegmentIDs(requests []Request, ids map[string]string) []Request {
	if len(ids) == 0 {
		return requests
	}
	rewrite := func(segID string) string {
		if real, ok := ids[segID]; ok {
			return real
		}
		return segID
	}

	out := make([]Request, len(requests))
	for i, r := range requests {
		switch {
		case r.InsertText != nil:
			cp := *r.InsertText
			cp.Location.SegmentID = rewrite(cp.Location.SegmentID)
			r.InsertText = &cp
		case r.DeleteContentRange != nil:
			cp := *r.DeleteContentRange
			cp.Range.SegmentID = rewrite(cp.Range.SegmentID)
			r.DeleteContentRange = &cp
		case r.UpdateTextStyle != nil:
			cp := *r.UpdateTextStyle
			cp.Range.SegmentID = rewrite(cp.Range.SegmentID)
			r.UpdateTextStyle = &cp
		case r.UpdateParagraphStyle != nil:
			cp := *r.UpdateParagraphStyle
			cp.Range.SegmentID = rewrite(cp.Range.SegmentID)
			r.UpdateParagraphStyle = &cp
		case r.CreateParagraphBullets != nil:
			cp := *r.CreateParagraphBullets
			cp.Range.SegmentID = rewrite(cp.Range.SegmentID)
			r.CreateParagraphBullets = &cp
		case r.DeleteParagraphBullets != nil:
			cp := *r.DeleteParagraphBullets
			cp.Range.SegmentID = rewrite(cp.Range.SegmentID)
			r.DeleteParagraphBullets = &cp
		case r.InsertPageBreak != nil:
			cp := *r.InsertPageBreak
			cp.Location.SegmentID = rewrite(cp.Location.SegmentID)
			r.InsertPageBreak = &cp
		case r.InsertSectionBreak != nil:
			cp := *r.InsertSectionBreak
			cp.Location.SegmentID = rewrite(cp.Location.SegmentID)
			r.InsertSectionBreak = &cp
		case r.CreateFootnote != nil:
			cp := *r.CreateFootnote
			cp.Location.SegmentID = rewrite(cp.Location.SegmentID)
			r.CreateFootnote = &cp
		case r.InsertTable != nil:
			cp := *r.InsertTable
			cp.Location.SegmentID = rewrite(cp.Location.SegmentID)
			r.InsertTable = &cp
		case r.DeleteTableRow != nil:
			cp := *r.DeleteTableRow
			cp.TableStartLocation.SegmentID = rewrite(cp.TableStartLocation.SegmentID)
			r.DeleteTableRow = &cp
		case r.InsertTableRow != nil:
			cp := *r.InsertTableRow
			cp.TableStartLocation.SegmentID = rewrite(cp.TableStartLocation.SegmentID)
			r.InsertTableRow = &cp
		case r.DeleteTableColumn != nil:
			cp := *r.DeleteTableColumn
			cp.TableStartLocation.SegmentID = rewrite(cp.TableStartLocation.SegmentID)
			r.DeleteTableColumn = &cp
		case r.InsertTableColumn != nil:
			cp := *r.InsertTableColumn
			cp.TableStartLocation.SegmentID = rewrite(cp.TableStartLocation.SegmentID)
			r.InsertTableColumn = &cp
		case r.UpdateTableColumnProperties != nil:
			cp := *r.UpdateTableColumnProperties
			cp.TableStartLocation.SegmentID = rewrite(cp.TableStartLocation.SegmentID)
			r.UpdateTableColumnProperties = &cp
		case r.UpdateTableCellStyle != nil:
			cp := *r.UpdateTableCellStyle
			cp.TableStartLocation.SegmentID = rewrite(cp.TableStartLocation.SegmentID)
			r.UpdateTableCellStyle = &cp
		}
		out[i] = r
	}
	return out
}
