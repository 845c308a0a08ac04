package docengine

import (
	"sort"
	"strings"
)

// ContentGenerator turns one CONTENT_BLOCK ChangeNode into the Requests
// that reproduce it server-side. It needs a StyleCatalog to resolve
// span[class=] runs to concrete TextStyle values; a nil catalog is
// equivalent to an empty one (every class lookup misses).
type ContentGenerator struct {
	Styles *StyleCatalog
}

// GenerateDelete emits the single deleteContentRange for a deleted or
// modified content block, after the two clamps spec §4.5 requires: never
// delete a segment's terminal newline, and never delete the newline
// immediately preceding a non-deleted table or TOC.
func (g ContentGenerator) GenerateDelete(pristineStart, pristineEnd, segmentEnd int, beforeStructuralElement bool, loc Location) []Request {
	end := pristineEnd
	if end >= segmentEnd {
		end = segmentEnd - 1
	}
	if beforeStructuralElement && end == pristineEnd {
		end = pristineEnd - 1
	}
	if pristineStart >= end {
		return nil
	}
	return []Request{{
		DeleteContentRange: &DeleteContentRangeRequest{
			Range: RangeRef{Start: pristineStart, End: end, TabID: loc.TabID, SegmentID: loc.SegmentID},
		},
	}}
}

// GenerateAdd emits the ordered request sequence for inserting afterXML's
// content at insertIndex. stripTrailingNewline drops the final paragraph's
// trailing "\n" from the inserted text — the walker sets this when the
// insertion point already sits at a segment end or an added table supplies
// its own mandatory leading newline, so the real document gets only one
// newline where the naive render would produce two.
//
// It returns the requests plus the number of index units the insertion
// actually consumes in the real document (needed by the walker/orchestrator
// to keep its own running index correct).
func (g ContentGenerator) GenerateAdd(afterXML string, insertIndex int, stripTrailingNewline bool, loc Location) ([]Request, int, error) {
	pc, err := parseContentXML(afterXML)
	if err != nil {
		return nil, 0, err
	}
	if pc.PlainText == "" && len(pc.Paragraphs) == 0 {
		return nil, 0, nil
	}

	if stripTrailingNewline && strings.HasSuffix(pc.PlainText, "\n") {
		pc.PlainText = pc.PlainText[:len(pc.PlainText)-1]
		if n := len(pc.Paragraphs); n > 0 {
			pc.Paragraphs[n-1].End--
		}
	}

	var reqs []Request

	rng := func(start, end int) RangeRef {
		return RangeRef{Start: insertIndex + start, End: insertIndex + end, TabID: loc.TabID, SegmentID: loc.SegmentID}
	}
	locAt := func(offset int) Location {
		return Location{Index: insertIndex + offset, TabID: loc.TabID, SegmentID: loc.SegmentID}
	}

	// 1. insertText
	if pc.PlainText != "" {
		reqs = append(reqs, Request{InsertText: &InsertTextRequest{
			Location: locAt(0), Text: pc.PlainText,
		}})

		// 2. reset formatting on the inserted text
		reqs = append(reqs, Request{UpdateTextStyle: &UpdateTextStyleRequest{
			Range:  rng(0, utf16Len(pc.PlainText)),
			Style:  TextStyle{},
			Fields: "bold,italic,underline,strikethrough,baselineOffset",
		}})
	}

	// page-break-only and inline-footnote offsets feed the shift tables for
	// every style/bullet range computed below.
	var pageBreakOffsets, footnoteOffsets []int
	for _, p := range pc.Paragraphs {
		if p.PageBreakOnly {
			pageBreakOffsets = append(pageBreakOffsets, p.Start)
		}
	}
	for _, f := range pc.Footnotes {
		footnoteOffsets = append(footnoteOffsets, f.Offset)
	}
	shift := func(at int, inclusive bool) int {
		s := 0
		for _, o := range pageBreakOffsets {
			if (inclusive && o <= at) || (!inclusive && o < at) {
				s += 2
			}
		}
		for _, o := range footnoteOffsets {
			if (inclusive && o <= at) || (!inclusive && o < at) {
				s += 1
			}
		}
		return s
	}

	// 3. page/section breaks, highest offset first
	var pageBreaks, colBreaks []specialElement
	for _, s := range pc.Specials {
		switch s.Tag {
		case "pagebreak":
			pageBreaks = append(pageBreaks, s)
		case "columnbreak":
			colBreaks = append(colBreaks, s)
		}
	}
	sortSpecialsDesc(pageBreaks)
	for _, s := range pageBreaks {
		reqs = append(reqs, Request{InsertPageBreak: &InsertPageBreakRequest{Location: locAt(s.Offset)}})
	}
	sortSpecialsDesc(colBreaks)
	for _, s := range colBreaks {
		reqs = append(reqs, Request{InsertSectionBreak: &InsertSectionBreakRequest{Location: locAt(s.Offset), SectionType: "CONTINUOUS"}})
	}

	// 4. footnotes, highest offset first. Each createFootnote is followed
	// by the requests that populate its body, addressed to the footnote's
	// own independent segment (PushOrchestrator resolves the placeholder
	// id to the real one returned by createFootnote before sending these).
	footnotes := append([]footnoteInsert(nil), pc.Footnotes...)
	sort.Slice(footnotes, func(i, j int) bool { return footnotes[i].Offset > footnotes[j].Offset })
	for _, f := range footnotes {
		reqs = append(reqs, Request{
			CreateFootnote:        &CreateFootnoteRequest{Location: locAt(f.Offset)},
			PlaceholderFootnoteID: f.FootnoteID,
		})
		if f.BodyXML != "" {
			bodyReqs, _, err := g.GenerateAdd(f.BodyXML, 0, false, Location{TabID: loc.TabID, SegmentID: f.FootnoteID})
			if err != nil {
				return nil, 0, err
			}
			reqs = append(reqs, bodyReqs...)
		}
	}

	// 5. paragraph styles: one combined reset+override updateParagraphStyle
	// per paragraph (page-break-only paragraphs get only the reset, via an
	// empty override set — ParseParagraphOverrides always returns the
	// named-style reset regardless of whether any override attr is set).
	for _, p := range pc.Paragraphs {
		style, fields := ParseParagraphOverrides(p.Tag, p.Attrs)
		start := p.Start + shift(p.Start, true)
		end := p.End + shift(p.End, false)
		reqs = append(reqs, Request{UpdateParagraphStyle: &UpdateParagraphStyleRequest{
			Range:  rng(start, end),
			Style:  style,
			Fields: fields,
		}})
	}

	// 6. bullets: merge contiguous same-preset runs, deleteParagraphBullets
	// elsewhere.
	type bulletRun struct {
		start, end int
		preset     string
	}
	var runs []bulletRun
	for _, p := range pc.Paragraphs {
		if p.BulletType == "" {
			continue
		}
		preset, ok := BulletPreset(p.BulletType)
		if !ok {
			continue
		}
		start := p.Start + shift(p.Start, true)
		end := p.End + shift(p.End, false)
		if n := len(runs); n > 0 && runs[n-1].preset == preset && runs[n-1].end == start {
			runs[n-1].end = end
		} else {
			runs = append(runs, bulletRun{start: start, end: end, preset: preset})
		}
	}
	for _, r := range runs {
		reqs = append(reqs, Request{CreateParagraphBullets: &CreateParagraphBulletsRequest{
			Range: rng(r.start, r.end), Preset: r.preset,
		}})
	}
	for _, p := range pc.Paragraphs {
		if p.BulletType != "" || p.PageBreakOnly {
			continue
		}
		start := p.Start + shift(p.Start, true)
		end := p.End + shift(p.End, false)
		reqs = append(reqs, Request{DeleteParagraphBullets: &DeleteParagraphBulletsRequest{Range: rng(start, end)}})
	}

	// 7. text styles, one updateTextStyle per run
	for _, run := range pc.Runs {
		style := g.resolveRunStyle(run.Style)
		start := run.Start + shift(run.Start, true)
		end := run.End + shift(run.End, false)
		reqs = append(reqs, Request{UpdateTextStyle: &UpdateTextStyleRequest{
			Range:  rng(start, end),
			Style:  style,
			Fields: textStyleFields(run.Style),
		}})
	}

	consumed := utf16Len(pc.PlainText) + 2*len(pageBreakOffsets) + len(footnoteOffsets)
	return reqs, consumed, nil
}

func sortSpecialsDesc(s []specialElement) {
	sort.Slice(s, func(i, j int) bool { return s[i].Offset > s[j].Offset })
}

func (g ContentGenerator) resolveRunStyle(rs runStyle) TextStyle {
	var ts TextStyle
	if rs.classID != "" && g.Styles != nil {
		if resolved, ok := g.Styles.TextStyleFor(rs.classID); ok {
			ts = resolved
		}
	}
	if rs.bold {
		ts.Bold = true
	}
	if rs.italic {
		ts.Italic = true
	}
	if rs.underline {
		ts.Underline = true
	}
	if rs.strikethrough {
		ts.Strikethrough = true
	}
	if rs.superscript {
		ts.BaselineOffset = "SUPERSCRIPT"
	}
	if rs.subscript {
		ts.BaselineOffset = "SUBSCRIPT"
	}
	if rs.linkURL != "" {
		ts.LinkURL = rs.linkURL
	}
	return ts
}

func textStyleFields(rs runStyle) string {
	var fields []string
	if rs.bold {
		fields = append(fields, "bold")
	}
	if rs.italic {
		fields = append(fields, "italic")
	}
	if rs.underline {
		fields = append(fields, "underline")
	}
	if rs.strikethrough {
		fields = append(fields, "strikethrough")
	}
	if rs.superscript || rs.subscript {
		fields = append(fields, "baselineOffset")
	}
	if rs.linkURL != "" {
		fields = append(fields, "link")
	}
	if rs.classID != "" {
		fields = append(fields, "weightedFontFamily", "fontSize", "foregroundColor", "backgroundColor")
	}
	if len(fields) == 0 {
		return ""
	}
	out := fields[0]
	for _, f := range fields[1:] {
		out += "," + f
	}
	return out
}
