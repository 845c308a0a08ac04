package transport

import (
	"fmt"
	"strconv"
	"strings"

	docspb "google.golang.org/api/docs/v1"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

// toWire translates one engine request to its docspb form. Index and range
// fields always force-send: header/footer/footnote segments start at index
// 0, which the JSON encoder would otherwise drop as a zero value.
func toWire(r docengine.Request) (*docspb.Request, error) {
	switch {
	case r.InsertText != nil:
		return &docspb.Request{InsertText: &docspb.InsertTextRequest{
			Location: wireLocation(r.InsertText.Location),
			Text:     r.InsertText.Text,
		}}, nil

	case r.DeleteContentRange != nil:
		return &docspb.Request{DeleteContentRange: &docspb.DeleteContentRangeRequest{
			Range: wireRange(r.DeleteContentRange.Range),
		}}, nil

	case r.UpdateTextStyle != nil:
		return &docspb.Request{UpdateTextStyle: &docspb.UpdateTextStyleRequest{
			Range:     wireRange(r.UpdateTextStyle.Range),
			TextStyle: wireTextStyle(r.UpdateTextStyle.Style),
			Fields:    r.UpdateTextStyle.Fields,
		}}, nil

	case r.UpdateParagraphStyle != nil:
		return &docspb.Request{UpdateParagraphStyle: &docspb.UpdateParagraphStyleRequest{
			Range:          wireRange(r.UpdateParagraphStyle.Range),
			ParagraphStyle: wireParagraphStyle(r.UpdateParagraphStyle.Style),
			Fields:         r.UpdateParagraphStyle.Fields,
		}}, nil

	case r.CreateParagraphBullets != nil:
		return &docspb.Request{CreateParagraphBullets: &docspb.CreateParagraphBulletsRequest{
			Range:        wireRange(r.CreateParagraphBullets.Range),
			BulletPreset: r.CreateParagraphBullets.Preset,
		}}, nil

	case r.DeleteParagraphBullets != nil:
		return &docspb.Request{DeleteParagraphBullets: &docspb.DeleteParagraphBulletsRequest{
			Range: wireRange(r.DeleteParagraphBullets.Range),
		}}, nil

	case r.InsertPageBreak != nil:
		return &docspb.Request{InsertPageBreak: &docspb.InsertPageBreakRequest{
			Location: wireLocation(r.InsertPageBreak.Location),
		}}, nil

	case r.InsertSectionBreak != nil:
		return &docspb.Request{InsertSectionBreak: &docspb.InsertSectionBreakRequest{
			Location:    wireLocation(r.InsertSectionBreak.Location),
			SectionType: r.InsertSectionBreak.SectionType,
		}}, nil

	case r.CreateFootnote != nil:
		return &docspb.Request{CreateFootnote: &docspb.CreateFootnoteRequest{
			Location: wireLocation(r.CreateFootnote.Location),
		}}, nil

	case r.CreateHeader != nil:
		return &docspb.Request{CreateHeader: &docspb.CreateHeaderRequest{
			Type:                 r.CreateHeader.Type,
			SectionBreakLocation: headerSectionBreakLocation(r.CreateHeader.TabID),
		}}, nil

	case r.CreateFooter != nil:
		return &docspb.Request{CreateFooter: &docspb.CreateFooterRequest{
			Type:                 r.CreateFooter.Type,
			SectionBreakLocation: headerSectionBreakLocation(r.CreateFooter.TabID),
		}}, nil

	case r.DeleteHeader != nil:
		return &docspb.Request{DeleteHeader: &docspb.DeleteHeaderRequest{
			HeaderId: r.DeleteHeader.HeaderID,
		}}, nil

	case r.DeleteFooter != nil:
		return &docspb.Request{DeleteFooter: &docspb.DeleteFooterRequest{
			FooterId: r.DeleteFooter.FooterID,
		}}, nil

	case r.AddDocumentTab != nil:
		return nil, fmt.Errorf("%w: addDocumentTab", ErrUnsupportedRequest)

	case r.DeleteTab != nil:
		return nil, fmt.Errorf("%w: deleteTab", ErrUnsupportedRequest)

	case r.UpdateDocumentTabProperties != nil:
		return nil, fmt.Errorf("%w: updateDocumentTabProperties", ErrUnsupportedRequest)

	case r.InsertTable != nil:
		return &docspb.Request{InsertTable: &docspb.InsertTableRequest{
			Location: wireLocation(r.InsertTable.Location),
			Rows:     int64(r.InsertTable.Rows),
			Columns:  int64(r.InsertTable.Columns),
		}}, nil

	case r.DeleteTableRow != nil:
		return &docspb.Request{DeleteTableRow: &docspb.DeleteTableRowRequest{
			TableCellLocation: wireCellLocation(r.DeleteTableRow.TableStartLocation, r.DeleteTableRow.RowIndex, 0),
		}}, nil

	case r.InsertTableRow != nil:
		return &docspb.Request{InsertTableRow: &docspb.InsertTableRowRequest{
			TableCellLocation: wireCellLocation(r.InsertTableRow.TableStartLocation, r.InsertTableRow.RowIndex, 0),
			InsertBelow:       r.InsertTableRow.InsertBelow,
		}}, nil

	case r.DeleteTableColumn != nil:
		return &docspb.Request{DeleteTableColumn: &docspb.DeleteTableColumnRequest{
			TableCellLocation: wireCellLocation(r.DeleteTableColumn.TableStartLocation, 0, r.DeleteTableColumn.ColumnIndex),
		}}, nil

	case r.InsertTableColumn != nil:
		return &docspb.Request{InsertTableColumn: &docspb.InsertTableColumnRequest{
			TableCellLocation: wireCellLocation(r.InsertTableColumn.TableStartLocation, 0, r.InsertTableColumn.ColumnIndex),
			InsertRight:       r.InsertTableColumn.InsertRight,
		}}, nil

	case r.UpdateTableColumnProperties != nil:
		req := &docspb.UpdateTableColumnPropertiesRequest{
			TableStartLocation: wireLocation(r.UpdateTableColumnProperties.TableStartLocation),
			TableColumnProperties: &docspb.TableColumnProperties{
				WidthType: r.UpdateTableColumnProperties.WidthType,
			},
			Fields: "widthType,width",
		}
		for _, ci := range r.UpdateTableColumnProperties.ColumnIndices {
			req.ColumnIndices = append(req.ColumnIndices, int64(ci))
		}
		if r.UpdateTableColumnProperties.WidthType == "FIXED_WIDTH" {
			req.TableColumnProperties.Width = &docspb.Dimension{
				Magnitude: r.UpdateTableColumnProperties.WidthMagnitude,
				Unit:      r.UpdateTableColumnProperties.WidthUnit,
			}
		}
		return &docspb.Request{UpdateTableColumnProperties: req}, nil

	case r.UpdateTableCellStyle != nil:
		return &docspb.Request{UpdateTableCellStyle: &docspb.UpdateTableCellStyleRequest{
			TableRange: &docspb.TableRange{
				TableCellLocation: wireCellLocation(
					r.UpdateTableCellStyle.TableStartLocation,
					r.UpdateTableCellStyle.RowIndex,
					r.UpdateTableCellStyle.ColIndex,
				),
				RowSpan:    1,
				ColumnSpan: 1,
			},
			TableCellStyle: wireTableCellStyle(r.UpdateTableCellStyle.Style),
			Fields:         r.UpdateTableCellStyle.Fields,
		}}, nil

	default:
		return nil, fmt.Errorf("%w: empty request", ErrUnsupportedRequest)
	}
}

func wireLocation(l docengine.Location) *docspb.Location {
	return &docspb.Location{
		Index:           int64(l.Index),
		SegmentId:       l.SegmentID,
		TabId:           l.TabID,
		ForceSendFields: []string{"Index"},
	}
}

func wireRange(r docengine.RangeRef) *docspb.Range {
	return &docspb.Range{
		StartIndex:      int64(r.Start),
		EndIndex:        int64(r.End),
		SegmentId:       r.SegmentID,
		TabId:           r.TabID,
		ForceSendFields: []string{"StartIndex", "EndIndex"},
	}
}

func wireCellLocation(tableStart docengine.Location, row, col int) *docspb.TableCellLocation {
	return &docspb.TableCellLocation{
		TableStartLocation: wireLocation(tableStart),
		RowIndex:           int64(row),
		ColumnIndex:        int64(col),
		ForceSendFields:    []string{"RowIndex", "ColumnIndex"},
	}
}

// headerSectionBreakLocation anchors a createHeader/createFooter to a tab.
// Index 0 is the document's initial section break; an empty tab id means
// the singular (untabbed) document and no location is needed at all.
func headerSectionBreakLocation(tabID string) *docspb.Location {
	if tabID == "" {
		return nil
	}

	return &docspb.Location{
		Index:           0,
		TabId:           tabID,
		ForceSendFields: []string{"Index"},
	}
}

func wireTextStyle(s docengine.TextStyle) *docspb.TextStyle {
	ts := &docspb.TextStyle{
		Bold:           s.Bold,
		Italic:         s.Italic,
		Underline:      s.Underline,
		Strikethrough:  s.Strikethrough,
		BaselineOffset: s.BaselineOffset,
	}

	if s.FontFamily != "" {
		ts.WeightedFontFamily = &docspb.WeightedFontFamily{FontFamily: s.FontFamily}
	}

	if s.FontSize != nil {
		ts.FontSize = wireDimension(*s.FontSize)
	}

	if c := wireOptionalColor(s.ForegroundColor); c != nil {
		ts.ForegroundColor = c
	}

	if c := wireOptionalColor(s.BackgroundColor); c != nil {
		ts.BackgroundColor = c
	}

	if s.LinkURL != "" {
		ts.Link = &docspb.Link{Url: s.LinkURL}
	}

	return ts
}

func wireParagraphStyle(s docengine.ParagraphStyle) *docspb.ParagraphStyle {
	ps := &docspb.ParagraphStyle{
		NamedStyleType:      s.NamedStyleType,
		Alignment:           s.Alignment,
		KeepLinesTogether:   s.KeepLinesTogether,
		KeepWithNext:        s.KeepWithNext,
		AvoidWidowAndOrphan: s.AvoidWidowAndOrphan,
		Direction:           s.Direction,
	}

	if s.LineSpacing != nil {
		ps.LineSpacing = *s.LineSpacing
	}

	if s.SpaceAbove != nil {
		ps.SpaceAbove = wireDimension(*s.SpaceAbove)
	}

	if s.SpaceBelow != nil {
		ps.SpaceBelow = wireDimension(*s.SpaceBelow)
	}

	if s.IndentStart != nil {
		ps.IndentStart = wireDimension(*s.IndentStart)
	}

	if s.IndentEnd != nil {
		ps.IndentEnd = wireDimension(*s.IndentEnd)
	}

	if s.IndentFirstLine != nil {
		ps.IndentFirstLine = wireDimension(*s.IndentFirstLine)
	}

	if c := wireOptionalColor(s.ShadingBackgroundColor); c != nil {
		ps.Shading = &docspb.Shading{BackgroundColor: c}
	}

	ps.BorderTop = wireParagraphBorder(s.BorderTop)
	ps.BorderBottom = wireParagraphBorder(s.BorderBottom)
	ps.BorderLeft = wireParagraphBorder(s.BorderLeft)
	ps.BorderRight = wireParagraphBorder(s.BorderRight)

	return ps
}

func wireTableCellStyle(s docengine.TableCellStyle) *docspb.TableCellStyle {
	cs := &docspb.TableCellStyle{
		ContentAlignment: s.ContentAlignment,
	}

	if c := wireOptionalColor(s.BackgroundColor); c != nil {
		cs.BackgroundColor = c
	}

	if s.PaddingTop != nil {
		cs.PaddingTop = wireDimension(*s.PaddingTop)
	}

	if s.PaddingBottom != nil {
		cs.PaddingBottom = wireDimension(*s.PaddingBottom)
	}

	if s.PaddingLeft != nil {
		cs.PaddingLeft = wireDimension(*s.PaddingLeft)
	}

	if s.PaddingRight != nil {
		cs.PaddingRight = wireDimension(*s.PaddingRight)
	}

	cs.BorderTop = wireCellBorder(s.BorderTop)
	cs.BorderBottom = wireCellBorder(s.BorderBottom)
	cs.BorderLeft = wireCellBorder(s.BorderLeft)
	cs.BorderRight = wireCellBorder(s.BorderRight)

	return cs
}

func wireParagraphBorder(b *docengine.Border) *docspb.ParagraphBorder {
	if b == nil {
		return nil
	}

	return &docspb.ParagraphBorder{
		Width:     wireDimension(b.Width),
		DashStyle: b.DashStyle,
		Color:     wireOptionalColor(b.Color),
		Padding:   &docspb.Dimension{Magnitude: 1, Unit: "PT"},
	}
}

func wireCellBorder(b *docengine.Border) *docspb.TableCellBorder {
	if b == nil {
		return nil
	}

	return &docspb.TableCellBorder{
		Width:     wireDimension(b.Width),
		DashStyle: b.DashStyle,
		Color:     wireOptionalColor(b.Color),
	}
}

func wireDimension(d docengine.Dimension) *docspb.Dimension {
	return &docspb.Dimension{Magnitude: d.Magnitude, Unit: d.Unit}
}

// wireOptionalColor parses "#rrggbb" into the API's normalized RGB form.
// Unparseable or empty values translate to nil (field left unset).
func wireOptionalColor(hex string) *docspb.OptionalColor {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return nil
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil
	}

	return &docspb.OptionalColor{Color: &docspb.Color{RgbColor: &docspb.RgbColor{
		Red:   float64(v>>16&0xff) / 255,
		Green: float64(v>>8&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
		ForceSendFields: []string{"Red", "Green", "Blue"},
	}}}
}
