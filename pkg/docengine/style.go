package docengine

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension is a magnitude/unit pair, e.g. 6pt. Unit defaults to "PT" when
// the source string carries none (the XML contract always writes one, but
// style class values may omit it for round integers).
type Dimension struct {
	Magnitude float64
	Unit      string
}

// Border is one paragraph or cell border, formatted in the XML contract as
// "width,#color,dashStyle".
type Border struct {
	Width     Dimension
	Color     string
	DashStyle string
}

// ParagraphStyle is the engine's view of a Docs API ParagraphStyle: the
// named style implied by a paragraph's tag, plus whichever of the XML
// contract's override attributes were present on that paragraph.
type ParagraphStyle struct {
	NamedStyleType string // NORMAL_TEXT, HEADING_1..HEADING_6, TITLE, SUBTITLE

	Alignment             string
	LineSpacing           *float64
	SpaceAbove            *Dimension
	SpaceBelow            *Dimension
	IndentStart           *Dimension
	IndentEnd             *Dimension
	IndentFirstLine       *Dimension
	KeepLinesTogether     bool
	KeepWithNext          bool
	AvoidWidowAndOrphan   bool
	Direction             string
	ShadingBackgroundColor string
	BorderTop             *Border
	BorderBottom          *Border
	BorderLeft            *Border
	BorderRight           *Border
}

// TextStyle is the engine's view of a Docs API TextStyle, built from a
// paragraph's inline formatting tags (b/i/u/s) and an optional style-class
// lookup for span[class=...] runs.
type TextStyle struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	// BaselineOffset is SUPERSCRIPT or SUBSCRIPT for sup/sub runs, empty
	// otherwise.
	BaselineOffset  string
	FontFamily      string
	FontSize        *Dimension
	ForegroundColor string
	BackgroundColor string
	LinkURL         string
}

// TableCellStyle is the engine's view of a Docs API TableCellStyle.
type TableCellStyle struct {
	BackgroundColor   string
	ContentAlignment  string // TOP, MIDDLE, BOTTOM
	PaddingTop        *Dimension
	PaddingBottom     *Dimension
	PaddingLeft       *Dimension
	PaddingRight      *Dimension
	BorderTop         *Border
	BorderBottom      *Border
	BorderLeft        *Border
	BorderRight       *Border
}

// Full-reset field masks, used whenever a paragraph or run is (re)created
// from scratch: every field the engine ever sets is listed so the server
// clears whatever a prior Added/reused paragraph happened to inherit.
const (
	ParagraphStyleResetFields = "namedStyleType,alignment,lineSpacing,spaceAbove,spaceBelow," +
		"indentStart,indentEnd,indentFirstLine,keepLinesTogether,keepWithNext," +
		"avoidWidowAndOrphan,direction,shading,borderTop,borderBottom,borderLeft,borderRight"
	TextStyleResetFields = "bold,italic,underline,strikethrough,baselineOffset," +
		"weightedFontFamily,fontSize,foregroundColor,backgroundColor,link"
)

// bulletPresets is the authoritative li[type=] -> createParagraphBullets
// bulletPreset mapping.
var bulletPresets = map[string]string{
	"bullet":   "BULLET_DISC_CIRCLE_SQUARE",
	"decimal":  "NUMBERED_DECIMAL_NESTED",
	"alpha":    "NUMBERED_UPPERCASE_ALPHA",
	"roman":    "NUMBERED_UPPERCASE_ROMAN",
	"checkbox": "BULLET_CHECKBOX",
}

// BulletPreset resolves an li[type=] value to its createParagraphBullets
// preset name. ok is false for an unrecognized (or missing) type.
func BulletPreset(listType string) (preset string, ok bool) {
	preset, ok = bulletPresets[listType]
	return preset, ok
}

var headingNamedStyles = map[string]string{
	"h1": "HEADING_1", "h2": "HEADING_2", "h3": "HEADING_3",
	"h4": "HEADING_4", "h5": "HEADING_5", "h6": "HEADING_6",
	"title": "TITLE", "subtitle": "SUBTITLE",
}

// NamedStyleForTag maps a paragraph tag to its Docs API namedStyleType.
// "p" and "li" (which carries no heading semantics of its own) both fall
// back to NORMAL_TEXT.
func NamedStyleForTag(tag string) string {
	if ns, ok := headingNamedStyles[tag]; ok {
		return ns
	}
	return "NORMAL_TEXT"
}

// paragraphOverrideAttrs is the XML contract's exhaustive set of
// paragraph-level override attributes (spec §6).
var paragraphOverrideAttrs = []string{
	"align", "lineSpacing", "spaceAbove", "spaceBelow", "indentLeft", "indentRight",
	"indentFirst", "keepTogether", "keepNext", "avoidWidow", "direction", "bgColor",
	"borderTop", "borderBottom", "borderLeft", "borderRight",
}

// ParseParagraphOverrides reads a paragraph element's override attributes
// and returns the resulting ParagraphStyle plus the updateMask field list
// naming only the fields actually set (namedStyleType is always included).
func ParseParagraphOverrides(tag string, attrs map[string]string) (ParagraphStyle, string) {
	style := ParagraphStyle{NamedStyleType: NamedStyleForTag(tag)}
	fields := []string{"namedStyleType"}

	if v, ok := attrs["align"]; ok {
		style.Alignment = v
		fields = append(fields, "alignment")
	}
	if v, ok := attrs["lineSpacing"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			style.LineSpacing = &f
			fields = append(fields, "lineSpacing")
		}
	}
	if v, ok := attrs["spaceAbove"]; ok {
		if d, ok := parseDimension(v); ok {
			style.SpaceAbove = &d
			fields = append(fields, "spaceAbove")
		}
	}
	if v, ok := attrs["spaceBelow"]; ok {
		if d, ok := parseDimension(v); ok {
			style.SpaceBelow = &d
			fields = append(fields, "spaceBelow")
		}
	}
	if v, ok := attrs["indentLeft"]; ok {
		if d, ok := parseDimension(v); ok {
			style.IndentStart = &d
			fields = append(fields, "indentStart")
		}
	}
	if v, ok := attrs["indentRight"]; ok {
		if d, ok := parseDimension(v); ok {
			style.IndentEnd = &d
			fields = append(fields, "indentEnd")
		}
	}
	if v, ok := attrs["indentFirst"]; ok {
		if d, ok := parseDimension(v); ok {
			style.IndentFirstLine = &d
			fields = append(fields, "indentFirstLine")
		}
	}
	if v, ok := attrs["keepTogether"]; ok && v == "1" {
		style.KeepLinesTogether = true
		fields = append(fields, "keepLinesTogether")
	}
	if v, ok := attrs["keepNext"]; ok && v == "1" {
		style.KeepWithNext = true
		fields = append(fields, "keepWithNext")
	}
	if v, ok := attrs["avoidWidow"]; ok && v == "1" {
		style.AvoidWidowAndOrphan = true
		fields = append(fields, "avoidWidowAndOrphan")
	}
	if v, ok := attrs["direction"]; ok {
		style.Direction = v
		fields = append(fields, "direction")
	}
	if v, ok := attrs["bgColor"]; ok {
		style.ShadingBackgroundColor = v
		fields = append(fields, "shading")
	}
	if v, ok := attrs["borderTop"]; ok {
		if b, ok := parseBorder(v); ok {
			style.BorderTop = &b
			fields = append(fields, "borderTop")
		}
	}
	if v, ok := attrs["borderBottom"]; ok {
		if b, ok := parseBorder(v); ok {
			style.BorderBottom = &b
			fields = append(fields, "borderBottom")
		}
	}
	if v, ok := attrs["borderLeft"]; ok {
		if b, ok := parseBorder(v); ok {
			style.BorderLeft = &b
			fields = append(fields, "borderLeft")
		}
	}
	if v, ok := attrs["borderRight"]; ok {
		if b, ok := parseBorder(v); ok {
			style.BorderRight = &b
			fields = append(fields, "borderRight")
		}
	}

	return style, strings.Join(fields, ",")
}

func parseDimension(s string) (Dimension, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dimension{}, false
	}
	unit := "PT"
	numeric := s
	for _, u := range []string{"pt", "in", "cm", "mm", "pc"} {
		if strings.HasSuffix(s, u) {
			unit = strings.ToUpper(u)
			numeric = strings.TrimSuffix(s, u)
			break
		}
	}
	mag, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return Dimension{}, false
	}
	return Dimension{Magnitude: mag, Unit: unit}, true
}

// parseBorder parses the XML contract's "width,#color,dashStyle" format.
func parseBorder(s string) (Border, bool) {
	parts := strings.Split(s, ",")
	if len(parts) == 0 {
		return Border{}, false
	}
	width, ok := parseDimension(parts[0])
	if !ok {
		return Border{}, false
	}
	b := Border{Width: width, DashStyle: "SOLID"}
	if len(parts) > 1 && strings.HasPrefix(parts[1], "#") {
		b.Color = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		b.DashStyle = parts[2]
	}
	return b, true
}

// StyleClass is one entry of styles.xml — a flat attribute dict keyed by a
// class id, as produced by the pull side's style factorizer.
type StyleClass struct {
	ID         string
	Attributes map[string]string
}

// StyleCatalog is a parsed styles.xml: the id -> attribute-dict map, split
// into text-style classes and cell-style classes ("cell-" prefixed ids are
// excluded from the text-style dictionary per spec §6).
type StyleCatalog struct {
	textClasses map[string]StyleClass
	cellClasses map[string]StyleClass
}

// ParseStyleCatalog parses a styles.xml document.
func ParseStyleCatalog(xmlContent string) (*StyleCatalog, error) {
	root, err := parseXMLTree(xmlContent)
	if err != nil {
		return nil, fmt.Errorf("%w: styles.xml: %v", ErrParse, err)
	}
	cat := &StyleCatalog{
		textClasses: make(map[string]StyleClass),
		cellClasses: make(map[string]StyleClass),
	}
	for _, n := range root.childrenOf("style") {
		id := n.attr("id")
		if id == "" {
			continue
		}
		attrs := make(map[string]string, len(n.Attrs)-1)
		for k, v := range n.Attrs {
			if k != "id" {
				attrs[k] = v
			}
		}
		class := StyleClass{ID: id, Attributes: attrs}
		if strings.HasPrefix(id, "cell-") {
			cat.cellClasses[id] = class
		} else {
			cat.textClasses[id] = class
		}
	}
	return cat, nil
}

// TextStyleFor resolves a span[class=] id to a TextStyle. ok is false for
// "_base" (no deviation from the document default) or an unknown id.
func (c *StyleCatalog) TextStyleFor(classID string) (TextStyle, bool) {
	class, ok := c.textClasses[classID]
	if !ok || classID == "_base" {
		return TextStyle{}, false
	}
	return textStyleFromAttrs(class.Attributes), true
}

// CellStyleFor resolves a table cell's class id to a TableCellStyle.
func (c *StyleCatalog) CellStyleFor(classID string) (TableCellStyle, bool) {
	class, ok := c.cellClasses[classID]
	if !ok {
		return TableCellStyle{}, false
	}
	return cellStyleFromAttrs(class.Attributes), true
}

func textStyleFromAttrs(attrs map[string]string) TextStyle {
	var ts TextStyle
	ts.FontFamily = attrs["font"]
	if v, ok := attrs["size"]; ok {
		if d, ok := parseDimension(v); ok {
			ts.FontSize = &d
		}
	}
	ts.ForegroundColor = attrs["color"]
	ts.BackgroundColor = attrs["bg"]
	ts.Bold = attrs["bold"] == "1"
	ts.Italic = attrs["italic"] == "1"
	ts.Underline = attrs["underline"] == "1"
	ts.Strikethrough = attrs["strikethrough"] == "1"
	return ts
}

func cellStyleFromAttrs(attrs map[string]string) TableCellStyle {
	var cs TableCellStyle
	cs.BackgroundColor = attrs["bg"]
	switch attrs["valign"] {
	case "top":
		cs.ContentAlignment = "TOP"
	case "middle":
		cs.ContentAlignment = "MIDDLE"
	case "bottom":
		cs.ContentAlignment = "BOTTOM"
	}
	if v, ok := attrs["paddingTop"]; ok {
		if d, ok := parseDimension(v); ok {
			cs.PaddingTop = &d
		}
	}
	if v, ok := attrs["paddingBottom"]; ok {
		if d, ok := parseDimension(v); ok {
			cs.PaddingBottom = &d
		}
	}
	if v, ok := attrs["paddingLeft"]; ok {
		if d, ok := parseDimension(v); ok {
			cs.PaddingLeft = &d
		}
	}
	if v, ok := attrs["paddingRight"]; ok {
		if d, ok := parseDimension(v); ok {
			cs.PaddingRight = &d
		}
	}
	if v, ok := attrs["borderTop"]; ok {
		if b, ok := parseBorder(v); ok {
			cs.BorderTop = &b
		}
	}
	if v, ok := attrs["borderBottom"]; ok {
		if b, ok := parseBorder(v); ok {
			cs.BorderBottom = &b
		}
	}
	if v, ok := attrs["borderLeft"]; ok {
		if b, ok := parseBorder(v); ok {
			cs.BorderLeft = &b
		}
	}
	if v, ok := attrs["borderRight"]; ok {
		if b, ok := parseBorder(v); ok {
			cs.BorderRight = &b
		}
	}
	return cs
}
