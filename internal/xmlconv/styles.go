package xmlconv

import (
	"crypto/sha256"
	"fmt"
	"strings"

	docspb "google.golang.org/api/docs/v1"
)

// paraProps is the authoritative paragraph-property -> XML-attribute
// mapping, in emission order. Values are extracted as strings so defaults
// comparison and attribute emission share one representation.
var paraProps = []struct {
	name    string
	extract func(*docspb.ParagraphStyle) string
}{
	{"align", func(ps *docspb.ParagraphStyle) string { return ps.Alignment }},
	{"lineSpacing", func(ps *docspb.ParagraphStyle) string {
		if ps.LineSpacing == 0 {
			return ""
		}
		return fmt.Sprintf("%g", ps.LineSpacing)
	}},
	{"spaceAbove", func(ps *docspb.ParagraphStyle) string { return dimensionString(ps.SpaceAbove) }},
	{"spaceBelow", func(ps *docspb.ParagraphStyle) string { return dimensionString(ps.SpaceBelow) }},
	{"indentLeft", func(ps *docspb.ParagraphStyle) string { return dimensionString(ps.IndentStart) }},
	{"indentRight", func(ps *docspb.ParagraphStyle) string { return dimensionString(ps.IndentEnd) }},
	{"indentFirst", func(ps *docspb.ParagraphStyle) string { return dimensionString(ps.IndentFirstLine) }},
	{"keepTogether", func(ps *docspb.ParagraphStyle) string { return boolString(ps.KeepLinesTogether) }},
	{"keepNext", func(ps *docspb.ParagraphStyle) string { return boolString(ps.KeepWithNext) }},
	{"avoidWidow", func(ps *docspb.ParagraphStyle) string { return boolString(ps.AvoidWidowAndOrphan) }},
	{"direction", func(ps *docspb.ParagraphStyle) string {
		// LEFT_TO_RIGHT is the document default and never worth an attribute.
		if ps.Direction == "" || ps.Direction == "LEFT_TO_RIGHT" {
			return ""
		}
		return ps.Direction
	}},
	{"bgColor", func(ps *docspb.ParagraphStyle) string {
		if ps.Shading == nil {
			return ""
		}
		return colorString(ps.Shading.BackgroundColor)
	}},
	{"borderTop", func(ps *docspb.ParagraphStyle) string { return paragraphBorderString(ps.BorderTop) }},
	{"borderBottom", func(ps *docspb.ParagraphStyle) string { return paragraphBorderString(ps.BorderBottom) }},
	{"borderLeft", func(ps *docspb.ParagraphStyle) string { return paragraphBorderString(ps.BorderLeft) }},
	{"borderRight", func(ps *docspb.ParagraphStyle) string { return paragraphBorderString(ps.BorderRight) }},
}

// paragraphOverrideAttrs renders the attribute string for the properties
// that differ from the paragraph's named-style defaults, keeping the XML
// free of redundant attributes (and the next push's override pass minimal).
func (c *converter) paragraphOverrideAttrs(ps *docspb.ParagraphStyle, named string) string {
	if ps == nil {
		return ""
	}

	defaults := c.namedStyleDefaults[named]

	var b strings.Builder

	for _, prop := range paraProps {
		v := prop.extract(ps)
		if v == "" || defaults[prop.name] == v {
			continue
		}

		fmt.Fprintf(&b, " %s=\"%s\"", prop.name, escape(v))
	}

	return b.String()
}

// namedStyleParagraphDefaults extracts each named style's paragraph
// properties from the document (or its first tab), so per-paragraph
// override detection can subtract them.
func namedStyleParagraphDefaults(doc *docspb.Document) map[string]map[string]string {
	styles := doc.NamedStyles

	if styles == nil && len(doc.Tabs) > 0 && doc.Tabs[0].DocumentTab != nil {
		styles = doc.Tabs[0].DocumentTab.NamedStyles
	}

	out := make(map[string]map[string]string)

	if styles == nil {
		return out
	}

	for _, s := range styles.Styles {
		if s == nil || s.NamedStyleType == "" || s.ParagraphStyle == nil {
			continue
		}

		props := make(map[string]string)

		for _, prop := range paraProps {
			if v := prop.extract(s.ParagraphStyle); v != "" {
				props[prop.name] = v
			}
		}

		out[s.NamedStyleType] = props
	}

	return out
}

// textStyleAttrs extracts the factorizable text-style attributes (the ones
// inline b/i/u/s tags cannot express alone go into a class; the boolean
// ones ride along so one class fully describes a run).
func textStyleAttrs(ts *docspb.TextStyle) map[string]string {
	attrs := make(map[string]string)

	if ts.WeightedFontFamily != nil && ts.WeightedFontFamily.FontFamily != "" {
		attrs["font"] = ts.WeightedFontFamily.FontFamily
	}

	if ts.FontSize != nil && ts.FontSize.Magnitude > 0 {
		attrs["size"] = fmt.Sprintf("%g%s", ts.FontSize.Magnitude, strings.ToLower(orDefault(ts.FontSize.Unit, "pt")))
	}

	if c := colorString(ts.ForegroundColor); c != "" {
		attrs["color"] = c
	}

	if c := colorString(ts.BackgroundColor); c != "" {
		attrs["bg"] = c
	}

	return attrs
}

// cellStyleAttrs extracts a cell's factorizable style attributes, using
// the same attribute vocabulary the engine's StyleCatalog parses back.
func cellStyleAttrs(cs *docspb.TableCellStyle) map[string]string {
	attrs := make(map[string]string)

	if c := colorString(cs.BackgroundColor); c != "" {
		attrs["bg"] = c
	}

	switch cs.ContentAlignment {
	case "TOP":
		attrs["valign"] = "top"
	case "MIDDLE":
		attrs["valign"] = "middle"
	case "BOTTOM":
		attrs["valign"] = "bottom"
	}

	if v := dimensionString(cs.PaddingTop); v != "" {
		attrs["paddingTop"] = v
	}

	if v := dimensionString(cs.PaddingBottom); v != "" {
		attrs["paddingBottom"] = v
	}

	if v := dimensionString(cs.PaddingLeft); v != "" {
		attrs["paddingLeft"] = v
	}

	if v := dimensionString(cs.PaddingRight); v != "" {
		attrs["paddingRight"] = v
	}

	if v := cellBorderString(cs.BorderTop); v != "" {
		attrs["borderTop"] = v
	}

	if v := cellBorderString(cs.BorderBottom); v != "" {
		attrs["borderBottom"] = v
	}

	if v := cellBorderString(cs.BorderLeft); v != "" {
		attrs["borderLeft"] = v
	}

	if v := cellBorderString(cs.BorderRight); v != "" {
		attrs["borderRight"] = v
	}

	return attrs
}

func dimensionString(d *docspb.Dimension) string {
	if d == nil || d.Magnitude == 0 {
		return ""
	}

	return fmt.Sprintf("%g%s", d.Magnitude, strings.ToLower(orDefault(d.Unit, "pt")))
}

func boolString(b bool) string {
	if !b {
		return ""
	}

	return "1"
}

// colorString renders an OptionalColor as "#rrggbb", or "" when unset.
func colorString(c *docspb.OptionalColor) string {
	if c == nil || c.Color == nil || c.Color.RgbColor == nil {
		return ""
	}

	rgb := c.Color.RgbColor

	return fmt.Sprintf("#%02x%02x%02x",
		int(rgb.Red*255+0.5), int(rgb.Green*255+0.5), int(rgb.Blue*255+0.5))
}

// paragraphBorderString renders a border as the XML contract's
// "width,#color,dashStyle". Zero-width borders collapse to "".
func paragraphBorderString(b *docspb.ParagraphBorder) string {
	if b == nil || b.Width == nil || b.Width.Magnitude == 0 {
		return ""
	}

	return borderString(b.Width.Magnitude, colorString(b.Color), b.DashStyle)
}

func cellBorderString(b *docspb.TableCellBorder) string {
	if b == nil || b.Width == nil || b.Width.Magnitude == 0 {
		return ""
	}

	return borderString(b.Width.Magnitude, colorString(b.Color), b.DashStyle)
}

func borderString(width float64, color, dash string) string {
	if color == "" {
		color = "#000000"
	}

	if dash == "" {
		dash = "SOLID"
	}

	return fmt.Sprintf("%g,%s,%s", width, color, dash)
}

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// contentHashID derives a short, stable id from content: the first five
// bytes of its SHA-256, base62-encoded. Unchanged content keeps its id
// across pulls, which is what lets the aligner's hash pass match rows and
// cells without positional guessing.
func contentHashID(content string) string {
	sum := sha256.Sum256([]byte(content))

	var num uint64
	for _, b := range sum[:5] {
		num = num<<8 | uint64(b)
	}

	var out []byte
	for num > 0 {
		out = append(out, base62Chars[num%62])
		num /= 62
	}

	for len(out) < 4 {
		out = append(out, '0')
	}

	// Reverse into big-endian digit order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

// escape escapes text for XML. Google Docs represents a column break as
// U+000B inside text content; it becomes the contract's <columnbreak/>
// element. Other control characters are stripped.
func escape(text string) string {
	var b strings.Builder

	for _, r := range text {
		switch {
		case r == '\x0b':
			b.WriteString("<columnbreak/>")
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '"':
			b.WriteString("&quot;")
		case r == '\t' || r == '\n' || r == '\r' || (r >= 0x20 && r != 0x7f):
			b.WriteRune(r)
		}
	}

	return b.String()
}
