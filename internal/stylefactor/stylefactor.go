// Package stylefactor assigns stable class ids to repeated inline style
// combinations during pull, so pulled documents reference span[class=]
// instead of repeating inline attributes. Table-cell styles get a "cell-"
// prefix so the push side can exclude them from the text-style dictionary.
package stylefactor

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strings"
)

// Valid characters for an XML NCName id attribute. The first character is
// restricted to letters and underscore; the rest also allow digits,
// hyphen, and period.
const (
	firstChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_"
	restChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-."
)

// BaseID is the class id of the empty style (no deviation from the
// document default). Runs with this id carry no span wrapper at all.
const BaseID = "_base"

// Definition is one styles.xml entry: a class id plus its flat attribute
// dict.
type Definition struct {
	ID         string
	Attributes map[string]string
}

// Factorizer accumulates the distinct style combinations seen during one
// pull and renders them as styles.xml. It is not safe for concurrent use;
// a pull owns exactly one.
type Factorizer struct {
	textIDs  map[string]string
	textDefs []Definition
	cellIDs  map[string]string
	cellDefs []Definition
}

// New returns an empty Factorizer.
func New() *Factorizer {
	return &Factorizer{
		textIDs: make(map[string]string),
		cellIDs: make(map[string]string),
	}
}

// TextClass registers a text-style attribute dict and returns its class
// id. Identical dicts always map to the same id, within one pull and
// across pulls (the id is content-derived). An empty dict returns BaseID.
func (f *Factorizer) TextClass(attrs map[string]string) string {
	if len(attrs) == 0 {
		return BaseID
	}

	key := propsKey(attrs)
	if id, ok := f.textIDs[key]; ok {
		return id
	}

	id := StyleID(attrs)
	f.textIDs[key] = id
	f.textDefs = append(f.textDefs, Definition{ID: id, Attributes: cloneAttrs(attrs)})

	return id
}

// CellClass registers a table-cell style dict and returns its "cell-"
// prefixed class id, or "" for an empty dict (default cell style).
func (f *Factorizer) CellClass(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}

	key := propsKey(attrs)
	if id, ok := f.cellIDs[key]; ok {
		return id
	}

	id := "cell-" + StyleID(attrs)
	f.cellIDs[key] = id
	f.cellDefs = append(f.cellDefs, Definition{ID: id, Attributes: cloneAttrs(attrs)})

	return id
}

// StylesXML renders the accumulated classes as a styles.xml document: the
// base style first, then text classes, then cell classes, each a flat
// <style id=... attr=.../> element.
func (f *Factorizer) StylesXML() string {
	var b strings.Builder

	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<styles>\n")
	writeStyle(&b, Definition{ID: BaseID})

	for _, d := range f.textDefs {
		writeStyle(&b, d)
	}

	for _, d := range f.cellDefs {
		writeStyle(&b, d)
	}

	b.WriteString("</styles>\n")

	return b.String()
}

func writeStyle(b *strings.Builder, d Definition) {
	b.WriteString("  <style id=\"")
	b.WriteString(escapeAttr(d.ID))
	b.WriteString("\"")

	keys := make([]string, 0, len(d.Attributes))
	for k := range d.Attributes {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=\"")
		b.WriteString(escapeAttr(d.Attributes[k]))
		b.WriteString("\"")
	}

	b.WriteString("/>\n")
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(s)
}

// StyleID derives a 5-character, XML-id-valid class id from an attribute
// dict. Deterministic (sorted keys) and stable across runs — the same
// style always factorizes to the same id, so re-pulling an unchanged
// document produces a byte-identical styles.xml.
func StyleID(attrs map[string]string) string {
	if len(attrs) == 0 {
		return BaseID
	}

	sum := sha256.Sum256([]byte(propsKey(attrs)))
	num := binary.BigEndian.Uint64(sum[:8])

	out := make([]byte, 0, 5)
	out = append(out, firstChars[num%uint64(len(firstChars))])
	num /= uint64(len(firstChars))

	for i := 0; i < 4; i++ {
		out = append(out, restChars[num%uint64(len(restChars))])
		num /= uint64(len(restChars))
	}

	return string(out)
}

// propsKey is the canonical serialization hashed by StyleID: sorted keys,
// pipe-separated k=v pairs.
func propsKey(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}

	return strings.Join(parts, "|")
}

func cloneAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}

	return out
}
