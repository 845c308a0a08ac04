package docengine

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// xmlNode is a generic parsed element: tag name, attributes, and the exact
// source slice it was read from (including its own start/end tags and
// everything between them). BlockParser builds its typed block tree from
// a tree of these rather than unmarshaling directly into typed structs,
// because several block types (Paragraph, Table, TableCell, FootnoteRef)
// must retain their exact source XML for re-serialization, content
// hashing, and verbatim emission on add/delete.
type xmlNode struct {
	Tag      string
	Attrs    map[string]string
	Raw      string
	Children []*xmlNode

	// DirectText is the concatenation of every character-data token that
	// is a direct child of this element — ElementTree's elem.text plus
	// every child's elem.tail, in one string. Order does not matter to
	// callers; only the total UTF-16 length of this element's own text
	// (as opposed to its descendants') is ever derived from it.
	DirectText string

	startOffset int64
}

func (n *xmlNode) attr(name string) string { return n.Attrs[name] }

func (n *xmlNode) attrOr(name, fallback string) string {
	if v, ok := n.Attrs[name]; ok {
		return v
	}
	return fallback
}

// childrenOf returns n's direct children with the given tag, in order.
func (n *xmlNode) childrenOf(tag string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// firstChild returns n's first direct child with the given tag, or nil.
func (n *xmlNode) firstChild(tag string) *xmlNode {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// parseXMLTree parses src and returns its single root element as an
// xmlNode tree. Each node's Raw field is sliced directly out of src using
// the decoder's byte offsets, rather than re-serialized, so it is
// byte-identical to the source — the Go analogue of ElementTree's
// tostring on a parsed element.
func parseXMLTree(src string) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader([]byte(src)))

	var stack []*xmlNode
	var root *xmlNode

	for {
		startOffset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{
				Tag:         t.Name.Local,
				Attrs:       make(map[string]string, len(t.Attr)),
				startOffset: startOffset,
			}
			for _, a := range t.Attr {
				node.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected closing tag </%s>", ErrParse, t.Name.Local)
			}
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node.Raw = src[node.startOffset:dec.InputOffset()]
			if len(stack) == 0 {
				root = node
			}

		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.DirectText += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}
	return root, nil
}
