package docengine

import "regexp"

var (
	commentRefOpen  = regexp.MustCompile(`<comment-ref[^>]*>`)
	commentRefClose = regexp.MustCompile(`</comment-ref>`)
)

// stripCommentRefs removes <comment-ref ...> markers from xml. Comment
// references are transparent to indexing and to content equality: they
// carry no text of their own and their presence or absence must never by
// itself cause a paragraph to be classified as modified.
func stripCommentRefs(xml string) string {
	xml = commentRefOpen.ReplaceAllString(xml, "")
	xml = commentRefClose.ReplaceAllString(xml, "")
	return xml
}
