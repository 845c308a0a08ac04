package docengine

import "errors"

// Sentinel errors. Callers should use errors.Is to check for these; the
// engine never panics on malformed input, only on programmer errors
// (nil arguments, calling Indexer before Parser, etc).
var (
	// ErrParse reports a fatal XML parse error. The whole pull/diff/push
	// operation aborts; the caller should report the offending fragment
	// location carried in the wrapped error.
	ErrParse = errors.New("parse error")

	// ErrNotIndexed reports that BlockAligner or TreeDiffer was called on
	// a Document that BlockIndexer has not yet processed.
	ErrNotIndexed = errors.New("document not indexed")

	// ErrValidation reports an API validation error surfaced verbatim from
	// the generators — for example, an attempt to delete a table's
	// leading newline. These reflect engine bugs, not user input.
	ErrValidation = errors.New("validation error")

	// ErrTransport reports a fatal error from the Transport collaborator.
	// Earlier batches in a push may already have been applied.
	ErrTransport = errors.New("transport error")
)
