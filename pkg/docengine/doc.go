// Package docengine implements the Google Docs reconciliation pipeline:
// turning a pair of structured documents (pristine vs. edited) into a
// minimally correct, order-sensitive sequence of batchUpdate mutation
// requests against an index-based remote document model.
//
// The pipeline is a strict dependency chain, leaves first:
//
//	BlockParser   -- lifts semantic XML into a typed block tree
//	BlockIndexer  -- assigns UTF-16 start/end indexes in place
//	BlockAligner  -- matches pristine and current blocks
//	TreeDiffer    -- builds a ChangeNode tree from an aligned pair of trees
//	RequestWalker -- walks the change tree backwards into a flat request list
//	PushOrchestrator -- executes the request list in up to three dependent
//	                    batches, resolving server-assigned ids between them
//
// Every exported type in this package is a plain value or a tree of plain
// values: there is no shared mutable state and no global configuration.
// Parsing, indexing, aligning, and diffing are synchronous, pure
// functions over owned trees. Only PushOrchestrator suspends, and only at
// calls into a Transport.
//
// This package has no knowledge of HTTP, OAuth, or the local file layout
// pulled documents are stored in — see internal/transport, internal/xmlio,
// and internal/xmlconv for those concerns.
package docengine
