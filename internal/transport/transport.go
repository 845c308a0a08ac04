// Package transport binds the engine's abstract Transport contract to the
// real Google Docs API (google.golang.org/api/docs/v1). It is the only
// package that translates the engine-local docengine.Request/Reply pair to
// and from the wire docspb types, and the only one that touches HTTP or
// OAuth credentials.
package transport

import (
	"context"
	"errors"
	"fmt"

	docspb "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/calvinalkan/docsync/pkg/docengine"
)

// ErrUnsupportedRequest is returned when a request kind cannot be expressed
// against this backend. Tab lifecycle requests (addDocumentTab, deleteTab,
// updateDocumentTabProperties) are the engine's own extension and the
// public Docs API exposes no RPC for them.
var ErrUnsupportedRequest = errors.New("request not supported by backend")

// API is the full surface internal/docs needs from a document backend: the
// engine's own Transport (batch mutation) plus the read side a pull needs.
type API interface {
	docengine.Transport
	Get(ctx context.Context, docID string) (*docspb.Document, error)
}

// Google implements API against the Docs v1 service.
type Google struct {
	svc *docspb.Service
}

// NewGoogle builds a Google transport from an option set — typically
// option.WithTokenSource(ts) with ts from Credentials.TokenSource, or option.WithHTTPClient
// in tests.
func NewGoogle(ctx context.Context, opts ...option.ClientOption) (*Google, error) {
	svc, err := docspb.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docs service: %w", err)
	}

	return &Google{svc: svc}, nil
}

// Get fetches the document in its JSON form, including all tabs.
func (g *Google) Get(ctx context.Context, docID string) (*docspb.Document, error) {
	doc, err := g.svc.Documents.Get(docID).IncludeTabsContent(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", docengine.ErrTransport, docID, err)
	}

	return doc, nil
}

// BatchUpdate translates the engine's requests to wire form, submits them
// as one batchUpdate call, and translates the replies back. Request order
// is preserved exactly — the engine's backwards-walk correctness depends
// on the server applying them in the order given.
func (g *Google) BatchUpdate(ctx context.Context, docID string, requests []docengine.Request) (docengine.BatchUpdateResult, error) {
	wire := make([]*docspb.Request, 0, len(requests))

	for i, r := range requests {
		wr, err := toWire(r)
		if err != nil {
			return docengine.BatchUpdateResult{}, fmt.Errorf("request %d: %w", i, err)
		}

		wire = append(wire, wr)
	}

	resp, err := g.svc.Documents.BatchUpdate(docID, &docspb.BatchUpdateDocumentRequest{
		Requests: wire,
	}).Context(ctx).Do()
	if err != nil {
		return docengine.BatchUpdateResult{}, fmt.Errorf("%w: batchUpdate %s: %v", docengine.ErrTransport, docID, err)
	}

	return fromWireReplies(resp), nil
}

// fromWireReplies maps the positional reply list back to the engine's
// Reply shape, keeping only the fields PushOrchestrator reads.
func fromWireReplies(resp *docspb.BatchUpdateDocumentResponse) docengine.BatchUpdateResult {
	if resp == nil {
		return docengine.BatchUpdateResult{}
	}

	out := docengine.BatchUpdateResult{Replies: make([]docengine.Reply, len(resp.Replies))}

	for i, rep := range resp.Replies {
		if rep == nil {
			continue
		}

		var r docengine.Reply

		if rep.CreateHeader != nil {
			r.HeaderID = rep.CreateHeader.HeaderId
		}

		if rep.CreateFooter != nil {
			r.FooterID = rep.CreateFooter.FooterId
		}

		if rep.CreateFootnote != nil {
			r.FootnoteID = rep.CreateFootnote.FootnoteId
		}

		out.Replies[i] = r
	}

	return out
}
