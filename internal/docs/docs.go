// Package docs wires the reconciliation engine to its collaborators: the
// transport (Google Docs API), the local file layout, the pull-side XML
// conversion, and the document registry. The CLI commands are thin
// wrappers over this package's Pull/Diff/Push.
package docs

import (
	"context"
	"fmt"
	"time"

	"github.com/calvinalkan/docsync/internal/docstore"
	"github.com/calvinalkan/docsync/internal/transport"
	"github.com/calvinalkan/docsync/internal/xmlconv"
	"github.com/calvinalkan/docsync/internal/xmlio"
	"github.com/calvinalkan/docsync/pkg/docengine"
)

// Service composes one document workflow. Transport may be nil for
// local-only operations (Diff).
type Service struct {
	Transport transport.API
	Layout    *xmlio.Layout
	Registry  *docstore.Store

	// Now returns the current time; tests pin it. Nil means time.Now.
	Now func() time.Time
}

// PullResult summarizes one pull.
type PullResult struct {
	DocID    string
	Title    string
	Revision string
	TabCount int
	Dir      string
}

// Pull fetches the document, converts it to semantic XML, writes the
// editable files plus the pristine snapshot, and records the document in
// the registry. Pull is idempotent: it always re-derives everything from
// a fresh Transport.Get, so re-running an interrupted pull is safe.
func (s *Service) Pull(ctx context.Context, docID, dir string) (PullResult, error) {
	if s.Transport == nil {
		return PullResult{}, fmt.Errorf("pull: no transport configured")
	}

	remote, err := s.Transport.Get(ctx, docID)
	if err != nil {
		return PullResult{}, fmt.Errorf("pull: %w", err)
	}

	converted, err := xmlconv.Convert(remote)
	if err != nil {
		return PullResult{}, fmt.Errorf("pull: convert: %w", err)
	}

	if err := s.Layout.WriteDocument(dir, converted.DocumentXML, converted.StylesXML); err != nil {
		return PullResult{}, fmt.Errorf("pull: %w", err)
	}

	if err := s.Layout.WritePristine(dir, converted.DocumentXML, converted.StylesXML); err != nil {
		return PullResult{}, fmt.Errorf("pull: %w", err)
	}

	if s.Registry != nil {
		rec := docstore.Record{
			DocID:    docID,
			Title:    converted.Title,
			Revision: converted.Revision,
			TabCount: converted.TabCount,
			LocalDir: dir,
			PulledAt: s.now(),
		}
		if err := s.Registry.Put(rec); err != nil {
			return PullResult{}, fmt.Errorf("pull: %w", err)
		}
	}

	return PullResult{
		DocID:    docID,
		Title:    converted.Title,
		Revision: converted.Revision,
		TabCount: converted.TabCount,
		Dir:      dir,
	}, nil
}

// DiffResult is the engine's view of a local folder's pending edits.
type DiffResult struct {
	DocID    string
	Requests []docengine.Request
	// Root is the change tree the requests were derived from, for callers
	// that want to re-walk or inspect it (push).
	Root *docengine.ChangeNode

	// catalog is the style catalog the requests were resolved against;
	// Push re-walks with the same one.
	catalog *docengine.StyleCatalog
}

// Diff reads the pristine snapshot and the edited files from dir and runs
// the pipeline up to the request walker. It never talks to a transport.
func (s *Service) Diff(dir string) (DiffResult, error) {
	pristineXML, _, err := s.Layout.ReadPristine(dir)
	if err != nil {
		return DiffResult{}, fmt.Errorf("diff: %w", err)
	}

	currentXML, currentStyles, err := s.Layout.ReadCurrent(dir)
	if err != nil {
		return DiffResult{}, fmt.Errorf("diff: %w", err)
	}

	return diffXML(pristineXML, currentXML, currentStyles)
}

func diffXML(pristineXML, currentXML, currentStyles string) (DiffResult, error) {
	parser := docengine.BlockParser{}

	pristine, err := parser.Parse(pristineXML)
	if err != nil {
		return DiffResult{}, fmt.Errorf("diff: pristine: %w", err)
	}

	current, err := parser.Parse(currentXML)
	if err != nil {
		return DiffResult{}, fmt.Errorf("diff: current: %w", err)
	}

	indexer := docengine.BlockIndexer{}
	if err := indexer.Compute(pristine); err != nil {
		return DiffResult{}, fmt.Errorf("diff: index pristine: %w", err)
	}

	if err := indexer.Compute(current); err != nil {
		return DiffResult{}, fmt.Errorf("diff: index current: %w", err)
	}

	var catalog *docengine.StyleCatalog

	if currentStyles != "" {
		catalog, err = docengine.ParseStyleCatalog(currentStyles)
		if err != nil {
			return DiffResult{}, fmt.Errorf("diff: %w", err)
		}
	}

	root := docengine.TreeDiffer{}.Diff(pristine, current)

	requests, err := newWalker(catalog).Walk(root)
	if err != nil {
		return DiffResult{}, fmt.Errorf("diff: walk: %w", err)
	}

	return DiffResult{DocID: current.DocID, Requests: requests, Root: root, catalog: catalog}, nil
}

// newWalker builds a RequestWalker whose generators share one style
// catalog.
func newWalker(catalog *docengine.StyleCatalog) docengine.RequestWalker {
	cg := docengine.ContentGenerator{Styles: catalog}

	return docengine.RequestWalker{
		Content: cg,
		Table:   docengine.TableGenerator{Content: cg},
	}
}

// Push diffs dir and applies the result to the remote document through
// the three-batch orchestrator. On success, the pristine snapshot is
// replaced with the just-pushed files, so an immediately following diff
// is empty.
func (s *Service) Push(ctx context.Context, dir string) (docengine.PushResult, error) {
	if s.Transport == nil {
		return docengine.PushResult{}, fmt.Errorf("push: no transport configured")
	}

	_, pristineStyles, err := s.Layout.ReadPristine(dir)
	if err != nil {
		return docengine.PushResult{}, fmt.Errorf("push: %w", err)
	}

	diff, err := s.Diff(dir)
	if err != nil {
		return docengine.PushResult{}, err
	}

	orchestrator := docengine.PushOrchestrator{
		Walker:    newWalker(diff.catalog),
		Transport: s.Transport,
	}

	result, err := orchestrator.Push(ctx, diff.DocID, diff.Root)
	if err != nil {
		return result, err
	}

	if result.Success && result.ChangesApplied > 0 {
		currentXML, currentStyles, readErr := s.Layout.ReadCurrent(dir)
		if readErr == nil {
			if currentStyles == "" {
				currentStyles = pristineStyles
			}

			if werr := s.Layout.WritePristine(dir, currentXML, currentStyles); werr != nil {
				result.Message = fmt.Sprintf("pushed, but snapshot update failed: %v", werr)
			}
		}

		if s.Registry != nil {
			if rec, getErr := s.Registry.Get(diff.DocID); getErr == nil {
				rec.PulledAt = s.now()
				_ = s.Registry.Put(rec)
			}
		}
	}

	return result, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}
