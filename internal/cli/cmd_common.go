package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"

	"github.com/calvinalkan/docsync/internal/config"
	"github.com/calvinalkan/docsync/internal/docs"
	"github.com/calvinalkan/docsync/internal/docstore"
	"github.com/calvinalkan/docsync/internal/fsio"
	"github.com/calvinalkan/docsync/internal/transport"
	"github.com/calvinalkan/docsync/internal/xmlio"
	"github.com/calvinalkan/docsync/pkg/docengine"

	runewidth "github.com/mattn/go-runewidth"
)

// localService builds a Service for commands that never touch the
// network (diff).
func localService(cfg config.Config) *docs.Service {
	return &docs.Service{
		Layout:   xmlio.New(),
		Registry: docstore.New(cfg.RegistryDirAbs),
	}
}

// remoteService builds a Service with a live Google transport. It fails
// fast when the user is not logged in, before any file is touched.
func remoteService(ctx context.Context, cfg config.Config) (*docs.Service, error) {
	creds := transport.Credentials{
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
	}

	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	google, err := transport.NewGoogle(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}

	svc := localService(cfg)
	svc.Transport = google

	return svc, nil
}

// resolveDir resolves a command's --dir flag against the working
// directory, defaulting to the working directory itself.
func resolveDir(cfg config.Config, dir string) string {
	if dir == "" {
		return cfg.EffectiveCwd
	}

	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(cfg.EffectiveCwd, dir)
}

// lockDir takes the folder's advisory lock so two concurrent docsync
// invocations do not interleave writes. The returned release func is
// always safe to call.
func lockDir(dir string) (release func(), err error) {
	lock, err := fsio.LockFolder(dir)
	if err != nil {
		return func() {}, err
	}

	return func() { _ = lock.Close() }, nil
}

// requestKind names a request the way the Docs API spells it.
func requestKind(r docengine.Request) string {
	switch {
	case r.InsertText != nil:
		return "insertText"
	case r.DeleteContentRange != nil:
		return "deleteContentRange"
	case r.UpdateTextStyle != nil:
		return "updateTextStyle"
	case r.UpdateParagraphStyle != nil:
		return "updateParagraphStyle"
	case r.CreateParagraphBullets != nil:
		return "createParagraphBullets"
	case r.DeleteParagraphBullets != nil:
		return "deleteParagraphBullets"
	case r.InsertPageBreak != nil:
		return "insertPageBreak"
	case r.InsertSectionBreak != nil:
		return "insertSectionBreak"
	case r.CreateFootnote != nil:
		return "createFootnote"
	case r.CreateHeader != nil:
		return "createHeader"
	case r.CreateFooter != nil:
		return "createFooter"
	case r.DeleteHeader != nil:
		return "deleteHeader"
	case r.DeleteFooter != nil:
		return "deleteFooter"
	case r.AddDocumentTab != nil:
		return "addDocumentTab"
	case r.DeleteTab != nil:
		return "deleteTab"
	case r.UpdateDocumentTabProperties != nil:
		return "updateDocumentTabProperties"
	case r.InsertTable != nil:
		return "insertTable"
	case r.DeleteTableRow != nil:
		return "deleteTableRow"
	case r.InsertTableRow != nil:
		return "insertTableRow"
	case r.DeleteTableColumn != nil:
		return "deleteTableColumn"
	case r.InsertTableColumn != nil:
		return "insertTableColumn"
	case r.UpdateTableColumnProperties != nil:
		return "updateTableColumnProperties"
	case r.UpdateTableCellStyle != nil:
		return "updateTableCellStyle"
	default:
		return "unknown"
	}
}

// requestDetail renders the request's address (index or range) plus a
// short payload preview.
func requestDetail(r docengine.Request) string {
	switch {
	case r.InsertText != nil:
		return fmt.Sprintf("at %d %q", r.InsertText.Location.Index, preview(r.InsertText.Text))
	case r.DeleteContentRange != nil:
		return fmt.Sprintf("[%d,%d)", r.DeleteContentRange.Range.Start, r.DeleteContentRange.Range.End)
	case r.UpdateTextStyle != nil:
		return fmt.Sprintf("[%d,%d) %s", r.UpdateTextStyle.Range.Start, r.UpdateTextStyle.Range.End, r.UpdateTextStyle.Fields)
	case r.UpdateParagraphStyle != nil:
		return fmt.Sprintf("[%d,%d) %s", r.UpdateParagraphStyle.Range.Start, r.UpdateParagraphStyle.Range.End, r.UpdateParagraphStyle.Style.NamedStyleType)
	case r.CreateParagraphBullets != nil:
		return fmt.Sprintf("[%d,%d) %s", r.CreateParagraphBullets.Range.Start, r.CreateParagraphBullets.Range.End, r.CreateParagraphBullets.Preset)
	case r.DeleteParagraphBullets != nil:
		return fmt.Sprintf("[%d,%d)", r.DeleteParagraphBullets.Range.Start, r.DeleteParagraphBullets.Range.End)
	case r.InsertPageBreak != nil:
		return fmt.Sprintf("at %d", r.InsertPageBreak.Location.Index)
	case r.InsertSectionBreak != nil:
		return fmt.Sprintf("at %d %s", r.InsertSectionBreak.Location.Index, r.InsertSectionBreak.SectionType)
	case r.CreateFootnote != nil:
		return fmt.Sprintf("at %d", r.CreateFootnote.Location.Index)
	case r.AddDocumentTab != nil:
		return r.AddDocumentTab.Title
	case r.DeleteTab != nil:
		return r.DeleteTab.TabID
	case r.InsertTable != nil:
		return fmt.Sprintf("at %d %dx%d", r.InsertTable.Location.Index, r.InsertTable.Rows, r.InsertTable.Columns)
	case r.DeleteTableRow != nil:
		return fmt.Sprintf("table@%d row %d", r.DeleteTableRow.TableStartLocation.Index, r.DeleteTableRow.RowIndex)
	case r.InsertTableRow != nil:
		return fmt.Sprintf("table@%d row %d", r.InsertTableRow.TableStartLocation.Index, r.InsertTableRow.RowIndex)
	case r.DeleteTableColumn != nil:
		return fmt.Sprintf("table@%d col %d", r.DeleteTableColumn.TableStartLocation.Index, r.DeleteTableColumn.ColumnIndex)
	case r.InsertTableColumn != nil:
		return fmt.Sprintf("table@%d col %d", r.InsertTableColumn.TableStartLocation.Index, r.InsertTableColumn.ColumnIndex)
	default:
		return ""
	}
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > 40 {
		return s[:37] + "..."
	}

	return s
}

// printRequests renders the request list as an aligned two-column table.
// runewidth keeps the columns straight when a text preview carries
// wide (CJK) runes.
func printRequests(io *IO, requests []docengine.Request) {
	width := 0
	for _, r := range requests {
		if w := runewidth.StringWidth(requestKind(r)); w > width {
			width = w
		}
	}

	for i, r := range requests {
		io.Printf("%3d  %s  %s\n", i+1, runewidth.FillRight(requestKind(r), width), requestDetail(r))
	}
}
