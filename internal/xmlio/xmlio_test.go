package xmlio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/internal/xmlio"
)

const (
	docXML    = `<doc id="d1" revision="r1"><tab id="t"><body><p>Hi</p></body></tab></doc>`
	stylesXML = `<styles><style id="_base"/></styles>`
)

func Test_Write_Then_ReadCurrent_Round_Trips(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mydoc")
	l := xmlio.New()

	require.NoError(t, l.WriteDocument(dir, docXML, stylesXML))

	gotDoc, gotStyles, err := l.ReadCurrent(dir)
	require.NoError(t, err)
	assert.Equal(t, docXML, gotDoc)
	assert.Equal(t, stylesXML, gotStyles)
}

func Test_WritePristine_Then_ReadPristine_Round_Trips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := xmlio.New()

	require.NoError(t, l.WritePristine(dir, docXML, stylesXML))

	gotDoc, gotStyles, err := l.ReadPristine(dir)
	require.NoError(t, err)
	assert.Equal(t, docXML, gotDoc)
	assert.Equal(t, stylesXML, gotStyles)
}

func Test_ReadPristine_Without_Snapshot_Fails(t *testing.T) {
	t.Parallel()

	_, _, err := xmlio.New().ReadPristine(t.TempDir())
	require.ErrorIs(t, err, xmlio.ErrNoPristine)
}

func Test_ReadCurrent_Without_Document_Fails(t *testing.T) {
	t.Parallel()

	_, _, err := xmlio.New().ReadCurrent(t.TempDir())
	require.ErrorIs(t, err, xmlio.ErrNoDocument)
}

func Test_ReadCurrent_Missing_Styles_Is_Tolerated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, xmlio.DocumentFile), []byte(docXML), 0o600))

	gotDoc, gotStyles, err := xmlio.New().ReadCurrent(dir)
	require.NoError(t, err)
	assert.Equal(t, docXML, gotDoc)
	assert.Empty(t, gotStyles)
}

func Test_Repeated_Pull_Replaces_Snapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := xmlio.New()

	require.NoError(t, l.WritePristine(dir, docXML, stylesXML))

	updated := `<doc id="d1" revision="r2"><tab id="t"><body><p>Bye</p></body></tab></doc>`
	require.NoError(t, l.WritePristine(dir, updated, stylesXML))

	gotDoc, _, err := l.ReadPristine(dir)
	require.NoError(t, err)
	assert.Equal(t, updated, gotDoc)
}
