package docstore

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codecRecord() Record {
	return Record{
		DocID:    "1AbCdEf",
		Title:    "Plan: Q3 roadmap",
		Revision: "ALm37BVC",
		TabCount: 3,
		LocalDir: "/home/me/docs/plan",
		PulledAt: time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC),
	}
}

func Test_Record_Codec_Round_Trips(t *testing.T) {
	t.Parallel()

	want := codecRecord()

	got, err := unmarshalRecord([]byte(marshalRecord(want)))
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_Record_Codec_Title_With_Colon_Stays_Unquoted(t *testing.T) {
	t.Parallel()

	out := marshalRecord(codecRecord())

	assert.Contains(t, out, "title: Plan: Q3 roadmap\n")

	got, err := unmarshalRecord([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Plan: Q3 roadmap", got.Title)
}

func Test_Record_Codec_Quotes_Values_The_Line_Format_Cannot_Carry(t *testing.T) {
	t.Parallel()

	rec := codecRecord()
	rec.Title = "  padded  "
	rec.Revision = ""

	out := marshalRecord(rec)
	assert.Contains(t, out, `title: "  padded  "`)
	assert.Contains(t, out, `revision: ""`)

	got, err := unmarshalRecord([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "  padded  ", got.Title)
	assert.Empty(t, got.Revision)
}

func Test_Record_Codec_Preserves_Notes_Tail(t *testing.T) {
	t.Parallel()

	rec := codecRecord()
	rec.Notes = "# My notes\n\nwith a blank line in the middle\n"

	got, err := unmarshalRecord([]byte(marshalRecord(rec)))
	require.NoError(t, err)
	assert.Equal(t, rec.Notes, got.Notes)
}

func Test_Record_Codec_Skips_Unknown_Keys(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"---",
		"doc_id: d1",
		"title: T",
		"some_future_field: whatever",
		"---",
		"",
	}, "\n")

	got, err := unmarshalRecord([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "d1", got.DocID)
	assert.Equal(t, "T", got.Title)
}

func Test_Record_Codec_Rejects_Malformed_Input(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no header":         "just some markdown",
		"unclosed header":   "---\ndoc_id: d1\n",
		"missing doc_id":    "---\ntitle: T\n---\n",
		"bad tab_count":     "---\ndoc_id: d1\ntab_count: many\n---\n",
		"bad pulled_at":     "---\ndoc_id: d1\npulled_at: yesterday\n---\n",
		"line with no pair": "---\ndoc_id: d1\nnonsense\n---\n",
	}

	for name, src := range cases {
		_, err := unmarshalRecord([]byte(src))
		assert.Error(t, err, name)
	}
}
