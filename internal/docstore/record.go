package docstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Registry records are small Markdown files with a fixed frontmatter
// header. The codec below reads and writes exactly the record schema —
// it is not a general YAML parser, and deliberately so: every field a
// record can carry is listed here, unknown keys are skipped on read (a
// newer docsync may have written them), and everything after the closing
// delimiter is the user's free-form notes, preserved verbatim.
//
// On disk:
//
//	---
//	doc_id: 1AbCdEf
//	title: Quarterly Plan
//	revision: ALm37BVC
//	tab_count: 2
//	local_dir: /home/me/docs/plan
//	pulled_at: 2026-07-01T09:30:00Z
//	---
//
//	free-form notes
const recordDelimiter = "---"

var errNoHeader = errors.New("missing frontmatter header")

func marshalRecord(r Record) string {
	var b strings.Builder

	b.WriteString(recordDelimiter + "\n")
	writeField(&b, "doc_id", r.DocID)
	writeField(&b, "title", r.Title)
	writeField(&b, "revision", r.Revision)
	writeField(&b, "tab_count", strconv.Itoa(r.TabCount))
	writeField(&b, "local_dir", r.LocalDir)
	writeField(&b, "pulled_at", r.PulledAt.UTC().Format(time.RFC3339))
	b.WriteString(recordDelimiter + "\n")

	if r.Notes != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimLeft(r.Notes, "\n"))

		if !strings.HasSuffix(r.Notes, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// writeField emits one "key: value" line. Values that the line format
// cannot carry raw (empty, leading/trailing space, embedded newline, or
// a leading quote) are Go-quoted; everything else — including titles
// with colons — is written as-is, since parsing splits at the first
// colon only.
func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(quoteIfNeeded(value))
	b.WriteString("\n")
}

func quoteIfNeeded(v string) string {
	if v == "" ||
		strings.ContainsAny(v, "\n\r") ||
		strings.HasPrefix(v, "\"") ||
		v != strings.TrimSpace(v) {
		return strconv.Quote(v)
	}

	return v
}

func unmarshalRecord(data []byte) (Record, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != recordDelimiter {
		return Record{}, errNoHeader
	}

	var r Record

	i := 1
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if line == recordDelimiter {
			break
		}

		key, rawValue, ok := strings.Cut(line, ":")
		if !ok {
			return Record{}, fmt.Errorf("line %d: not a key: value pair", i+1)
		}

		value, err := parseValue(strings.TrimSpace(rawValue))
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", i+1, err)
		}

		switch strings.TrimSpace(key) {
		case "doc_id":
			r.DocID = value
		case "title":
			r.Title = value
		case "revision":
			r.Revision = value
		case "tab_count":
			n, convErr := strconv.Atoi(value)
			if convErr != nil {
				return Record{}, fmt.Errorf("line %d: tab_count: %w", i+1, convErr)
			}

			r.TabCount = n
		case "local_dir":
			r.LocalDir = value
		case "pulled_at":
			ts, parseErr := time.Parse(time.RFC3339, value)
			if parseErr != nil {
				return Record{}, fmt.Errorf("line %d: pulled_at: %w", i+1, parseErr)
			}

			r.PulledAt = ts
		default:
			// Skipped: a newer docsync may write fields this one does not
			// know about.
		}
	}

	if i == len(lines) {
		return Record{}, errNoHeader
	}

	if r.DocID == "" {
		return Record{}, errors.New("missing doc_id")
	}

	notes := strings.Join(lines[i+1:], "\n")
	notes = strings.TrimLeft(notes, "\n")
	notes = strings.TrimRight(notes, "\n")

	if notes != "" {
		r.Notes = notes + "\n"
	}

	return r, nil
}

func parseValue(raw string) (string, error) {
	if !strings.HasPrefix(raw, "\"") {
		return raw, nil
	}

	value, err := strconv.Unquote(raw)
	if err != nil {
		return "", fmt.Errorf("bad quoted value %s: %w", raw, err)
	}

	return value, nil
}
