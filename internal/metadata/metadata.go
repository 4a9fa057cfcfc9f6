// Package metadata separates the JSON header embedded at the top of a content
// file from the body that follows it.
//
// A header looks like:
//
//	---
//	{"template": "page.html", "name": "about"}
//	---
//	body text
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.trai.ch/zerr"
)

// Delimiter is the line that opens and closes a header block.
const Delimiter = "---"

// Metadata holds the decoded header of a content file.
type Metadata map[string]any

// String returns the value stored under key when it is a non-empty string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MetadataParseError is returned when a delimited header is present but does
// not hold a JSON object.
type MetadataParseError struct {
	Header string
	Err    error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("could not extract metadata from header: %v", e.Err)
}

func (e *MetadataParseError) Unwrap() error {
	return e.Err
}

// Extract splits text into its header metadata and body. Text without a
// header yields empty metadata and the unchanged text.
func Extract(text string) (Metadata, string, error) {
	rest, ok := cutOpening(text)
	if !ok {
		return Metadata{}, text, nil
	}

	header, body, ok := cutHeader(rest)
	if !ok {
		return Metadata{}, text, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(header), &decoded); err != nil {
		return nil, "", &MetadataParseError{Header: header, Err: err}
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return nil, "", &MetadataParseError{
			Header: header,
			Err:    fmt.Errorf("header is a JSON %T, not an object", decoded),
		}
	}

	return Metadata(fields), body, nil
}

// ReadFile reads a UTF-8 content file and extracts its metadata.
func ReadFile(path string) (Metadata, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "failed to read content file"), "path", path)
	}
	if !utf8.Valid(raw) {
		return nil, "", zerr.With(zerr.New("content file is not valid UTF-8"), "path", path)
	}

	meta, body, err := Extract(string(raw))
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "failed to parse content file"), "path", path)
	}
	return meta, body, nil
}

// cutOpening strips the opening delimiter line, which must start the text.
func cutOpening(text string) (string, bool) {
	for _, nl := range []string{"\n", "\r\n"} {
		if rest, ok := strings.CutPrefix(text, Delimiter+nl); ok {
			return rest, true
		}
	}
	return "", false
}

// cutHeader finds the first line after at least one header line that starts
// with the closing delimiter. Whatever follows the delimiter is body, minus at
// most one newline.
func cutHeader(rest string) (header, body string, ok bool) {
	for start := 0; start < len(rest); {
		next := len(rest)
		if end := strings.IndexByte(rest[start:], '\n'); end >= 0 {
			next = start + end + 1
		}
		if start > 0 && strings.HasPrefix(rest[start:], Delimiter) {
			after := rest[start+len(Delimiter):]
			for _, nl := range []string{"\r\n", "\n"} {
				if trimmed, cut := strings.CutPrefix(after, nl); cut {
					after = trimmed
					break
				}
			}
			return rest[:start], after, true
		}
		start = next
	}
	return "", "", false
}
