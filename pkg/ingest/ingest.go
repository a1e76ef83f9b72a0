// Package ingest turns uploaded URL lists into batch inputs.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes bounds how much of an upload is read.
const MaxUploadBytes = 4 << 20

var (
	ErrTooManyURLs = errors.New("too many URLs")
	ErrNotText     = errors.New("upload is not a text file")
	ErrTooLarge    = errors.New("upload is too large")
)

// ParseURLList reads one URL per line, or a CSV file whose header has a
// "url" column. Blank lines and lines starting with # are skipped. Entries
// are not validated here; invalid ones fail later as items. More than limit
// entries is an error, never a truncation.
func ParseURLList(r io.Reader, limit int) ([]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []string{}, nil
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return nil, fmt.Errorf("%w: detected %s", ErrNotText, mtype.String())
	}

	var urls []string
	// Only a "url" header makes the upload CSV; bare lines may carry commas.
	if col, ok := urlColumn(data); ok {
		urls, err = parseCSV(data, col)
	} else {
		urls, err = parseLines(data)
	}
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(urls) > limit {
		return nil, fmt.Errorf("%w: %d entries, limit %d", ErrTooManyURLs, len(urls), limit)
	}
	return urls, nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func skip(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

func parseLines(data []byte) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), MaxUploadBytes)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if skip(line) {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}
	return urls, nil
}

// urlColumn finds the "url" header column on the first meaningful line.
func urlColumn(data []byte) (int, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), MaxUploadBytes)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if skip(line) {
			continue
		}
		for i, field := range strings.Split(line, ",") {
			if strings.EqualFold(strings.Trim(strings.TrimSpace(field), `"`), "url") {
				return i, true
			}
		}
		return 0, false
	}
	return 0, false
}

// parseCSV reads column col. A header row naming the column is dropped.
func parseCSV(data []byte, col int) ([]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var urls []string
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(rec[col], "\ufeff"))
		if header {
			header = false
			if strings.EqualFold(value, "url") {
				continue
			}
		}
		if skip(value) {
			continue
		}
		urls = append(urls, value)
	}
	return urls, nil
}
