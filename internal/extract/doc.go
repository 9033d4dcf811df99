package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// DocParser extracts plain text from legacy .doc documents. A .doc file
// is an OLE compound file whose body lives in the WordDocument stream,
// stored as either CP1252 or UTF-16LE runs. Full FIB piece-table
// decoding is out of proportion for resume indexing, so the parser
// scans the stream for readable runs in both encodings.
type DocParser struct{}

// minRun filters binary noise: shorter printable runs are almost never
// real prose.
const minRun = 4

// Parse reads the .doc at path and returns the readable text of its
// WordDocument stream.
func (DocParser) Parse(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open doc: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader, err := mscfb.New(f)
	if err != nil {
		return "", fmt.Errorf("failed to open compound file: %w", err)
	}

	for {
		entry, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to walk compound file: %w", err)
		}
		if entry.Name != "WordDocument" {
			continue
		}

		raw, err := io.ReadAll(entry)
		if err != nil {
			return "", fmt.Errorf("failed to read WordDocument stream: %w", err)
		}
		return docStreamText(raw), nil
	}

	return "", errors.New("doc file has no WordDocument stream")
}

// docStreamText pulls readable runs out of a WordDocument stream,
// preferring the UTF-16 interpretation when it yields more text.
func docStreamText(raw []byte) string {
	ascii := printableRuns(raw)
	wide := printableRuns(utf16Bytes(raw))
	if len(wide) > len(ascii) {
		return wide
	}
	return ascii
}

// utf16Bytes decodes the stream as little-endian UTF-16 and re-encodes
// the result as UTF-8 bytes for run scanning.
func utf16Bytes(raw []byte) []byte {
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		units = append(units, uint16(raw[i])|uint16(raw[i+1])<<8)
	}
	return []byte(string(utf16.Decode(units)))
}

// printableRuns keeps runs of at least minRun readable characters,
// separating the runs with newlines.
func printableRuns(b []byte) string {
	var (
		sb  strings.Builder
		run []rune
	)

	flush := func() {
		if len(run) >= minRun {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.TrimSpace(string(run)))
		}
		run = run[:0]
	}

	for _, r := range string(b) {
		// Word uses CR for paragraph marks and 0x07 for cell ends.
		if r == '\r' || r == 0x07 || r == 0x0b {
			run = append(run, ' ')
			continue
		}
		if r == '\t' || r == ' ' || unicode.IsPrint(r) && r != unicode.ReplacementChar {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()

	return sb.String()
}
