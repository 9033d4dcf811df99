package export

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// builder assembles one export artifact entity-at-a-time.
type builder interface {
	// Add appends one participant. resume carries the raw attachment
	// bytes for archive formats and is nil when absent or for tabular
	// formats.
	Add(p domain.Participant, resume []byte) error

	// Close finalizes the artifact and returns its size in bytes.
	Close() (int64, error)

	// Abort releases resources without finalizing; used on failure.
	Abort() error
}

func newBuilder(format Format, path string) (builder, error) {
	switch format {
	case FormatZip:
		return newZipBuilder(path)
	case FormatCSV:
		return newCSVBuilder(path)
	case FormatXLSX:
		return newXLSXBuilder(path), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// zipBuilder writes a ZIP archive holding, per participant, the resume
// attachment (when present) and a generated plain-text summary.
type zipBuilder struct {
	file *os.File
	zw   *zip.Writer
}

func newZipBuilder(path string) (*zipBuilder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	return &zipBuilder{file: f, zw: zip.NewWriter(f)}, nil
}

func (b *zipBuilder) Add(p domain.Participant, resume []byte) error {
	base := entryName(p)

	if resume != nil {
		w, err := b.zw.Create(base + strings.ToLower(filepath.Ext(p.Resume.Path)))
		if err != nil {
			return err
		}
		if _, err := w.Write(resume); err != nil {
			return err
		}
	}

	w, err := b.zw.Create(base + ".txt")
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(summaryText(p)))
	return err
}

func (b *zipBuilder) Close() (int64, error) {
	if err := b.zw.Close(); err != nil {
		_ = b.file.Close()
		return 0, err
	}
	if err := b.file.Close(); err != nil {
		return 0, err
	}
	info, err := os.Stat(b.file.Name())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (b *zipBuilder) Abort() error {
	_ = b.zw.Close()
	return b.file.Close()
}

// entryName builds a stable, filesystem-safe archive entry prefix.
func entryName(p domain.Participant) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, p.Name)
	if name == "" {
		name = "participant"
	}
	return fmt.Sprintf("%s-%s", name, p.ID)
}

// summaryText renders the per-participant metadata entry included in
// archives alongside the attachment.
func summaryText(p domain.Participant) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", p.Name)
	fmt.Fprintf(&sb, "Email: %s\n", p.Email)
	fmt.Fprintf(&sb, "Degree: %s\n", p.Degree)
	fmt.Fprintf(&sb, "Institution: %s\n", p.Institution)
	if p.GraduationYear > 0 {
		fmt.Fprintf(&sb, "Graduation year: %d\n", p.GraduationYear)
	}
	if p.Resume.ExtractedText != nil && *p.Resume.ExtractedText != "" {
		sb.WriteString("\n--- Resume text ---\n")
		sb.WriteString(*p.Resume.ExtractedText)
		sb.WriteByte('\n')
	}
	return sb.String()
}
