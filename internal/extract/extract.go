// Package extract converts stored resume documents into plain text.
//
// Dispatch is a capability registry keyed by file extension: adding a
// format means registering one more Parser. An extension without a
// parser is a valid terminal outcome ("unsupported"), strictly distinct
// from an I/O failure.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairtrack/fairtrack-api/internal/storage"
)

// Parser converts one staged document file into plain text.
type Parser interface {
	Parse(path string) (string, error)
}

// Service runs the extraction pipeline: stage the stored object into a
// local temp file, run the format parser, clean up the staging file on
// every path.
type Service struct {
	files   storage.FileStore
	parsers map[string]Parser
	logger  *slog.Logger
}

// NewService creates an extraction service with the default parser
// registry: PDF, DOCX and legacy DOC.
func NewService(files storage.FileStore, logger *slog.Logger) *Service {
	s := &Service{
		files:   files,
		parsers: make(map[string]Parser),
		logger:  logger.With("component", "extract"),
	}
	s.Register(".pdf", PDFParser{})
	s.Register(".docx", DocxParser{})
	s.Register(".doc", DocParser{})
	return s
}

// Register adds a parser for a file extension (with leading dot,
// matched case-insensitively), replacing any existing one.
func (s *Service) Register(ext string, p Parser) {
	s.parsers[strings.ToLower(ext)] = p
}

// ExtractText extracts plain text from the stored object fileRef.
//
// supported is false when no parser handles the file's extension; that
// is an expected outcome, not an error. A non-nil error means storage
// or parsing I/O failed and the extraction may succeed on retry.
func (s *Service) ExtractText(ctx context.Context, fileRef string) (text string, supported bool, err error) {
	ext := strings.ToLower(filepath.Ext(fileRef))
	parser, ok := s.parsers[ext]
	if !ok {
		s.logger.Debug("unsupported resume format", "file", fileRef, "ext", ext)
		return "", false, nil
	}

	staged, err := s.stage(ctx, fileRef, ext)
	if err != nil {
		return "", true, err
	}
	// The staging file is scoped to this call; remove it on success and
	// failure alike.
	defer func() { _ = os.Remove(staged) }()

	text, err = parser.Parse(staged)
	if err != nil {
		return "", true, fmt.Errorf("failed to parse %s: %w", fileRef, err)
	}
	return text, true, nil
}

// stage copies the stored object into a local temp file and returns its
// path. The caller owns removal.
func (s *Service) stage(ctx context.Context, fileRef, ext string) (string, error) {
	rc, err := s.files.ReadFile(ctx, fileRef)
	if err != nil {
		return "", fmt.Errorf("failed to read %s from storage: %w", fileRef, err)
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp("", "fairtrack-extract-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: create staging file: %v", storage.ErrIO, err)
	}

	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: stage %s: %v", storage.ErrIO, fileRef, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: close staging file: %v", storage.ErrIO, err)
	}
	return tmp.Name(), nil
}
