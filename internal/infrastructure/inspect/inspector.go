// Package inspect identifies uploaded resumes before they are submitted.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

const DefaultMaxBytes = 10 << 20

type Inspector struct {
	maxBytes int64
}

func New(maxBytes int64) *Inspector {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Inspector{maxBytes: maxBytes}
}

// Inspect sniffs the payload and accepts only PDF and DOCX. PDFs must open
// and report at least one page.
func (i *Inspector) Inspect(name string, data []byte) (*domain.ResumeFile, error) {
	const op = "inspect upload"

	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("file name is required"))
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("file is empty"))
	}
	if int64(len(data)) > i.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("file too large: %d bytes exceeds %d", len(data), i.maxBytes))
	}

	source, err := detectSource(name, data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
	}

	file := &domain.ResumeFile{
		Name:       name,
		Size:       int64(len(data)),
		MimeType:   source.MimeType(),
		SourceType: source,
		Data:       data,
	}
	if source == domain.SourcePDF {
		pages, err := countPages(data)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
		}
		file.Pages = pages
	}
	return file, nil
}

func detectSource(name string, data []byte) (domain.SourceType, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is(domain.MimePDF):
		return domain.SourcePDF, nil
	case mt.Is(domain.MimeDOCX):
		return domain.SourceDOCX, nil
	case mt.Is("application/zip") && strings.EqualFold(filepath.Ext(name), ".docx"):
		return domain.SourceDOCX, nil
	default:
		return "", fmt.Errorf("unsupported file type %s: upload a PDF or DOCX", mt.String())
	}
}

func countPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("unreadable pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("unreadable pdf: %w", err)
	}
	pages = reader.NumPage()
	if pages == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return pages, nil
}
