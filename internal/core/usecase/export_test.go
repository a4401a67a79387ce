package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

func TestExportNoticeExpires(t *testing.T) {
	sink := &sinkFake{}
	uc := NewExportUseCase(&rendererFake{}, sink, 0)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	path, err := uc.Export(context.Background(), domain.FormatPDF, "<p>x</p>", "cv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/downloads/cv.pdf" || sink.files["cv.pdf"] != "pdf:<p>x</p>" {
		t.Fatalf("unexpected delivery: %s %v", path, sink.files)
	}

	notices := uc.Notices()
	if len(notices) != 1 || notices[0].Message != "PDF downloaded successfully!" {
		t.Fatalf("unexpected notices: %+v", notices)
	}
	if !notices[0].ExpiresAt.Equal(now.Add(DefaultNoticeTTL)) {
		t.Fatalf("unexpected expiry: %v", notices[0].ExpiresAt)
	}

	now = now.Add(DefaultNoticeTTL)
	if got := uc.Notices(); len(got) != 0 {
		t.Fatalf("expected notice to expire, got %+v", got)
	}
}

func TestExportFailureLeavesNoNotice(t *testing.T) {
	uc := NewExportUseCase(&rendererFake{errs: map[domain.ExportFormat]error{domain.FormatDOCX: errors.New("502")}}, &sinkFake{}, time.Minute)

	_, err := uc.Export(context.Background(), domain.FormatDOCX, "<p>x</p>", "cv")
	if !domain.IsKind(err, domain.ErrExport) {
		t.Fatalf("expected export error, got %v", err)
	}
	if len(uc.Notices()) != 0 || len(uc.InFlight()) != 0 {
		t.Fatalf("expected clean state after failure")
	}
}

func TestExportSinkFailure(t *testing.T) {
	uc := NewExportUseCase(&rendererFake{}, &sinkFake{err: errors.New("disk full")}, time.Minute)
	if _, err := uc.Export(context.Background(), domain.FormatPDF, "<p>x</p>", "cv"); !domain.IsKind(err, domain.ErrExport) {
		t.Fatalf("expected export error, got %v", err)
	}
}
