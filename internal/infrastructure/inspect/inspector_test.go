package inspect

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

func docxFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`},
		{"word/document.xml", `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Jane</w:t></w:r></w:p></w:body></w:document>`},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestInspectAcceptsDOCX(t *testing.T) {
	file, err := New(0).Inspect("resume.docx", docxFixture(t))
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if file.SourceType != domain.SourceDOCX || file.MimeType != domain.MimeDOCX || file.Size == 0 {
		t.Fatalf("unexpected file %+v", file)
	}
}

func TestInspectRejectsOtherTypes(t *testing.T) {
	_, err := New(0).Inspect("resume.txt", []byte("Jane Doe, Go developer"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestInspectRejectsRenamedText(t *testing.T) {
	_, err := New(0).Inspect("resume.pdf", []byte("not really a pdf"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestInspectRejectsBrokenPDF(t *testing.T) {
	_, err := New(0).Inspect("resume.pdf", []byte("%PDF-1.4\n%broken"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestInspectEnforcesLimits(t *testing.T) {
	if _, err := New(0).Inspect("resume.pdf", nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected empty file rejection, got %v", err)
	}
	if _, err := New(4).Inspect("resume.docx", docxFixture(t)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if _, err := New(0).Inspect("  ", []byte("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected name rejection, got %v", err)
	}
}
