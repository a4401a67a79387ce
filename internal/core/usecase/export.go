package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
)

const DefaultNoticeTTL = 3 * time.Second

type ExportUseCase struct {
	renderer  ports.DocumentRenderer
	sink      ports.FileSink
	noticeTTL time.Duration
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[domain.ExportFormat]struct{}
	notices  map[domain.ExportFormat]domain.ExportNotice
}

func NewExportUseCase(renderer ports.DocumentRenderer, sink ports.FileSink, noticeTTL time.Duration) *ExportUseCase {
	if noticeTTL <= 0 {
		noticeTTL = DefaultNoticeTTL
	}
	return &ExportUseCase{
		renderer:  renderer,
		sink:      sink,
		noticeTTL: noticeTTL,
		now:       time.Now,
		inFlight:  make(map[domain.ExportFormat]struct{}),
		notices:   make(map[domain.ExportFormat]domain.ExportNotice),
	}
}

// Export renders html in the given format and saves it locally as
// filename plus the format extension. At most one export per format runs at a
// time; different formats proceed independently.
func (uc *ExportUseCase) Export(ctx context.Context, format domain.ExportFormat, html, filename string) (string, error) {
	if err := uc.begin(format); err != nil {
		return "", err
	}
	defer uc.finish(format)

	op := "export " + string(format)
	data, err := uc.renderer.Render(ctx, format, html, filename)
	if err != nil {
		return "", domain.WrapError(domain.ErrExport, op, err)
	}
	if len(data) == 0 {
		return "", domain.WrapError(domain.ErrExport, op, errors.New("empty document returned"))
	}

	path, err := uc.sink.Save(ctx, filename+format.Extension(), bytes.NewReader(data))
	if err != nil {
		return "", domain.WrapError(domain.ErrExport, op, fmt.Errorf("deliver file: %w", err))
	}

	uc.notify(format)
	return path, nil
}

func (uc *ExportUseCase) begin(format domain.ExportFormat) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, busy := uc.inFlight[format]; busy {
		return domain.WrapError(domain.ErrBusy, "export "+string(format), errors.New("export already in progress"))
	}
	uc.inFlight[format] = struct{}{}
	delete(uc.notices, format)
	return nil
}

func (uc *ExportUseCase) finish(format domain.ExportFormat) {
	uc.mu.Lock()
	delete(uc.inFlight, format)
	uc.mu.Unlock()
}

func (uc *ExportUseCase) notify(format domain.ExportFormat) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.notices[format] = domain.ExportNotice{
		Format:    format,
		Message:   format.Label() + " downloaded successfully!",
		ExpiresAt: uc.now().Add(uc.noticeTTL),
	}
}

// InFlight lists formats with a pending export.
func (uc *ExportUseCase) InFlight() []domain.ExportFormat {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]domain.ExportFormat, 0, len(uc.inFlight))
	for f := range uc.inFlight {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Notices returns success notices that have not yet expired.
func (uc *ExportUseCase) Notices() []domain.ExportNotice {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	out := make([]domain.ExportNotice, 0, len(uc.notices))
	for f, n := range uc.notices {
		if !now.Before(n.ExpiresAt) {
			delete(uc.notices, f)
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out
}
