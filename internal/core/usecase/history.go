package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
	"github.com/kirillkom/resume-tailor/internal/htmldoc"
)

// EditingPayload is what a restored snapshot hands to the editing stage.
type EditingPayload struct {
	Content         string
	Origin          domain.AnalysisResult
	AppliedKeywords []string
}

// RestorePayload maps a snapshot onto an editing payload. Content is the final
// edited HTML when present, otherwise the extracted text wrapped as HTML.
func RestorePayload(snapshot domain.HistorySnapshot) EditingPayload {
	content := snapshot.FinalResumeHTML
	if strings.TrimSpace(content) == "" {
		content = htmldoc.Wrap(snapshot.ResumeText)
	}
	return EditingPayload{
		Content:         content,
		Origin:          snapshot.OriginResult(),
		AppliedKeywords: []string{},
	}
}

var _ ports.HistoryBrowser = (*HistoryUseCase)(nil)

type HistoryUseCase struct {
	store     ports.HistoryStore
	confirmer ports.Confirmer

	mu      sync.Mutex
	entries []domain.HistorySnapshot
	loaded  bool
}

func NewHistoryUseCase(store ports.HistoryStore, confirmer ports.Confirmer) *HistoryUseCase {
	return &HistoryUseCase{store: store, confirmer: confirmer}
}

// List fetches snapshots from the store, most recent first, and refreshes the
// in-memory list.
func (uc *HistoryUseCase) List(ctx context.Context) ([]domain.HistorySnapshot, error) {
	items, err := uc.store.List(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrNetwork) && !domain.IsKind(err, domain.ErrTemporary) {
			return nil, domain.WrapError(domain.ErrTemporary, "list history", err)
		}
		return nil, fmt.Errorf("list history: %w", err)
	}
	sorted := make([]domain.HistorySnapshot, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	uc.mu.Lock()
	uc.entries = sorted
	uc.loaded = true
	uc.mu.Unlock()

	return copySnapshots(sorted), nil
}

// Cached returns the in-memory list without contacting the store.
func (uc *HistoryUseCase) Cached() []domain.HistorySnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return copySnapshots(uc.entries)
}

func (uc *HistoryUseCase) Find(ctx context.Context, id string) (*domain.HistorySnapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find history", errors.New("id is required"))
	}

	uc.mu.Lock()
	for _, item := range uc.entries {
		if item.ID == id {
			found := item
			uc.mu.Unlock()
			return &found, nil
		}
	}
	uc.mu.Unlock()

	snapshot, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Delete removes a snapshot after the user confirms. The cached list only
// changes once the store has acknowledged the delete.
func (uc *HistoryUseCase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete history", errors.New("id is required"))
	}
	if uc.confirmer == nil {
		return domain.WrapError(domain.ErrNotConfirmed, "delete history", errors.New("no confirmation available"))
	}
	ok, err := uc.confirmer.Confirm(ctx, "Are you sure you want to delete this analysis?")
	if err != nil {
		return domain.WrapError(domain.ErrNotConfirmed, "delete history", err)
	}
	if !ok {
		return domain.WrapError(domain.ErrNotConfirmed, "delete history", errors.New("declined by user"))
	}

	if err := uc.store.Delete(ctx, id); err != nil {
		return err
	}

	uc.mu.Lock()
	kept := uc.entries[:0:0]
	for _, item := range uc.entries {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	uc.entries = kept
	uc.mu.Unlock()
	return nil
}

func copySnapshots(in []domain.HistorySnapshot) []domain.HistorySnapshot {
	out := make([]domain.HistorySnapshot, len(in))
	copy(out, in)
	return out
}
