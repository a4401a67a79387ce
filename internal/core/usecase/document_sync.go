package usecase

import (
	"sync"

	"github.com/kirillkom/resume-tailor/internal/core/ports"
)

// DocumentBridge pushes controller-owned content into the editing widget.
// It only writes when the value actually differs so that repeated syncs of
// the same content do not reset the cursor or undo history.
type DocumentBridge struct {
	mu     sync.Mutex
	handle ports.DocumentHandle
}

func NewDocumentBridge(handle ports.DocumentHandle) *DocumentBridge {
	return &DocumentBridge{handle: handle}
}

// Sync replaces the widget content with external when it differs by value
// from what the widget shows. It reports whether it wrote. The handle must
// not call back into the controller.
func (b *DocumentBridge) Sync(external string) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handle == nil || b.handle.Content() == external {
		return false
	}
	b.handle.SetContent(external)
	return true
}
